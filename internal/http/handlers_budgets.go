package http

import (
	"fmt"
	"net/http"
	"time"

	"bizops/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	f, err := ParseBudgetFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	budgets, err := s.services.Budgets.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(budgets).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = ""
	b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	b.Name = sanitizeInput(b.Name)
	b.Description = sanitizeInput(b.Description)

	created, err := s.services.Budgets.Create(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	NewJSONResponse().Status(http.StatusCreated).Header("Location", "/api/budgets/"+created.ID).Body(created).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.services.Budgets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var p core.BudgetPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.services.Budgets.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.services.Budgets.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, fmt.Errorf("budget %s: %w", id, core.ErrNotFound))
		return
	}
	s.invalidateReports()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
