package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bizops/internal/core"
	applog "bizops/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.services.Transactions.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(txs).Write(w)
}

// handleCreateTransaction records a transaction. A missing status means
// pending; ids and timestamps in the body are ignored.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = ""
	t.CreatedAt, t.UpdatedAt = time.Time{}, time.Time{}
	if t.Status == "" {
		t.Status = core.StatusPending
	}
	t.Description = sanitizeInput(t.Description)
	t.Notes = sanitizeInput(t.Notes)

	created, err := s.services.Transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()

	applog.FromContext(r.Context()).WithComponent(applog.ComponentLedger).InfoContext(r.Context(), "Transaction created",
		applog.FieldTransactionID, created.ID,
		applog.FieldAmount, created.Amount.String(),
		applog.FieldOperation, applog.OpCreate)
	NewJSONResponse().Status(http.StatusCreated).Header("Location", "/api/transactions/"+created.ID).Body(created).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.services.Transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var p core.TransactionPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.services.Transactions.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.services.Transactions.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound))
		return
	}
	s.invalidateReports()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handlePayTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.services.Transactions.MarkPaid(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleAccountsPayable(w http.ResponseWriter, r *http.Request) {
	s.writeTransactions(w, r, s.services.Transactions.AccountsPayable)
}

func (s *Server) handleAccountsReceivable(w http.ResponseWriter, r *http.Request) {
	s.writeTransactions(w, r, s.services.Transactions.AccountsReceivable)
}

func (s *Server) writeTransactions(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]core.Transaction, error)) {
	txs, err := list(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(txs).Write(w)
}
