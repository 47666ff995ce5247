package http

import (
	"fmt"
	"net/http"

	"bizops/internal/core"
	"bizops/internal/ledger"
	applog "bizops/internal/log"
)

// balanceRequest is the body of PUT /api/accounts/{id}/balance.
type balanceRequest struct {
	Amount *core.Money `json:"amount"`
}

const (
	balanceModeDelta = "delta"
	balanceModeSet   = "set"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.services.Accounts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(accounts).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in ledger.NewAccount
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	in.Description = sanitizeInput(in.Description)

	a, err := s.services.Accounts.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()

	applog.FromContext(r.Context()).WithComponent(applog.ComponentLedger).InfoContext(r.Context(), "Account created",
		applog.FieldAccountID, a.ID,
		applog.FieldOperation, applog.OpCreate)
	NewJSONResponse().Status(http.StatusCreated).Header("Location", "/api/accounts/"+a.ID).Body(a).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.services.Accounts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(a).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var p core.AccountPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.services.Accounts.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	NewJSONResponse().Body(a).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.services.Accounts.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, fmt.Errorf("account %s: %w", id, core.ErrNotFound))
		return
	}
	s.invalidateReports()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleUpdateBalance adds the body amount to the balance. With ?mode=set
// the amount is the new absolute balance instead.
func (s *Server) handleUpdateBalance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	mode := sanitizeInput(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = balanceModeDelta
	}
	if mode != balanceModeDelta && mode != balanceModeSet {
		writeError(w, r, core.NewValidationError("mode", fmt.Errorf("%w: must be %q or %q", errBadRequest, balanceModeDelta, balanceModeSet)))
		return
	}

	var req balanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Amount == nil {
		writeError(w, r, core.NewValidationError("amount", core.ErrInvalidAmount))
		return
	}

	var (
		a   core.Account
		err error
	)
	if mode == balanceModeSet {
		a, err = s.services.Accounts.SetBalance(r.Context(), id, *req.Amount)
	} else {
		a, err = s.services.Accounts.AdjustBalance(r.Context(), id, *req.Amount)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogBalanceAdjusted(r.Context(), id, mode+":"+req.Amount.String(), a.Balance.String())
	NewJSONResponse().Body(a).Write(w)
}
