// Package ledger holds the write-side services for accounts, transactions
// and budgets on top of the store ports.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"bizops/internal/core"
	"bizops/internal/store"
)

type AccountService struct {
	repo  store.AccountRepository
	locks *keyedMutex
}

func NewAccountService(repo store.AccountRepository) *AccountService {
	return &AccountService{repo: repo, locks: newKeyedMutex()}
}

// NewAccount is the input of Create.
type NewAccount struct {
	Name        string           `json:"name"`
	Type        core.AccountType `json:"type"`
	Description string           `json:"description,omitempty"`
}

// Create opens an active account with a zero balance.
func (s *AccountService) Create(ctx context.Context, in NewAccount) (core.Account, error) {
	a, err := s.repo.CreateAccount(ctx, core.Account{
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		Balance:     core.Zero,
		IsActive:    true,
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (core.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]core.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// Update applies a partial update. A balance in the patch is an absolute
// value, so it goes through the same lock as adjustments.
func (s *AccountService) Update(ctx context.Context, id string, p core.AccountPatch) (core.Account, error) {
	if p.Balance != nil {
		defer s.locks.Lock(id)()
	}
	return s.repo.UpdateAccount(ctx, id, p)
}

func (s *AccountService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.DeleteAccount(ctx, id)
}

// AdjustBalance adds delta to the account's balance. Concurrent adjustments
// of the same account are serialized.
func (s *AccountService) AdjustBalance(ctx context.Context, id string, delta core.Money) (core.Account, error) {
	defer s.locks.Lock(id)()

	a, err := s.repo.AdjustAccountBalance(ctx, id, delta)
	if err != nil {
		return core.Account{}, err
	}
	slog.DebugContext(ctx, "Balance adjusted", "account_id", id, "delta", delta.String(), "balance", a.Balance.String())
	return a, nil
}

// SetBalance replaces the balance with target by applying the difference
// from the current value under the account lock.
func (s *AccountService) SetBalance(ctx context.Context, id string, target core.Money) (core.Account, error) {
	defer s.locks.Lock(id)()

	current, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	delta := target.Sub(current.Balance)
	if delta.IsZero() {
		return current, nil
	}
	return s.repo.AdjustAccountBalance(ctx, id, delta)
}
