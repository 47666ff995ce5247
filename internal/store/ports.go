// Package store defines the persistence ports used by the ledger services
// and the reporting engine. Backends live in store/memory, storage and
// storage/postgres.
package store

import (
	"context"

	"bizops/internal/core"
)

// Ports for outbound adapters. Every listing returns records in insertion order.
type (
	AccountRepository interface {
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		GetAccount(ctx context.Context, id string) (core.Account, error)
		ListAccounts(ctx context.Context) ([]core.Account, error)
		UpdateAccount(ctx context.Context, id string, p core.AccountPatch) (core.Account, error)
		// AdjustAccountBalance adds delta to the stored balance and returns the
		// updated account.
		AdjustAccountBalance(ctx context.Context, id string, delta core.Money) (core.Account, error)
		// DeleteAccount reports whether a record was removed.
		DeleteAccount(ctx context.Context, id string) (bool, error)
	}

	TransactionRepository interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) (bool, error)
	}

	BudgetRepository interface {
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		ListBudgets(ctx context.Context, f core.BudgetFilter) ([]core.Budget, error)
		UpdateBudget(ctx context.Context, id string, p core.BudgetPatch) (core.Budget, error)
		DeleteBudget(ctx context.Context, id string) (bool, error)
	}

	// Repository bundles every port a backend must provide.
	Repository interface {
		AccountRepository
		TransactionRepository
		BudgetRepository
		Close() error
	}
)
