package postgres

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizops/internal/core"
)

// newTestRepo connects to TEST_DATABASE_URL or skips.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	repo, err := Connect(ctx, url)
	require.NoError(t, err)
	_, err = repo.db.Exec(ctx, `TRUNCATE accounts, transactions, budgets`)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/db", migrateURL("postgres://u:p@localhost:5432/db"))
	assert.Equal(t, "pgx5://localhost/db", migrateURL("postgresql://localhost/db"))
	assert.Equal(t, "pgx5://localhost/db", migrateURL("pgx5://localhost/db"))
}

func TestWhereBuilderNumbersPlaceholders(t *testing.T) {
	var w whereBuilder
	w.add("type = ?", "income")
	w.add("date BETWEEN ?::date AND ?::date", "2024-01-01", "2024-01-31")
	assert.Equal(t, " WHERE type = $1 AND date BETWEEN $2::date AND $3::date", w.String())
	assert.Len(t, w.args, 3)

	var empty whereBuilder
	assert.Equal(t, "", empty.String())
}

func TestPostgresConcurrentAdjustments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.CreateAccount(ctx, core.Account{Name: "Till", Type: core.AccountCash, IsActive: true})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AdjustAccountBalance(ctx, a.ID, core.MustMoney("2.5"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "125", got.Balance.String())
}

func TestPostgresTransactionsAndBudgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Expense, Status: core.StatusPending, Category: core.CategoryRent,
		Amount: core.MustMoney("400"), Date: core.NewDate(2024, 1, 20),
	})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Income, Status: core.StatusPaid, Category: core.CategorySales,
		Amount: core.MustMoney("1000"), Date: core.NewDate(2024, 2, 1),
	})
	require.NoError(t, err)

	jan, err := core.NewDateRange(core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	got, err := repo.ListTransactions(ctx, core.TransactionFilter{
		Range:    &jan,
		Statuses: []core.TransactionStatus{core.StatusPending, core.StatusOverdue},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-20", got[0].Date.String())

	_, err = repo.CreateBudget(ctx, core.Budget{
		Name: "Rent", Category: core.CategoryRent, Amount: core.MustMoney("1200"),
		StartDate: core.NewDate(2023, 12, 1), EndDate: core.NewDate(2024, 1, 10),
	})
	require.NoError(t, err)
	budgets, err := repo.ListBudgets(ctx, core.BudgetFilter{Range: &jan})
	require.NoError(t, err)
	assert.Len(t, budgets, 1)

	_, err = repo.GetBudget(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
