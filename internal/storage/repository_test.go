package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizops/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "bizops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteAccountBalance(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a, err := repo.CreateAccount(ctx, core.Account{Name: "Operating", Type: core.AccountChecking, IsActive: true})
	require.NoError(t, err)
	assert.True(t, a.IsActive)
	assert.Equal(t, "0", a.Balance.String())

	_, err = repo.AdjustAccountBalance(ctx, a.ID, core.MustMoney("150"))
	require.NoError(t, err)
	a, err = repo.AdjustAccountBalance(ctx, a.ID, core.MustMoney("-30"))
	require.NoError(t, err)
	assert.Equal(t, "120", a.Balance.String())

	got, err := repo.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "120", got.Balance.String())

	_, err = repo.AdjustAccountBalance(ctx, "missing", core.MustMoney("1"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteTransactionFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	customer := "cust-1"
	seed := []core.Transaction{
		{Type: core.Income, Status: core.StatusPaid, Category: core.CategorySales, Amount: core.MustMoney("1000"), Date: core.NewDate(2024, 1, 15), CustomerID: &customer},
		{Type: core.Expense, Status: core.StatusPending, Category: core.CategoryRent, Amount: core.MustMoney("400"), Date: core.NewDate(2024, 1, 20)},
		{Type: core.Expense, Status: core.StatusOverdue, Category: core.CategoryUtilities, Amount: core.MustMoney("80.50"), Date: core.NewDate(2024, 2, 3)},
	}
	var ids []string
	for _, tx := range seed {
		created, err := repo.CreateTransaction(ctx, tx)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	all, err := repo.ListTransactions(ctx, core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, tx := range all {
		assert.Equal(t, ids[i], tx.ID)
	}
	assert.Equal(t, "80.5", all[2].Amount.String())
	assert.Nil(t, all[1].CustomerID)

	january, err := core.NewDateRange(core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.NoError(t, err)
	inJan, err := repo.ListTransactions(ctx, core.TransactionFilter{Range: &january})
	require.NoError(t, err)
	assert.Len(t, inJan, 2)

	payable, err := repo.ListTransactions(ctx, core.TransactionFilter{
		Type:     core.Expense,
		Statuses: []core.TransactionStatus{core.StatusPending, core.StatusOverdue},
	})
	require.NoError(t, err)
	assert.Len(t, payable, 2)

	byCustomer, err := repo.ListTransactions(ctx, core.TransactionFilter{CustomerID: customer})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, ids[0], byCustomer[0].ID)

	paid := core.StatusPaid
	none := ""
	updated, err := repo.UpdateTransaction(ctx, ids[0], core.TransactionPatch{Status: &paid, CustomerID: &none})
	require.NoError(t, err)
	assert.Nil(t, updated.CustomerID)

	ok, err := repo.DeleteTransaction(ctx, ids[1])
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = repo.GetTransaction(ctx, ids[1])
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteBudgetOverlap(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	q1, err := repo.CreateBudget(ctx, core.Budget{
		Name: "Q1 rent", Category: core.CategoryRent, Amount: core.MustMoney("1200"),
		StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 3, 31),
	})
	require.NoError(t, err)
	_, err = repo.CreateBudget(ctx, core.Budget{
		Name: "Q3 marketing", Category: core.CategoryMarketing, Amount: core.MustMoney("500"),
		StartDate: core.NewDate(2024, 7, 1), EndDate: core.NewDate(2024, 9, 30),
	})
	require.NoError(t, err)

	feb, err := core.NewDateRange(core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29))
	require.NoError(t, err)
	got, err := repo.ListBudgets(ctx, core.BudgetFilter{Range: &feb})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, q1.ID, got[0].ID)

	_, err = repo.CreateBudget(ctx, core.Budget{
		Name: "bad", Category: core.CategoryRent, Amount: core.MustMoney("1"),
		StartDate: core.NewDate(2024, 5, 1), EndDate: core.NewDate(2024, 4, 1),
	})
	assert.True(t, core.IsValidation(err))
}

func TestSQLiteAmountScaleRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	tx := core.Transaction{
		Type: core.Income, Status: core.StatusPaid, Category: core.CategoryServices,
		Amount: core.MustMoney("12.3456"), Date: core.NewDate(2024, 1, 1),
	}
	created, err := repo.CreateTransaction(ctx, tx)
	require.NoError(t, err)
	got, err := repo.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.3456", got.Amount.String())

	tx.Amount = core.NewMoney(decimal.New(1, -5))
	_, err = repo.CreateTransaction(ctx, tx)
	assert.True(t, core.IsValidation(err))
	assert.ErrorIs(t, err, core.ErrAmountPrecision)

	a, err := repo.CreateAccount(ctx, core.Account{Name: "Operating", Type: core.AccountChecking, IsActive: true})
	require.NoError(t, err)
	_, err = repo.AdjustAccountBalance(ctx, a.ID, core.MustMoney("9999999999999999"))
	require.NoError(t, err)
	_, err = repo.AdjustAccountBalance(ctx, a.ID, core.MustMoney("1"))
	assert.ErrorIs(t, err, core.ErrAmountOutOfRange)
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bizops.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	_, err = repo.ListAccounts(context.Background())
	assert.NoError(t, err)
}
