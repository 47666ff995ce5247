// Package reporting derives cash-flow, profit and loss, budget-vs-actual and
// balance aggregates from the stores. It only reads; every figure reflects
// the transaction statuses current at read time.
package reporting

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"bizops/internal/core"
)

type (
	TransactionLister interface {
		ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
	}
	BudgetLister interface {
		ListBudgets(ctx context.Context, f core.BudgetFilter) ([]core.Budget, error)
	}
	AccountLister interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
	}
)

type Engine struct {
	transactions TransactionLister
	budgets      BudgetLister
	accounts     AccountLister
}

func NewEngine(transactions TransactionLister, budgets BudgetLister, accounts AccountLister) *Engine {
	return &Engine{transactions: transactions, budgets: budgets, accounts: accounts}
}

// paidIn lists paid transactions dated inside r.
func (e *Engine) paidIn(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	txs, err := e.transactions.ListTransactions(ctx, core.TransactionFilter{Status: core.StatusPaid, Range: &r})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// CashFlow totals paid income and expense over r with per-category and
// per-day breakdowns. The daily series holds one entry per calendar day,
// zero-filled, in ascending order.
func (e *Engine) CashFlow(ctx context.Context, r core.DateRange) (core.CashFlowReport, error) {
	if err := r.ValidateReport(); err != nil {
		return core.CashFlowReport{}, err
	}
	txs, err := e.paidIn(ctx, r)
	if err != nil {
		return core.CashFlowReport{}, err
	}

	days := r.Days()
	daily := make([]core.DailyCashFlow, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		daily[i] = core.DailyCashFlow{Date: d, Income: core.Zero, Expense: core.Zero, Net: core.Zero}
		index[d.String()] = i
	}

	report := core.CashFlowReport{
		StartDate:         r.Start,
		EndDate:           r.End,
		IncomeByCategory:  core.CategoryTotals{},
		ExpenseByCategory: core.CategoryTotals{},
		DailyCashFlow:     daily,
	}
	for _, t := range txs {
		i, ok := index[t.Date.String()]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Income:
			report.IncomeByCategory.Add(t.Category, t.Amount)
			daily[i].Income = daily[i].Income.Add(t.Amount)
		case core.Expense:
			report.ExpenseByCategory.Add(t.Category, t.Amount)
			daily[i].Expense = daily[i].Expense.Add(t.Amount)
		}
	}
	for i := range daily {
		daily[i].Net = daily[i].Income.Sub(daily[i].Expense)
	}

	report.TotalIncome = report.IncomeByCategory.Total()
	report.TotalExpense = report.ExpenseByCategory.Total()
	report.NetCashFlow = report.TotalIncome.Sub(report.TotalExpense)
	return report, nil
}

// ProfitAndLoss totals paid revenue and expenses over r.
func (e *Engine) ProfitAndLoss(ctx context.Context, r core.DateRange) (core.ProfitAndLoss, error) {
	if err := r.ValidateReport(); err != nil {
		return core.ProfitAndLoss{}, err
	}
	txs, err := e.paidIn(ctx, r)
	if err != nil {
		return core.ProfitAndLoss{}, err
	}

	pl := core.ProfitAndLoss{
		StartDate:          r.Start,
		EndDate:            r.End,
		RevenueByCategory:  core.CategoryTotals{},
		ExpensesByCategory: core.CategoryTotals{},
	}
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			pl.RevenueByCategory.Add(t.Category, t.Amount)
		case core.Expense:
			pl.ExpensesByCategory.Add(t.Category, t.Amount)
		}
	}
	pl.Revenue = pl.RevenueByCategory.Total()
	pl.Expenses = pl.ExpensesByCategory.Total()
	pl.Profit = pl.Revenue.Sub(pl.Expenses)
	return pl, nil
}

// BudgetVsActual compares every budget overlapping r with the paid
// expenses of its category inside r. Income never counts as spend. Rows
// follow budget insertion order.
func (e *Engine) BudgetVsActual(ctx context.Context, r core.DateRange) ([]core.BudgetVsActual, error) {
	if err := r.ValidateReport(); err != nil {
		return nil, err
	}

	var (
		budgets []core.Budget
		txs     []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = e.budgets.ListBudgets(gctx, core.BudgetFilter{Range: &r})
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = e.paidIn(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	actual := core.CategoryTotals{}
	for _, t := range txs {
		if t.Type == core.Expense {
			actual.Add(t.Category, t.Amount)
		}
	}

	out := make([]core.BudgetVsActual, 0, len(budgets))
	for _, b := range budgets {
		spent := actual[b.Category]
		out = append(out, core.BudgetVsActual{
			BudgetID: b.ID,
			Name:     b.Name,
			Category: b.Category,
			Budgeted: b.Amount,
			Actual:   spent,
			Variance: b.Amount.Sub(spent),
		})
	}
	return out, nil
}

// AccountBalances lists every account, active or not, with the summed balance.
func (e *Engine) AccountBalances(ctx context.Context) (core.AccountBalances, error) {
	accounts, err := e.accounts.ListAccounts(ctx)
	if err != nil {
		return core.AccountBalances{}, fmt.Errorf("list accounts: %w", err)
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	total := core.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return core.AccountBalances{TotalBalance: total, Accounts: accounts}, nil
}
