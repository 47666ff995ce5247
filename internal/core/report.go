package core

// CategoryTotals maps a category to its summed amount.
type CategoryTotals map[Category]Money

// Add accumulates amount under c.
func (ct CategoryTotals) Add(c Category, amount Money) {
	ct[c] = ct[c].Add(amount)
}

// Total sums every category.
func (ct CategoryTotals) Total() Money {
	total := Zero
	for _, v := range ct {
		total = total.Add(v)
	}
	return total
}

type (
	DailyCashFlow struct {
		Date    Date  `json:"date"`
		Income  Money `json:"income"`
		Expense Money `json:"expense"`
		Net     Money `json:"net"`
	}

	CashFlowReport struct {
		StartDate         Date            `json:"startDate"`
		EndDate           Date            `json:"endDate"`
		TotalIncome       Money           `json:"totalIncome"`
		TotalExpense      Money           `json:"totalExpense"`
		NetCashFlow       Money           `json:"netCashFlow"`
		IncomeByCategory  CategoryTotals  `json:"incomeByCategory"`
		ExpenseByCategory CategoryTotals  `json:"expenseByCategory"`
		DailyCashFlow     []DailyCashFlow `json:"dailyCashFlow"`
	}

	ProfitAndLoss struct {
		StartDate          Date           `json:"startDate"`
		EndDate            Date           `json:"endDate"`
		Revenue            Money          `json:"revenue"`
		Expenses           Money          `json:"expenses"`
		Profit             Money          `json:"profit"`
		RevenueByCategory  CategoryTotals `json:"revenueByCategory"`
		ExpensesByCategory CategoryTotals `json:"expensesByCategory"`
	}

	BudgetVsActual struct {
		BudgetID string   `json:"budgetId"`
		Name     string   `json:"name"`
		Category Category `json:"category"`
		Budgeted Money    `json:"budgeted"`
		Actual   Money    `json:"actual"`
		Variance Money    `json:"variance"`
	}

	AccountBalances struct {
		TotalBalance Money     `json:"totalBalance"`
		Accounts     []Account `json:"accounts"`
	}
)
