package core

// TransactionFilter selects transactions. Zero-valued fields match everything.
type TransactionFilter struct {
	Type        TransactionType
	Status      TransactionStatus
	Statuses    []TransactionStatus
	Category    Category
	CustomerID  string
	WorkOrderID string
	Range       *DateRange
}

// Matches reports whether t satisfies every set criterion.
func (f TransactionFilter) Matches(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if t.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.CustomerID != "" && (t.CustomerID == nil || *t.CustomerID != f.CustomerID) {
		return false
	}
	if f.WorkOrderID != "" && (t.WorkOrderID == nil || *t.WorkOrderID != f.WorkOrderID) {
		return false
	}
	if f.Range != nil && !f.Range.Contains(t.Date) {
		return false
	}
	return true
}

// Apply returns the matching transactions, preserving order.
func (f TransactionFilter) Apply(in []Transaction) []Transaction {
	out := make([]Transaction, 0, len(in))
	for _, t := range in {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// BudgetFilter selects budgets by category and period overlap.
type BudgetFilter struct {
	Category Category
	Range    *DateRange
}

func (f BudgetFilter) Matches(b Budget) bool {
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	if f.Range != nil && !f.Range.Overlaps(b.StartDate, b.EndDate) {
		return false
	}
	return true
}

func (f BudgetFilter) Apply(in []Budget) []Budget {
	out := make([]Budget, 0, len(in))
	for _, b := range in {
		if f.Matches(b) {
			out = append(out, b)
		}
	}
	return out
}
