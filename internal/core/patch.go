package core

// Patch types carry partial updates. A nil field leaves the stored value as is.
type (
	AccountPatch struct {
		Name        *string      `json:"name,omitempty"`
		Type        *AccountType `json:"type,omitempty"`
		Description *string      `json:"description,omitempty"`
		Balance     *Money       `json:"balance,omitempty"`
		IsActive    *bool        `json:"isActive,omitempty"`
	}

	TransactionPatch struct {
		Type        *TransactionType   `json:"type,omitempty"`
		Status      *TransactionStatus `json:"status,omitempty"`
		Category    *Category          `json:"category,omitempty"`
		Amount      *Money             `json:"amount,omitempty"`
		Date        *Date              `json:"date,omitempty"`
		AccountID   *string            `json:"accountId,omitempty"`
		CustomerID  *string            `json:"customerId,omitempty"`
		WorkOrderID *string            `json:"workOrderId,omitempty"`
		Description *string            `json:"description,omitempty"`
		Notes       *string            `json:"notes,omitempty"`
		DocumentRef *string            `json:"documentRef,omitempty"`
	}

	BudgetPatch struct {
		Name        *string   `json:"name,omitempty"`
		Category    *Category `json:"category,omitempty"`
		Amount      *Money    `json:"amount,omitempty"`
		StartDate   *Date     `json:"startDate,omitempty"`
		EndDate     *Date     `json:"endDate,omitempty"`
		Description *string   `json:"description,omitempty"`
	}
)

// Apply returns a copy of a with the patch applied.
func (p AccountPatch) Apply(a Account) Account {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	return a
}

// Apply returns a copy of t with the patch applied. An empty string clears
// an optional link.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.AccountID != nil {
		t.AccountID = optional(*p.AccountID)
	}
	if p.CustomerID != nil {
		t.CustomerID = optional(*p.CustomerID)
	}
	if p.WorkOrderID != nil {
		t.WorkOrderID = optional(*p.WorkOrderID)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.DocumentRef != nil {
		t.DocumentRef = *p.DocumentRef
	}
	return t
}

func (p BudgetPatch) Apply(b Budget) Budget {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	return b
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	return optional(s)
}
