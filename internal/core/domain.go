package core

import (
	"strings"
	"time"
)

const maxTextLen = 500

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"
	AccountCredit     AccountType = "credit"
	AccountOther      AccountType = "other"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	StatusPending   TransactionStatus = "pending"
	StatusPaid      TransactionStatus = "paid"
	StatusOverdue   TransactionStatus = "overdue"
	StatusCancelled TransactionStatus = "cancelled"
)

const (
	CategorySales       Category = "sales"
	CategoryServices    Category = "services"
	CategoryConsulting  Category = "consulting"
	CategoryParts       Category = "parts"
	CategoryRent        Category = "rent"
	CategoryUtilities   Category = "utilities"
	CategoryPayroll     Category = "payroll"
	CategorySupplies    Category = "supplies"
	CategoryEquipment   Category = "equipment"
	CategoryMarketing   Category = "marketing"
	CategoryInsurance   Category = "insurance"
	CategoryTaxes       Category = "taxes"
	CategoryMaintenance Category = "maintenance"
	CategoryTravel      Category = "travel"
	CategoryOther       Category = "other"
)

type (
	AccountType       string
	TransactionType   string
	TransactionStatus string
	Category          string

	// Account is a named money container with a running balance. The
	// balance is adjusted additively and never recomputed from transactions.
	Account struct {
		ID          string      `json:"id" yaml:"id"`
		Name        string      `json:"name" yaml:"name"`
		Type        AccountType `json:"type" yaml:"type"`
		Description string      `json:"description,omitempty" yaml:"description,omitempty"`
		Balance     Money       `json:"balance" yaml:"balance"`
		IsActive    bool        `json:"isActive" yaml:"isActive"`
		CreatedAt   time.Time   `json:"createdAt" yaml:"-"`
		UpdatedAt   time.Time   `json:"updatedAt" yaml:"-"`
	}

	Transaction struct {
		ID          string            `json:"id" yaml:"id"`
		Type        TransactionType   `json:"type" yaml:"type"`
		Status      TransactionStatus `json:"status" yaml:"status"`
		Category    Category          `json:"category" yaml:"category"`
		Amount      Money             `json:"amount" yaml:"amount"`
		Date        Date              `json:"date" yaml:"date"`
		AccountID   *string           `json:"accountId,omitempty" yaml:"accountId,omitempty"`
		CustomerID  *string           `json:"customerId,omitempty" yaml:"customerId,omitempty"`
		WorkOrderID *string           `json:"workOrderId,omitempty" yaml:"workOrderId,omitempty"`
		Description string            `json:"description" yaml:"description"`
		Notes       string            `json:"notes,omitempty" yaml:"notes,omitempty"`
		DocumentRef string            `json:"documentRef,omitempty" yaml:"documentRef,omitempty"`
		CreatedAt   time.Time         `json:"createdAt" yaml:"-"`
		UpdatedAt   time.Time         `json:"updatedAt" yaml:"-"`
	}

	// Budget is a spending target for one category over [StartDate, EndDate].
	Budget struct {
		ID          string    `json:"id" yaml:"id"`
		Name        string    `json:"name" yaml:"name"`
		Category    Category  `json:"category" yaml:"category"`
		Amount      Money     `json:"amount" yaml:"amount"`
		StartDate   Date      `json:"startDate" yaml:"startDate"`
		EndDate     Date      `json:"endDate" yaml:"endDate"`
		Description string    `json:"description,omitempty" yaml:"description,omitempty"`
		CreatedAt   time.Time `json:"createdAt" yaml:"-"`
		UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
	}
)

var categories = []Category{
	CategorySales, CategoryServices, CategoryConsulting, CategoryParts,
	CategoryRent, CategoryUtilities, CategoryPayroll, CategorySupplies,
	CategoryEquipment, CategoryMarketing, CategoryInsurance, CategoryTaxes,
	CategoryMaintenance, CategoryTravel, CategoryOther,
}

// Categories returns every known category.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (t AccountType) IsValid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountInvestment, AccountCash, AccountCredit, AccountOther:
		return true
	}
	return false
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether the status still awaits settlement.
func (s TransactionStatus) IsOpen() bool {
	return s == StatusPending || s == StatusOverdue
}

func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return NewValidationError("name", ErrEmptyName)
	}
	if len(a.Name) > 200 {
		return NewValidationError("name", ErrTooLong)
	}
	if !a.Type.IsValid() {
		return NewValidationError("type", ErrInvalidType)
	}
	if err := a.Balance.Validate(); err != nil {
		return NewValidationError("balance", err)
	}
	if len(a.Description) > maxTextLen {
		return NewValidationError("description", ErrTooLong)
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return NewValidationError("type", ErrInvalidType)
	}
	if !t.Status.IsValid() {
		return NewValidationError("status", ErrInvalidStatus)
	}
	if !t.Category.IsValid() {
		return NewValidationError("category", ErrInvalidCategory)
	}
	if !t.Amount.IsPositive() {
		return NewValidationError("amount", ErrInvalidAmount)
	}
	if err := t.Amount.Validate(); err != nil {
		return NewValidationError("amount", err)
	}
	if err := t.Date.Validate(); err != nil {
		return NewValidationError("date", err)
	}
	for field, v := range map[string]string{
		"description": t.Description,
		"notes":       t.Notes,
		"documentRef": t.DocumentRef,
	} {
		if len(v) > maxTextLen {
			return NewValidationError(field, ErrTooLong)
		}
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return NewValidationError("name", ErrEmptyName)
	}
	if !b.Category.IsValid() {
		return NewValidationError("category", ErrInvalidCategory)
	}
	if !b.Amount.IsPositive() {
		return NewValidationError("amount", ErrInvalidAmount)
	}
	if err := b.Amount.Validate(); err != nil {
		return NewValidationError("amount", err)
	}
	if err := (DateRange{Start: b.StartDate, End: b.EndDate}).Validate(); err != nil {
		return err
	}
	if len(b.Description) > maxTextLen {
		return NewValidationError("description", ErrTooLong)
	}
	return nil
}

// Period returns the budget's date window.
func (b Budget) Period() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}
