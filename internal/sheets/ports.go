package sheets

import (
	"context"
	"time"

	"bizops/internal/core"
	"bizops/internal/events"
)

// Header is the first row of a ledger sheet.
var Header = []string{"Date", "Type", "Status", "Category", "Amount", "Description", "Transaction ID", "Action"}

// LedgerRow is one line appended to the ledger mirror.
type LedgerRow struct {
	Date          string
	Type          string
	Status        string
	Category      string
	Amount        string
	Description   string
	TransactionID string
	Action        string
}

// Values returns the row in Header column order.
func (r LedgerRow) Values() []any {
	return []any{r.Date, r.Type, r.Status, r.Category, r.Amount, r.Description, r.TransactionID, r.Action}
}

// RowFromTransaction renders the current state of t.
func RowFromTransaction(t core.Transaction, action events.Action) LedgerRow {
	return LedgerRow{
		Date:          t.Date.String(),
		Type:          string(t.Type),
		Status:        string(t.Status),
		Category:      string(t.Category),
		Amount:        t.Amount.String(),
		Description:   t.Description,
		TransactionID: t.ID,
		Action:        string(action),
	}
}

// Tombstone marks a transaction as removed. Only the date, id and action are set.
func Tombstone(id string, at time.Time) LedgerRow {
	return LedgerRow{
		Date:          core.DateOf(at).String(),
		TransactionID: id,
		Action:        string(events.ActionDeleted),
	}
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		// AppendRows writes rows after the last filled row and returns the
		// updated range.
		AppendRows(ctx context.Context, rows []LedgerRow) (rowRef string, err error)
	}

	HeaderEnsurer interface {
		EnsureHeader(ctx context.Context) error
	}
)
