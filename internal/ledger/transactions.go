package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"bizops/internal/core"
	"bizops/internal/events"
	"bizops/internal/store"
)

// EventPublisher announces transaction writes to downstream consumers.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, id string, action events.Action) error
}

// TransactionService orchestrates transaction writes across the repository
// and the event bus. Transactions never touch account balances.
type TransactionService struct {
	repo      store.TransactionRepository
	publisher EventPublisher
}

// NewTransactionService accepts a nil publisher, in which case events are skipped.
func NewTransactionService(repo store.TransactionRepository, publisher EventPublisher) *TransactionService {
	return &TransactionService{repo: repo, publisher: publisher}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := s.repo.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, created.ID, events.ActionCreated)
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, f)
}

func (s *TransactionService) Update(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	updated, err := s.repo.UpdateTransaction(ctx, id, p)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, id, events.ActionUpdated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.DeleteTransaction(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.publish(ctx, id, events.ActionDeleted)
	}
	return ok, nil
}

// MarkPaid sets the transaction status to paid.
func (s *TransactionService) MarkPaid(ctx context.Context, id string) (core.Transaction, error) {
	paid := core.StatusPaid
	return s.Update(ctx, id, core.TransactionPatch{Status: &paid})
}

func (s *TransactionService) ByType(ctx context.Context, typ core.TransactionType) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, core.TransactionFilter{Type: typ})
}

func (s *TransactionService) ByStatus(ctx context.Context, status core.TransactionStatus) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, core.TransactionFilter{Status: status})
}

func (s *TransactionService) ByCategory(ctx context.Context, c core.Category) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, core.TransactionFilter{Category: c})
}

func (s *TransactionService) ByCustomer(ctx context.Context, customerID string) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, core.TransactionFilter{CustomerID: customerID})
}

func (s *TransactionService) ByWorkOrder(ctx context.Context, workOrderID string) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, core.TransactionFilter{WorkOrderID: workOrderID})
}

// ByDateRange returns transactions dated within r, both ends inclusive.
func (s *TransactionService) ByDateRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, core.TransactionFilter{Range: &r})
}

// AccountsPayable returns unsettled expenses.
func (s *TransactionService) AccountsPayable(ctx context.Context) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, openFilter(core.Expense))
}

// AccountsReceivable returns unsettled income.
func (s *TransactionService) AccountsReceivable(ctx context.Context) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, openFilter(core.Income))
}

func openFilter(typ core.TransactionType) core.TransactionFilter {
	return core.TransactionFilter{
		Type:     typ,
		Statuses: []core.TransactionStatus{core.StatusPending, core.StatusOverdue},
	}
}

func (s *TransactionService) publish(ctx context.Context, id string, action events.Action) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping transaction event", "id", id, "action", action)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, id, action); err != nil {
		// The write already succeeded locally.
		slog.ErrorContext(ctx, "Failed to publish transaction event", "id", id, "action", action, "error", err)
	}
}
