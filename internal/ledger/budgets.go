package ledger

import (
	"context"
	"fmt"

	"bizops/internal/core"
	"bizops/internal/store"
)

type BudgetService struct {
	repo store.BudgetRepository
}

func NewBudgetService(repo store.BudgetRepository) *BudgetService {
	return &BudgetService{repo: repo}
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	created, err := s.repo.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return created, nil
}

func (s *BudgetService) Get(ctx context.Context, id string) (core.Budget, error) {
	return s.repo.GetBudget(ctx, id)
}

func (s *BudgetService) List(ctx context.Context, f core.BudgetFilter) ([]core.Budget, error) {
	return s.repo.ListBudgets(ctx, f)
}

func (s *BudgetService) Update(ctx context.Context, id string, p core.BudgetPatch) (core.Budget, error) {
	return s.repo.UpdateBudget(ctx, id, p)
}

func (s *BudgetService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.DeleteBudget(ctx, id)
}

func (s *BudgetService) ByCategory(ctx context.Context, c core.Category) ([]core.Budget, error) {
	return s.repo.ListBudgets(ctx, core.BudgetFilter{Category: c})
}

// ByDateRange returns budgets whose period overlaps r.
func (s *BudgetService) ByDateRange(ctx context.Context, r core.DateRange) ([]core.Budget, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListBudgets(ctx, core.BudgetFilter{Range: &r})
}
