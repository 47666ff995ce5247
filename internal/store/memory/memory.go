package memory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"bizops/internal/core"
	"bizops/internal/store"
)

// Ensure interface conformance
var _ store.Repository = (*Store)(nil)

// Store keeps every record in process memory. Each collection is a map for
// lookup plus an id slice that preserves insertion order.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]core.Account
	accountOrder []string

	transactions map[string]core.Transaction
	txOrder      []string

	budgets     map[string]core.Budget
	budgetOrder []string

	now func() time.Time
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]core.Account),
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
		now:          time.Now,
	}
}

// Seed is the on-disk fixture layout accepted by NewFromFile.
type Seed struct {
	Accounts     []core.Account     `yaml:"accounts"`
	Transactions []core.Transaction `yaml:"transactions"`
	Budgets      []core.Budget      `yaml:"budgets"`
}

// NewFromFile returns a store seeded from a YAML fixture. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := s.Load(context.Background(), seed); err != nil {
		return nil, fmt.Errorf("load seed file %s: %w", path, err)
	}
	return s, nil
}

// Load inserts every record of the seed, validating each one.
func (s *Store) Load(ctx context.Context, seed Seed) error {
	for _, a := range seed.Accounts {
		if _, err := s.CreateAccount(ctx, a); err != nil {
			return fmt.Errorf("account %q: %w", a.Name, err)
		}
	}
	for _, t := range seed.Transactions {
		if _, err := s.CreateTransaction(ctx, t); err != nil {
			return fmt.Errorf("transaction %q: %w", t.Description, err)
		}
	}
	for _, b := range seed.Budgets {
		if _, err := s.CreateBudget(ctx, b); err != nil {
			return fmt.Errorf("budget %q: %w", b.Name, err)
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) newID(exists func(string) bool, id string) (string, error) {
	if id == "" {
		return uuid.NewString(), nil
	}
	if exists(id) {
		return "", fmt.Errorf("duplicate id %s", id)
	}
	return id, nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.newID(func(id string) bool { _, ok := s.accounts[id]; return ok }, a.ID)
	if err != nil {
		return core.Account{}, err
	}
	now := s.now().UTC()
	a.ID = id
	a.CreatedAt, a.UpdatedAt = now, now
	s.accounts[id] = a
	s.accountOrder = append(s.accountOrder, id)
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Account, 0, len(s.accountOrder))
	for _, id := range s.accountOrder {
		out = append(out, s.accounts[id])
	}
	return out, nil
}

func (s *Store) UpdateAccount(_ context.Context, id string, p core.AccountPatch) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	a = p.Apply(a)
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.UpdatedAt = s.now().UTC()
	s.accounts[id] = a
	return a, nil
}

// AdjustAccountBalance performs the read-modify-write under the store lock,
// so concurrent deltas are never lost.
func (s *Store) AdjustAccountBalance(_ context.Context, id string, delta core.Money) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	balance := a.Balance.Add(delta)
	if err := balance.Validate(); err != nil {
		return core.Account{}, core.NewValidationError("amount", err)
	}
	a.Balance = balance
	a.UpdatedAt = s.now().UTC()
	s.accounts[id] = a
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return false, nil
	}
	delete(s.accounts, id)
	s.accountOrder = removeID(s.accountOrder, id)
	return true, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.newID(func(id string) bool { _, ok := s.transactions[id]; return ok }, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	now := s.now().UTC()
	t.ID = id
	t.CreatedAt, t.UpdatedAt = now, now
	s.transactions[id] = t
	s.txOrder = append(s.txOrder, id)
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.txOrder))
	for _, id := range s.txOrder {
		if t := s.transactions[id]; f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	t = p.Apply(t)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.UpdatedAt = s.now().UTC()
	s.transactions[id] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return false, nil
	}
	delete(s.transactions, id)
	s.txOrder = removeID(s.txOrder, id)
	return true, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.newID(func(id string) bool { _, ok := s.budgets[id]; return ok }, b.ID)
	if err != nil {
		return core.Budget{}, err
	}
	now := s.now().UTC()
	b.ID = id
	b.CreatedAt, b.UpdatedAt = now, now
	s.budgets[id] = b
	s.budgetOrder = append(s.budgetOrder, id)
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, f core.BudgetFilter) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Budget, 0, len(s.budgetOrder))
	for _, id := range s.budgetOrder {
		if b := s.budgets[id]; f.Matches(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, id string, p core.BudgetPatch) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	b = p.Apply(b)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.UpdatedAt = s.now().UTC()
	s.budgets[id] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return false, nil
	}
	delete(s.budgets, id)
	s.budgetOrder = removeID(s.budgetOrder, id)
	return true, nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
