// Package postgres is the PostgreSQL backend of the store ports, built on a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bizops/internal/core"
	"bizops/internal/store"
)

var _ store.Repository = (*Repository)(nil)

// numericOutOfRange is SQLSTATE 22003, raised when a balance overflows NUMERIC(20,4).
const numericOutOfRange = "22003"

type Repository struct {
	db *pgxpool.Pool
}

// Connect opens a pool against databaseURL and applies the embedded migrations.
func Connect(ctx context.Context, databaseURL string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 2 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, err
	}
	return New(pool), nil
}

func New(pool *pgxpool.Pool) *Repository { return &Repository{db: pool} }

func (r *Repository) Close() error {
	r.db.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

const accountColumns = `id, name, type, description, balance::text, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (core.Account, error) {
	var (
		a       core.Account
		typ     string
		balance string
	)
	if err := row.Scan(&a.ID, &a.Name, &typ, &a.Description, &balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return core.Account{}, err
	}
	bal, err := core.ParseMoney(balance)
	if err != nil {
		return core.Account{}, fmt.Errorf("account %s balance: %w", a.ID, err)
	}
	a.Type = core.AccountType(typ)
	a.Balance = bal
	return a, nil
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", kind, err)
}

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	created, err := scanAccount(r.db.QueryRow(ctx,
		`INSERT INTO accounts (id, name, type, description, balance, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+accountColumns,
		a.ID, a.Name, string(a.Type), a.Description, a.Balance.String(), a.IsActive))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	slog.InfoContext(ctx, "Account saved to Postgres", "id", created.ID, "name", created.Name)
	return created, nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return core.Account{}, notFound("account", id, err)
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateAccount(ctx context.Context, id string, p core.AccountPatch) (core.Account, error) {
	var updated core.Account
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanAccount(tx.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound("account", id, err)
		}
		next := p.Apply(current)
		if err := next.Validate(); err != nil {
			return err
		}
		updated, err = scanAccount(tx.QueryRow(ctx,
			`UPDATE accounts SET name = $2, type = $3, description = $4, balance = $5, is_active = $6, updated_at = now()
			 WHERE id = $1
			 RETURNING `+accountColumns,
			id, next.Name, string(next.Type), next.Description, next.Balance.String(), next.IsActive))
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return updated, nil
}

// AdjustAccountBalance applies delta in a single statement so concurrent
// adjustments never lose updates.
func (r *Repository) AdjustAccountBalance(ctx context.Context, id string, delta core.Money) (core.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx,
		`UPDATE accounts SET balance = balance + $2::numeric, updated_at = now()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, delta.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange {
			return core.Account{}, core.NewValidationError("amount", core.ErrAmountOutOfRange)
		}
		return core.Account{}, fmt.Errorf("adjust balance: %w", err)
	}
	slog.InfoContext(ctx, "Account balance adjusted", "id", id, "delta", delta.String(), "balance", a.Balance.String())
	return a, nil
}

func (r *Repository) DeleteAccount(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, "accounts", id)
}

const transactionColumns = `id, type, status, category, amount::text, date, account_id, customer_id, work_order_id,
	description, notes, document_ref, created_at, updated_at`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t                core.Transaction
		typ, status, cat string
		amount           string
		date             time.Time
	)
	if err := row.Scan(&t.ID, &typ, &status, &cat, &amount, &date,
		&t.AccountID, &t.CustomerID, &t.WorkOrderID,
		&t.Description, &t.Notes, &t.DocumentRef, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return core.Transaction{}, err
	}
	amt, err := core.ParseMoney(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	t.Type = core.TransactionType(typ)
	t.Status = core.TransactionStatus(status)
	t.Category = core.Category(cat)
	t.Amount = amt
	t.Date = core.DateOf(date)
	return t, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	created, err := scanTransaction(r.db.QueryRow(ctx,
		`INSERT INTO transactions (id, type, status, category, amount, date, account_id, customer_id, work_order_id,
		 description, notes, document_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+transactionColumns,
		t.ID, string(t.Type), string(t.Status), string(t.Category), t.Amount.String(), t.Date.String(),
		t.AccountID, t.CustomerID, t.WorkOrderID, t.Description, t.Notes, t.DocumentRef))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to Postgres",
		"id", created.ID,
		"type", created.Type,
		"amount", created.Amount.String(),
		"date", created.Date.String())
	return created, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return core.Transaction{}, notFound("transaction", id, err)
	}
	return t, nil
}

// whereBuilder accumulates conditions with numbered placeholders.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, cond)
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (r *Repository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	var w whereBuilder
	if f.Type != "" {
		w.add("type = ?", string(f.Type))
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY(?)", statuses)
	}
	if f.Category != "" {
		w.add("category = ?", string(f.Category))
	}
	if f.CustomerID != "" {
		w.add("customer_id = ?", f.CustomerID)
	}
	if f.WorkOrderID != "" {
		w.add("work_order_id = ?", f.WorkOrderID)
	}
	if f.Range != nil {
		w.add("date BETWEEN ?::date AND ?::date", f.Range.Start.String(), f.Range.End.String())
	}

	rows, err := r.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions`+w.String()+` ORDER BY seq`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanTransaction(tx.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound("transaction", id, err)
		}
		next := p.Apply(current)
		if err := next.Validate(); err != nil {
			return err
		}
		updated, err = scanTransaction(tx.QueryRow(ctx,
			`UPDATE transactions SET type = $2, status = $3, category = $4, amount = $5, date = $6,
			 account_id = $7, customer_id = $8, work_order_id = $9, description = $10, notes = $11,
			 document_ref = $12, updated_at = now()
			 WHERE id = $1
			 RETURNING `+transactionColumns,
			id, string(next.Type), string(next.Status), string(next.Category), next.Amount.String(), next.Date.String(),
			next.AccountID, next.CustomerID, next.WorkOrderID, next.Description, next.Notes, next.DocumentRef))
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, "transactions", id)
}

const budgetColumns = `id, name, category, amount::text, start_date, end_date, description, created_at, updated_at`

func scanBudget(row pgx.Row) (core.Budget, error) {
	var (
		b          core.Budget
		cat        string
		amount     string
		start, end time.Time
	)
	if err := row.Scan(&b.ID, &b.Name, &cat, &amount, &start, &end, &b.Description, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return core.Budget{}, err
	}
	amt, err := core.ParseMoney(amount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %s amount: %w", b.ID, err)
	}
	b.Category = core.Category(cat)
	b.Amount = amt
	b.StartDate = core.DateOf(start)
	b.EndDate = core.DateOf(end)
	return b, nil
}

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	created, err := scanBudget(r.db.QueryRow(ctx,
		`INSERT INTO budgets (id, name, category, amount, start_date, end_date, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+budgetColumns,
		b.ID, b.Name, string(b.Category), b.Amount.String(), b.StartDate.String(), b.EndDate.String(), b.Description))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return created, nil
}

func (r *Repository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = $1`, id))
	if err != nil {
		return core.Budget{}, notFound("budget", id, err)
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, f core.BudgetFilter) ([]core.Budget, error) {
	var w whereBuilder
	if f.Category != "" {
		w.add("category = ?", string(f.Category))
	}
	if f.Range != nil {
		// Closed intervals overlap when each starts before the other ends.
		w.add("start_date <= ?::date AND end_date >= ?::date", f.Range.End.String(), f.Range.Start.String())
	}

	rows, err := r.db.Query(ctx, `SELECT `+budgetColumns+` FROM budgets`+w.String()+` ORDER BY seq`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateBudget(ctx context.Context, id string, p core.BudgetPatch) (core.Budget, error) {
	var updated core.Budget
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanBudget(tx.QueryRow(ctx,
			`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound("budget", id, err)
		}
		next := p.Apply(current)
		if err := next.Validate(); err != nil {
			return err
		}
		updated, err = scanBudget(tx.QueryRow(ctx,
			`UPDATE budgets SET name = $2, category = $3, amount = $4, start_date = $5, end_date = $6,
			 description = $7, updated_at = now()
			 WHERE id = $1
			 RETURNING `+budgetColumns,
			id, next.Name, string(next.Category), next.Amount.String(), next.StartDate.String(), next.EndDate.String(),
			next.Description))
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	return updated, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, "budgets", id)
}

func (r *Repository) deleteByID(ctx context.Context, table, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}
