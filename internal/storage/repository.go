package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bizops/internal/core"
	"bizops/internal/store"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var _ store.Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers, which keeps balance
	// read-modify-write free of SQLITE_BUSY upgrades.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements a readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const accountColumns = `id, name, type, description, balance, is_active, created_at, updated_at`

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a                    core.Account
		balance              string
		active               int
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Description, &balance, &active, &createdAt, &updatedAt); err != nil {
		return core.Account{}, err
	}
	bal, err := core.ParseMoney(balance)
	if err != nil {
		return core.Account{}, fmt.Errorf("account %s balance: %w", a.ID, err)
	}
	a.Balance = bal
	a.IsActive = active != 0
	a.CreatedAt = parseTimestamp(createdAt)
	a.UpdatedAt = parseTimestamp(updatedAt)
	return a, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	ts := r.timestamp()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Type), a.Description, a.Balance.String(), boolToInt(a.IsActive), ts, ts)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}

	slog.InfoContext(ctx, "Account saved to SQLite", "id", a.ID, "name", a.Name, "type", a.Type)
	return r.GetAccount(ctx, a.ID)
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY rowid`)
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

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, id string, p core.AccountPatch) (core.Account, error) {
	var updated core.Account
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanAccount(tx.QueryRowContext(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		ts := r.timestamp()
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, type = ?, description = ?, balance = ?, is_active = ?, updated_at = ? WHERE id = ?`,
			updated.Name, string(updated.Type), updated.Description, updated.Balance.String(), boolToInt(updated.IsActive), ts, id)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		updated.UpdatedAt = parseTimestamp(ts)
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) AdjustAccountBalance(ctx context.Context, id string, delta core.Money) (core.Account, error) {
	var updated core.Account
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanAccount(tx.QueryRowContext(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}
		updated = current
		updated.Balance = current.Balance.Add(delta)
		if err := updated.Balance.Validate(); err != nil {
			return core.NewValidationError("amount", err)
		}
		ts := r.timestamp()
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
			updated.Balance.String(), ts, id); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		updated.UpdatedAt = parseTimestamp(ts)
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account balance adjusted", "id", id, "delta", delta.String(), "balance", updated.Balance.String())
	return updated, nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, "accounts", id)
}

const transactionColumns = `id, type, status, category, amount, date, account_id, customer_id, work_order_id, description, notes, document_ref, created_at, updated_at`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                               core.Transaction
		amount, date                    string
		accountID, customerID, workOrID sql.NullString
		createdAt, updatedAt            string
	)
	if err := row.Scan(&t.ID, &t.Type, &t.Status, &t.Category, &amount, &date,
		&accountID, &customerID, &workOrID, &t.Description, &t.Notes, &t.DocumentRef,
		&createdAt, &updatedAt); err != nil {
		return core.Transaction{}, err
	}
	amt, err := core.ParseMoney(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date: %w", t.ID, err)
	}
	t.Amount = amt
	t.Date = d
	t.AccountID = fromNull(accountID)
	t.CustomerID = fromNull(customerID)
	t.WorkOrderID = fromNull(workOrID)
	t.CreatedAt = parseTimestamp(createdAt)
	t.UpdatedAt = parseTimestamp(updatedAt)
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	ts := r.timestamp()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), string(t.Status), string(t.Category), t.Amount.String(), t.Date.String(),
		toNull(t.AccountID), toNull(t.CustomerID), toNull(t.WorkOrderID),
		t.Description, t.Notes, t.DocumentRef, ts, ts)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"status", t.Status,
		"amount", t.Amount.String(),
		"date", t.Date.String())

	t.CreatedAt = parseTimestamp(ts)
	t.UpdatedAt = t.CreatedAt
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// transactionWhere renders f as a WHERE clause with positional arguments.
func transactionWhere(f core.TransactionFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(s))
		}
		clauses = append(clauses, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.CustomerID != "" {
		clauses = append(clauses, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.WorkOrderID != "" {
		clauses = append(clauses, "work_order_id = ?")
		args = append(args, f.WorkOrderID)
	}
	if f.Range != nil {
		clauses = append(clauses, "date >= ? AND date <= ?")
		args = append(args, f.Range.Start.String(), f.Range.End.String())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	where, args := transactionWhere(f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions`+where+` ORDER BY rowid`, args...)
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

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		ts := r.timestamp()
		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET type = ?, status = ?, category = ?, amount = ?, date = ?,
			 account_id = ?, customer_id = ?, work_order_id = ?, description = ?, notes = ?, document_ref = ?, updated_at = ?
			 WHERE id = ?`,
			string(updated.Type), string(updated.Status), string(updated.Category), updated.Amount.String(), updated.Date.String(),
			toNull(updated.AccountID), toNull(updated.CustomerID), toNull(updated.WorkOrderID),
			updated.Description, updated.Notes, updated.DocumentRef, ts, id)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		updated.UpdatedAt = parseTimestamp(ts)
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, "transactions", id)
}

const budgetColumns = `id, name, category, amount, start_date, end_date, description, created_at, updated_at`

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b                    core.Budget
		amount, start, end   string
		createdAt, updatedAt string
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Category, &amount, &start, &end, &b.Description, &createdAt, &updatedAt); err != nil {
		return core.Budget{}, err
	}
	var err error
	if b.Amount, err = core.ParseMoney(amount); err != nil {
		return core.Budget{}, fmt.Errorf("budget %s amount: %w", b.ID, err)
	}
	if b.StartDate, err = core.ParseDate(start); err != nil {
		return core.Budget{}, fmt.Errorf("budget %s start date: %w", b.ID, err)
	}
	if b.EndDate, err = core.ParseDate(end); err != nil {
		return core.Budget{}, fmt.Errorf("budget %s end date: %w", b.ID, err)
	}
	b.CreatedAt = parseTimestamp(createdAt)
	b.UpdatedAt = parseTimestamp(updatedAt)
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	ts := r.timestamp()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, string(b.Category), b.Amount.String(), b.StartDate.String(), b.EndDate.String(), b.Description, ts, ts)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	b.CreatedAt = parseTimestamp(ts)
	b.UpdatedAt = b.CreatedAt
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, f core.BudgetFilter) ([]core.Budget, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Range != nil {
		start, end := f.Range.Start.String(), f.Range.End.String()
		clauses = append(clauses,
			"((start_date BETWEEN ? AND ?) OR (end_date BETWEEN ? AND ?) OR (start_date <= ? AND end_date >= ?))")
		args = append(args, start, end, start, end, start, end)
	}
	query := `SELECT ` + budgetColumns + ` FROM budgets`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY rowid`, args...)
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

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, id string, p core.BudgetPatch) (core.Budget, error) {
	var updated core.Budget
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanBudget(tx.QueryRowContext(ctx,
			`SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get budget: %w", err)
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		ts := r.timestamp()
		_, err = tx.ExecContext(ctx,
			`UPDATE budgets SET name = ?, category = ?, amount = ?, start_date = ?, end_date = ?, description = ?, updated_at = ? WHERE id = ?`,
			updated.Name, string(updated.Category), updated.Amount.String(), updated.StartDate.String(), updated.EndDate.String(),
			updated.Description, ts, id)
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		updated.UpdatedAt = parseTimestamp(ts)
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	return updated, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, "budgets", id)
}

func (r *SQLiteRepository) deleteByID(ctx context.Context, table, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
