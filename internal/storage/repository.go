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

	"fintrack/internal/core"
	"fintrack/internal/ports"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements every storage port on a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const transactionColumns = `id, type, amount_cents, description, category, date`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t     core.Transaction
		typ   string
		cents int64
		date  string
	)
	if err := s.Scan(&t.ID, &typ, &cents, &t.Description, &t.Category, &date); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Type = core.TransactionType(typ)
	t.Amount = core.Money{Cents: cents}
	t.Date = d
	return t, nil
}

func (r *SQLiteRepository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, type, amount_cents, description, category, date) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), t.Amount.Abs().Cents, t.Description, t.Category, t.Date.String())
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrConflict
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"category", t.Category,
		"date", t.Date.String())
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ports.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ClearTransactions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	slog.WarnContext(ctx, "All transactions deleted")
	return nil
}

// PendingSync returns transactions not yet exported, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE sync_status = 'pending' ORDER BY rowid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
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

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if err := r.setSyncStatus(ctx, id, "synced", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError parks a transaction so the poller stops retrying it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.setSyncStatus(ctx, id, "error", nil); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id, status string, syncedAt any) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ?, synced_at = ? WHERE id = ?`, status, syncedAt, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SQLiteRepository) LoadBudgetSettings(ctx context.Context) (core.BudgetSettings, error) {
	s := core.DefaultBudgetSettings()

	var notifType string
	err := r.db.QueryRowContext(ctx,
		`SELECT notify_at_75, notify_at_90, notify_over, notification_type FROM budget_preferences WHERE id = 1`).
		Scan(&s.NotifyAt75, &s.NotifyAt90, &s.NotifyOverBudget, &notifType)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first run: nothing saved yet
		return s, nil
	case err != nil:
		return core.BudgetSettings{}, fmt.Errorf("get budget preferences: %w", err)
	}
	s.NotificationType = core.NotificationType(notifType)

	rows, err := r.db.QueryContext(ctx, `SELECT id, category, limit_cents, enabled FROM budgets ORDER BY position`)
	if err != nil {
		return core.BudgetSettings{}, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	s.Budgets = []core.Budget{}
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.Limit.Cents, &b.Enabled); err != nil {
			return core.BudgetSettings{}, fmt.Errorf("scan budget: %w", err)
		}
		s.Budgets = append(s.Budgets, b)
	}
	return s, rows.Err()
}

// SaveBudgetSettings replaces the stored budget list and preferences.
func (r *SQLiteRepository) SaveBudgetSettings(ctx context.Context, s core.BudgetSettings) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budgets`); err != nil {
		return fmt.Errorf("clear budgets: %w", err)
	}
	for i, b := range s.Budgets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, category, limit_cents, enabled, position) VALUES (?, ?, ?, ?, ?)`,
			b.ID, b.Category, b.Limit.Cents, b.Enabled, i); err != nil {
			if isUniqueViolation(err) {
				return ports.ErrConflict
			}
			return fmt.Errorf("insert budget %s: %w", b.Category, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO budget_preferences (id, notify_at_75, notify_at_90, notify_over, notification_type)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			notify_at_75 = excluded.notify_at_75,
			notify_at_90 = excluded.notify_at_90,
			notify_over = excluded.notify_over,
			notification_type = excluded.notification_type`,
		s.NotifyAt75, s.NotifyAt90, s.NotifyOverBudget, string(s.NotificationType)); err != nil {
		return fmt.Errorf("save budget preferences: %w", err)
	}
	return tx.Commit()
}

const billColumns = `id, name, amount_cents, due_date, frequency, category, paid, anchor_day`

func scanBill(s rowScanner) (core.Bill, error) {
	var (
		b    core.Bill
		due  string
		freq string
	)
	if err := s.Scan(&b.ID, &b.Name, &b.Amount.Cents, &due, &freq, &b.Category, &b.Paid, &b.AnchorDay); err != nil {
		return core.Bill{}, err
	}
	d, err := core.ParseDate(due)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %s: %w", b.ID, err)
	}
	b.DueDate = d
	b.Frequency = core.BillFrequency(freq)
	return b, nil
}

func (r *SQLiteRepository) LoadBills(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+billColumns+` FROM bills ORDER BY due_date, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	out := []core.Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetBill(ctx context.Context, id string) (core.Bill, error) {
	b, err := scanBill(r.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, ports.ErrNotFound
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill by id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) SaveBill(ctx context.Context, b core.Bill) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bills (id, name, amount_cents, due_date, frequency, category, paid, anchor_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount_cents = excluded.amount_cents,
			due_date = excluded.due_date,
			frequency = excluded.frequency,
			category = excluded.category,
			paid = excluded.paid,
			anchor_day = excluded.anchor_day`,
		b.ID, b.Name, b.Amount.Cents, b.DueDate.String(), string(b.Frequency), b.Category, b.Paid, b.AnchorDay)
	if err != nil {
		return fmt.Errorf("save bill: %w", err)
	}
	return nil
}

const goalColumns = `id, name, target_cents, current_cents, monthly_cents, target_date, description`

func scanGoal(s rowScanner) (core.SavingsGoal, error) {
	var (
		g      core.SavingsGoal
		target string
	)
	if err := s.Scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&g.MonthlyContribution.Cents, &target, &g.Description); err != nil {
		return core.SavingsGoal{}, err
	}
	if err := g.TargetDate.UnmarshalText([]byte(target)); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("goal %s: %w", g.ID, err)
	}
	return g, nil
}

func (r *SQLiteRepository) LoadGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM savings_goals ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	out := []core.SavingsGoal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (core.SavingsGoal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM savings_goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, ports.ErrNotFound
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal by id: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) SaveGoal(ctx context.Context, g core.SavingsGoal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_goals (id, name, target_cents, current_cents, monthly_cents, target_date, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			target_cents = excluded.target_cents,
			current_cents = excluded.current_cents,
			monthly_cents = excluded.monthly_cents,
			target_date = excluded.target_date,
			description = excluded.description`,
		g.ID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.MonthlyContribution.Cents,
		g.TargetDate.String(), g.Description)
	if err != nil {
		return fmt.Errorf("save goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadUserSettings(ctx context.Context) (core.UserSettings, error) {
	var (
		s                          core.UserSettings
		theme, currency, dateFmt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT display_name, email, theme, currency, date_format, use_demo_data, language
		FROM user_settings WHERE id = 1`).
		Scan(&s.DisplayName, &s.Email, &theme, &currency, &dateFmt, &s.UseDemoData, &s.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultUserSettings(), nil
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get user settings: %w", err)
	}
	s.Theme = core.Theme(theme)
	s.Currency = core.Currency(currency)
	s.DateFormat = core.DateFormat(dateFmt)
	return s, nil
}

func (r *SQLiteRepository) SaveUserSettings(ctx context.Context, s core.UserSettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (id, display_name, email, theme, currency, date_format, use_demo_data, language)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			theme = excluded.theme,
			currency = excluded.currency,
			date_format = excluded.date_format,
			use_demo_data = excluded.use_demo_data,
			language = excluded.language`,
		s.DisplayName, s.Email, string(s.Theme), string(s.Currency), string(s.DateFormat), s.UseDemoData, s.Language)
	if err != nil {
		return fmt.Errorf("save user settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AddNotification(ctx context.Context, n core.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, category, threshold, percentage, spent_cents, limit_cents, channel, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Category, int(n.Threshold), n.Percentage, n.Spent.Cents, n.Limit.Cents,
		string(n.Channel), n.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, threshold, percentage, spent_cents, limit_cents, channel, created_at
		FROM notifications ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := []core.Notification{}
	for rows.Next() {
		var (
			n         core.Notification
			threshold int
			channel   string
			created   string
		)
		if err := rows.Scan(&n.ID, &n.Category, &threshold, &n.Percentage, &n.Spent.Cents,
			&n.Limit.Cents, &channel, &created); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Threshold = core.Threshold(threshold)
		n.Channel = core.NotificationType(channel)
		if n.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("notification %s: parse created_at: %w", n.ID, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u ports.UserRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (ports.UserRecord, error) {
	var (
		u       ports.UserRecord
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.UserRecord{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.UserRecord{}, fmt.Errorf("get user by email: %w", err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return ports.UserRecord{}, fmt.Errorf("user %s: parse created_at: %w", u.ID, err)
	}
	return u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// isUniqueViolation matches SQLite's constraint error text; the driver does
// not export a typed error for it.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
