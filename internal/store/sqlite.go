package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mwasalski/financial-app/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLiteStore keeps the snapshot in normalized tables. Each collection has
// a position column so record order survives a round trip.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	now    Clock
	schema uint
}

// OpenSQLite opens or creates the database at dbPath and applies pending
// migrations.
func OpenSQLite(dbPath string, now Clock) (*SQLiteStore, error) {
	if now == nil {
		now = model.CurrentMonth
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	schema, err := RunMigrations(dbPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	return &SQLiteStore{db: db, path: dbPath, now: now, schema: schema}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the snapshot. An empty database yields the default snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (model.RecordSet, LoadInfo, error) {
	rs, info, err := s.load(ctx)
	info.Schema = s.schema
	return rs, info, err
}

func (s *SQLiteStore) load(ctx context.Context) (model.RecordSet, LoadInfo, error) {
	var (
		rs      model.RecordSet
		modeStr string
	)
	err := s.db.QueryRowContext(ctx, `SELECT mode, employment_net, zus, tax_rate, hourly_rate
		FROM settings WHERE id = 1`).Scan(
		&modeStr, &rs.EmploymentNet,
		&rs.SelfEmployed.Zus, &rs.SelfEmployed.TaxRate, &rs.SelfEmployed.HourlyRate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		out, info := fallback(s.now, "")
		return out, info, nil
	}
	if err != nil {
		return model.RecordSet{}, LoadInfo{}, fmt.Errorf("loading settings: %w", err)
	}

	mode, err := model.ParseIncomeMode(modeStr)
	if err != nil {
		out, info := fallback(s.now, err.Error())
		return out, info, nil
	}
	rs.Mode = mode

	if rs.Invoices, err = s.loadInvoices(ctx); err != nil {
		return model.RecordSet{}, LoadInfo{}, err
	}
	if rs.HourlyEntries, err = s.loadHours(ctx); err != nil {
		return model.RecordSet{}, LoadInfo{}, err
	}
	if rs.Recurring, err = s.loadRecurring(ctx); err != nil {
		return model.RecordSet{}, LoadInfo{}, err
	}
	if rs.OneTime, err = s.loadOneTime(ctx); err != nil {
		return model.RecordSet{}, LoadInfo{}, err
	}

	out, info := accept(rs, SourceStored, s.now)
	return out, info, nil
}

// month parses a stored month, mapping anything unparseable to the zero
// month so the engine ignores it.
func month(s string) model.MonthKey {
	k, _ := model.ParseMonthKey(s)
	return k
}

func (s *SQLiteStore) loadInvoices(ctx context.Context) ([]model.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, label, amount, month FROM invoices ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("loading invoices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Invoice{}
	for rows.Next() {
		var inv model.Invoice
		var m string
		if err := rows.Scan(&inv.ID, &inv.Label, &inv.Amount, &m); err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		inv.Month = month(m)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadHours(ctx context.Context) ([]model.HourlyEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, month, hours FROM hourly_entries ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("loading hourly entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.HourlyEntry{}
	for rows.Next() {
		var h model.HourlyEntry
		var m string
		if err := rows.Scan(&h.ID, &m, &h.Hours); err != nil {
			return nil, fmt.Errorf("scanning hourly entry: %w", err)
		}
		h.Month = month(m)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadRecurring(ctx context.Context) ([]model.RecurringExpense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, amount, start_month, end_month
		FROM recurring_expenses ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("loading recurring expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.RecurringExpense{}
	for rows.Next() {
		var r model.RecurringExpense
		var start, end string
		if err := rows.Scan(&r.ID, &r.Name, &r.Amount, &start, &end); err != nil {
			return nil, fmt.Errorf("scanning recurring expense: %w", err)
		}
		r.StartMonth, r.EndMonth = month(start), month(end)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadOneTime(ctx context.Context) ([]model.OneTimeExpense, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, amount, month FROM one_time_expenses ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("loading one-time expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.OneTimeExpense{}
	for rows.Next() {
		var o model.OneTimeExpense
		var m string
		if err := rows.Scan(&o.ID, &o.Name, &o.Amount, &m); err != nil {
			return nil, fmt.Errorf("scanning one-time expense: %w", err)
		}
		o.Month = month(m)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Save replaces the stored snapshot in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, rs model.RecordSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"invoices", "hourly_entries", "recurring_expenses", "one_time_expenses"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO settings
		(id, mode, employment_net, zus, tax_rate, hourly_rate, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)`,
		string(rs.Mode), rs.EmploymentNet,
		rs.SelfEmployed.Zus, rs.SelfEmployed.TaxRate, rs.SelfEmployed.HourlyRate,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	for i, inv := range rs.Invoices {
		if _, err := tx.ExecContext(ctx, `INSERT INTO invoices (id, position, label, amount, month)
			VALUES (?, ?, ?, ?, ?)`, inv.ID, i, inv.Label, inv.Amount, inv.Month.String()); err != nil {
			return fmt.Errorf("saving invoice %s: %w", inv.ID, err)
		}
	}
	for i, h := range rs.HourlyEntries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO hourly_entries (id, position, month, hours)
			VALUES (?, ?, ?, ?)`, h.ID, i, h.Month.String(), h.Hours); err != nil {
			return fmt.Errorf("saving hourly entry %s: %w", h.ID, err)
		}
	}
	for i, r := range rs.Recurring {
		if _, err := tx.ExecContext(ctx, `INSERT INTO recurring_expenses (id, position, name, amount, start_month, end_month)
			VALUES (?, ?, ?, ?, ?, ?)`, r.ID, i, r.Name, r.Amount, r.StartMonth.String(), r.EndMonth.String()); err != nil {
			return fmt.Errorf("saving recurring expense %s: %w", r.ID, err)
		}
	}
	for i, o := range rs.OneTime {
		if _, err := tx.ExecContext(ctx, `INSERT INTO one_time_expenses (id, position, name, amount, month)
			VALUES (?, ?, ?, ?, ?)`, o.ID, i, o.Name, o.Amount, o.Month.String()); err != nil {
			return fmt.Errorf("saving one-time expense %s: %w", o.ID, err)
		}
	}

	return tx.Commit()
}
