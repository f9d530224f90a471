// Package sqlitestore keeps trigger records in a local SQLite database, one
// row set per save slot.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/trigger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements trigger.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("sqlite %q: %w", p, err)
		}
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("running sqlite migrations: %w", err)
	}
	for _, r := range results {
		slog.Debug("applied trigger migration", "source", r.Source.Path, "duration", r.Duration)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load implements trigger.Store.
func (s *Store) Load(ctx context.Context, slot string) (trigger.Record, error) {
	rec := trigger.Record{Rules: make(map[string]trigger.RuleState)}

	var savedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, saved_at FROM trigger_sessions WHERE slot = ?`, slot,
	).Scan(&rec.SessionID, &savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, trigger.ErrNoRecord
		}
		return rec, fmt.Errorf("querying trigger session %q: %w", slot, err)
	}
	if rec.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return rec, fmt.Errorf("parsing saved_at %q: %w", savedAt, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_name, fired, occurrences, firings FROM trigger_rules WHERE slot = ?`, slot)
	if err != nil {
		return rec, fmt.Errorf("querying trigger rules %q: %w", slot, err)
	}
	for rows.Next() {
		var (
			name string
			st   trigger.RuleState
		)
		if err := rows.Scan(&name, &st.Fired, &st.Occurrences, &st.Firings); err != nil {
			rows.Close()
			return rec, fmt.Errorf("scanning trigger rule row: %w", err)
		}
		rec.Rules[name] = st
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return rec, fmt.Errorf("iterating trigger rule rows: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT item_id, count FROM trigger_items WHERE slot = ? ORDER BY item_id`, slot)
	if err != nil {
		return rec, fmt.Errorf("querying spawned items %q: %w", slot, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item  string
			count int
		)
		if err := rows.Scan(&item, &count); err != nil {
			return rec, fmt.Errorf("scanning spawned item row: %w", err)
		}
		for range count {
			rec.SpawnedItems = append(rec.SpawnedItems, item)
		}
	}
	if err := rows.Err(); err != nil {
		return rec, fmt.Errorf("iterating spawned item rows: %w", err)
	}
	return rec, nil
}

// Save implements trigger.Store. The slot is replaced as a whole.
func (s *Store) Save(ctx context.Context, slot string, rec trigger.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("rollback failed", "slot", slot, "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trigger_sessions WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("deleting trigger slot %q: %w", slot, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO trigger_sessions (slot, session_id, saved_at) VALUES (?, ?, ?)`,
		slot, rec.SessionID, rec.SavedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting trigger session %q: %w", slot, err)
	}

	names := make([]string, 0, len(rec.Rules))
	for name := range rec.Rules {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		st := rec.Rules[name]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trigger_rules (slot, rule_name, fired, occurrences, firings) VALUES (?, ?, ?, ?, ?)`,
			slot, name, st.Fired, st.Occurrences, st.Firings,
		); err != nil {
			return fmt.Errorf("inserting trigger rule %q: %w", name, err)
		}
	}

	counts := make(map[string]int, len(rec.SpawnedItems))
	for _, item := range rec.SpawnedItems {
		counts[item]++
	}
	for item, n := range counts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trigger_items (slot, item_id, count) VALUES (?, ?, ?)`,
			slot, item, n,
		); err != nil {
			return fmt.Errorf("inserting spawned item %q: %w", item, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Clear implements trigger.Store.
func (s *Store) Clear(ctx context.Context, slot string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trigger_sessions WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("clearing trigger slot %q: %w", slot, err)
	}
	return nil
}
