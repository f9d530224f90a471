package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/trigger"
)

// TriggerRepository stores trigger records in PostgreSQL. Implements
// trigger.Store.
type TriggerRepository struct {
	db *pgxpool.Pool
}

var _ trigger.Store = (*TriggerRepository)(nil)

// NewTriggerRepository creates a new TriggerRepository.
func NewTriggerRepository(db *pgxpool.Pool) *TriggerRepository {
	return &TriggerRepository{db: db}
}

// Load reads the record saved for slot.
// Returns trigger.ErrNoRecord if the slot was never saved.
func (r *TriggerRepository) Load(ctx context.Context, slot string) (trigger.Record, error) {
	rec := trigger.Record{Rules: make(map[string]trigger.RuleState)}

	err := r.db.QueryRow(ctx,
		`SELECT session_id, saved_at FROM trigger_sessions WHERE slot = $1`, slot,
	).Scan(&rec.SessionID, &rec.SavedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, trigger.ErrNoRecord
		}
		return rec, fmt.Errorf("querying trigger session %q: %w", slot, err)
	}
	rec.SavedAt = rec.SavedAt.UTC()

	rows, err := r.db.Query(ctx,
		`SELECT rule_name, fired, occurrences, firings FROM trigger_rules WHERE slot = $1`, slot)
	if err != nil {
		return rec, fmt.Errorf("querying trigger rules for %q: %w", slot, err)
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
	rows.Close()
	if err := rows.Err(); err != nil {
		return rec, fmt.Errorf("iterating trigger rule rows: %w", err)
	}

	rows, err = r.db.Query(ctx,
		`SELECT item_id, count FROM spawned_items WHERE slot = $1 ORDER BY item_id`, slot)
	if err != nil {
		return rec, fmt.Errorf("querying spawned items for %q: %w", slot, err)
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

// Save stores rec under slot.
// Performs full replace: upserts the session row, deletes rule and item rows,
// then inserts the new ones.
func (r *TriggerRepository) Save(ctx context.Context, slot string, rec trigger.Record) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "slot", slot, "error", err)
		}
	}()

	if err := r.SaveTx(ctx, tx, slot, rec); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveTx stores rec within an existing transaction.
func (r *TriggerRepository) SaveTx(ctx context.Context, tx pgx.Tx, slot string, rec trigger.Record) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO trigger_sessions (slot, session_id, saved_at) VALUES ($1, $2, $3)
		 ON CONFLICT (slot) DO UPDATE SET session_id = EXCLUDED.session_id, saved_at = EXCLUDED.saved_at`,
		slot, rec.SessionID, rec.SavedAt.UTC(),
	); err != nil {
		return fmt.Errorf("upserting trigger session %q: %w", slot, err)
	}

	// Удаляем старое состояние слота
	if _, err := tx.Exec(ctx, `DELETE FROM trigger_rules WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("deleting trigger rules for %q: %w", slot, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM spawned_items WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("deleting spawned items for %q: %w", slot, err)
	}

	if len(rec.Rules) > 0 {
		rows := make([][]any, 0, len(rec.Rules))
		for name, st := range rec.Rules {
			rows = append(rows, []any{slot, name, st.Fired, int32(st.Occurrences), int32(st.Firings)})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"trigger_rules"},
			[]string{"slot", "rule_name", "fired", "occurrences", "firings"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("inserting trigger rules for %q: %w", slot, err)
		}
	}

	if len(rec.SpawnedItems) > 0 {
		counts := make(map[string]int32, len(rec.SpawnedItems))
		for _, item := range rec.SpawnedItems {
			counts[item]++
		}
		rows := make([][]any, 0, len(counts))
		for item, n := range counts {
			rows = append(rows, []any{slot, item, n})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"spawned_items"},
			[]string{"slot", "item_id", "count"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("inserting spawned items for %q: %w", slot, err)
		}
	}

	return nil
}

// Clear removes all data for slot.
func (r *TriggerRepository) Clear(ctx context.Context, slot string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM trigger_sessions WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("clearing trigger slot %q: %w", slot, err)
	}
	return nil
}
