package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ActionEntry is a stored ActionRecord with its timestamp.
type ActionEntry struct {
	ActionRecord
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepository persists ActionRecords to the action_history table.
//
// It implements Sink and ignores other kinds.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a repository over an open SQLite connection.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Write implements Sink.
func (r *HistoryRepository) Write(ctx context.Context, e Entry) error {
	rec, ok := e.Record.(ActionRecord)
	if !ok {
		return nil
	}
	return r.Insert(ctx, rec, e.Time)
}

// Insert stores one action.
func (r *HistoryRepository) Insert(ctx context.Context, rec ActionRecord, at time.Time) error {
	if rec.ID == "" {
		return fmt.Errorf("action id is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO action_history
		 (id, source, intent, command, temp, hum, pir, smoke, led_state, fan_speed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Source,
		rec.Intent,
		rec.Command,
		nullFloat(rec.Temperature),
		nullFloat(rec.Humidity),
		boolToInt(rec.Motion),
		boolToInt(rec.Smoke),
		boolToInt(rec.LEDOn),
		rec.FanSpeed,
		at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting action history: %w", err)
	}
	return nil
}

// ListActions returns recent actions, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries to return (default 50, max 200)
func (r *HistoryRepository) ListActions(ctx context.Context, limit int) ([]ActionEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, intent, command, temp, hum, pir, smoke, led_state, fan_speed, created_at
		 FROM action_history
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying action history: %w", err)
	}
	defer rows.Close()

	entries := make([]ActionEntry, 0, limit)
	for rows.Next() {
		var (
			e                 ActionEntry
			temp, hum         sql.NullFloat64
			pir, smoke, ledOn int64
			createdAt         int64
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Intent, &e.Command, &temp, &hum,
			&pir, &smoke, &ledOn, &e.FanSpeed, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning action history: %w", err)
		}
		if temp.Valid {
			v := temp.Float64
			e.Temperature = &v
		}
		if hum.Valid {
			v := hum.Float64
			e.Humidity = &v
		}
		e.Motion = pir != 0
		e.Smoke = smoke != 0
		e.LEDOn = ledOn != 0
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action history: %w", err)
	}
	return entries, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
