package learning

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SampleKind names a model a sample trains.
type SampleKind string

// Sample kinds, as stored in training_samples.kind.
const (
	SampleFan    SampleKind = "fan"
	SampleIntent SampleKind = "intent"
)

// Sample is one training example.
type Sample struct {
	Kind SampleKind

	// Fan samples.
	Temp, Hum     float64
	LEDOn, Motion bool
	Fan           int

	// Intent samples.
	Text, Label string

	CreatedAt time.Time
}

// SampleStore persists samples so the models can be rebuilt at start.
type SampleStore interface {
	Save(ctx context.Context, s Sample) error
	Load(ctx context.Context) ([]Sample, error)
}

// SQLiteSampleStore implements SampleStore over the training_samples table.
type SQLiteSampleStore struct {
	db *sql.DB
}

// NewSQLiteSampleStore creates a store over an open SQLite connection.
func NewSQLiteSampleStore(db *sql.DB) *SQLiteSampleStore {
	return &SQLiteSampleStore{db: db}
}

// Save appends a sample.
func (s *SQLiteSampleStore) Save(ctx context.Context, smp Sample) error {
	at := smp.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}

	var err error
	switch smp.Kind {
	case SampleFan:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO training_samples (kind, temp, hum, led_on, motion, fan_speed, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(smp.Kind), smp.Temp, smp.Hum, boolToInt(smp.LEDOn), boolToInt(smp.Motion), smp.Fan, at.UnixMilli())
	case SampleIntent:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO training_samples (kind, text, label, created_at) VALUES (?, ?, ?, ?)`,
			string(smp.Kind), smp.Text, smp.Label, at.UnixMilli())
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSample, smp.Kind)
	}
	if err != nil {
		return fmt.Errorf("inserting training sample: %w", err)
	}
	return nil
}

// Load returns all samples in insertion order.
func (s *SQLiteSampleStore) Load(ctx context.Context) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, temp, hum, led_on, motion, fan_speed, text, label, created_at
		 FROM training_samples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying training samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			kind          string
			temp, hum     sql.NullFloat64
			ledOn, motion sql.NullInt64
			fan           sql.NullInt64
			text, label   sql.NullString
			createdAt     int64
		)
		if err := rows.Scan(&kind, &temp, &hum, &ledOn, &motion, &fan, &text, &label, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning training sample: %w", err)
		}
		out = append(out, Sample{
			Kind:      SampleKind(kind),
			Temp:      temp.Float64,
			Hum:       hum.Float64,
			LEDOn:     ledOn.Int64 != 0,
			Motion:    motion.Int64 != 0,
			Fan:       int(fan.Int64),
			Text:      text.String,
			Label:     label.String,
			CreatedAt: time.UnixMilli(createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating training samples: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
