package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupHistoryTestDB creates an in-memory SQLite database with the action_history table.
func setupHistoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE action_history (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			intent      TEXT NOT NULL,
			command     TEXT NOT NULL DEFAULT '',
			temp        REAL,
			hum         REAL,
			pir         INTEGER NOT NULL DEFAULT 0,
			smoke       INTEGER NOT NULL DEFAULT 0,
			led_state   INTEGER NOT NULL DEFAULT 0,
			fan_speed   INTEGER NOT NULL DEFAULT 0,
			created_at  INTEGER NOT NULL
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestHistoryRepository_WriteAndList(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := ActionRecord{ID: "a1", Source: "dashboard", Intent: "LED_ON", Command: "LED_ON", LEDOn: true}
	second := ActionRecord{
		ID: "a2", Source: "voice", Intent: "FAN_PWM:90", Command: "FAN_PWM:90",
		Temperature: floatPtr(25.5), Humidity: floatPtr(61), Motion: true, FanSpeed: 90,
	}

	if err := repo.Write(ctx, Entry{Time: base, Record: first}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := repo.Write(ctx, Entry{Time: base.Add(time.Second), Record: second}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := repo.Write(ctx, Entry{Time: base, Record: VoiceRecord{Text: "ignored"}}); err != nil {
		t.Fatalf("Write() voice error = %v", err)
	}

	entries, err := repo.ListActions(ctx, 0)
	if err != nil {
		t.Fatalf("ListActions() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	got := entries[0]
	if got.ID != "a2" {
		t.Errorf("newest entry = %s, want a2", got.ID)
	}
	if got.Temperature == nil || *got.Temperature != 25.5 || !got.Motion || got.FanSpeed != 90 {
		t.Errorf("entry = %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(time.Second)) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
	if entries[1].Temperature != nil {
		t.Error("missing temperature should scan as nil")
	}
	if !entries[1].LEDOn {
		t.Error("led_state should round-trip")
	}
}

func TestHistoryRepository_ListLimit(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := ActionRecord{ID: string(rune('a' + i)), Source: "auto", Intent: "FAN_AUTO"}
		if err := repo.Insert(ctx, rec, time.Now()); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	entries, err := repo.ListActions(ctx, 3)
	if err != nil {
		t.Fatalf("ListActions() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestHistoryRepository_RequiresID(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryTestDB(t))
	if err := repo.Insert(context.Background(), ActionRecord{}, time.Now()); err == nil {
		t.Error("expected error for missing id")
	}
}
