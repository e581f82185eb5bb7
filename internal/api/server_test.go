package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/vesta-core/internal/device"
	"github.com/nerrad567/vesta-core/internal/infrastructure/config"
	"github.com/nerrad567/vesta-core/internal/infrastructure/logging"
	"github.com/nerrad567/vesta-core/internal/intent"
	"github.com/nerrad567/vesta-core/internal/learning"
	"github.com/nerrad567/vesta-core/internal/records"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

type discardQueue struct{}

func (discardQueue) Enqueue(device.Command) {}

type capturedEvent struct {
	name    string
	payload any
}

type recordingEvents struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (r *recordingEvents) PublishEvent(name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, capturedEvent{name, payload})
}

func (r *recordingEvents) named(name string) []capturedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []capturedEvent
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	srv    *Server
	store  *device.Store
	events *recordingEvents
}

// testServer creates a Server over a real store, resolver and in-memory
// action history.
func testServer(t *testing.T, secret string) *testEnv {
	t.Helper()

	store := device.NewStore()
	history := records.NewHistoryRepository(setupTestDB(t))
	resolver, err := intent.NewResolver(intent.Options{
		Store:    store,
		Queue:    discardQueue{},
		Recorder: records.NewRecorder(history),
	})
	if err != nil {
		t.Fatalf("NewResolver() error: %v", err)
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	events := &recordingEvents{}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize:    8192,
			PingInterval:      30,
			PongTimeout:       10,
			HeartbeatInterval: 15,
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: secret, AccessTokenTTL: 15},
		},
		Logger:      log,
		Store:       store,
		Resolver:    resolver,
		Interpreter: intent.NewInterpreter(intent.InterpreterOptions{}),
		History:     history,
		Predictor:   learning.NewBrain(learning.Options{}),
		Events:      events,
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.hub.Run(ctx)

	return &testEnv{srv: srv, store: store, events: events}
}

// setupTestDB creates an in-memory SQLite database with the action_history table.
func setupTestDB(t *testing.T) *sql.DB {
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

	t.Cleanup(func() { db.Close() })
	return db
}

func (e *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return resp
}

// ─── Basic Endpoints ───────────────────────────────────────────────

func TestPing(t *testing.T) {
	env := testServer(t, "")
	if w := env.do(t, http.MethodGet, "/_ping", ""); w.Code != http.StatusNoContent {
		t.Errorf("ping status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestHealth(t *testing.T) {
	env := testServer(t, "")
	w := env.do(t, http.MethodGet, "/api/v1/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	resp := decode(t, w)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("response = %v", resp)
	}
}

func TestMetrics(t *testing.T) {
	env := testServer(t, "")
	w := env.do(t, http.MethodGet, "/api/v1/metrics", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp["version"] != "test" {
		t.Errorf("version = %v", resp["version"])
	}
	if _, ok := resp["mqtt"]; ok {
		t.Error("mqtt section should be omitted without a client")
	}
}

func TestGetState(t *testing.T) {
	env := testServer(t, "")
	w := env.do(t, http.MethodGet, "/api/v1/state", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp["voice_active"] != false {
		t.Errorf("voice_active = %v, want false", resp["voice_active"])
	}
	if resp["led_mode"] != "auto" || resp["fan_mode"] != "auto" {
		t.Errorf("modes = %v/%v, want auto/auto", resp["led_mode"], resp["fan_mode"])
	}
}

// ─── Middleware ────────────────────────────────────────────────────

func TestRequestID(t *testing.T) {
	env := testServer(t, "")

	if w := env.do(t, http.MethodGet, "/api/v1/health", ""); w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
	w := env.do(t, http.MethodGet, "/api/v1/health", "", "X-Request-ID", "client-123")
	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := testServer(t, "")
	w := env.do(t, http.MethodOptions, "/api/v1/command", "", "Origin", "http://localhost:3000")

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q", got)
	}
}

func TestNotFound(t *testing.T) {
	env := testServer(t, "")
	if w := env.do(t, http.MethodGet, "/api/v1/nonexistent", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDashboardMount(t *testing.T) {
	env := testServer(t, "")
	env.srv.dashboard = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("dashboard"))
	})

	tests := []struct {
		path      string
		dashboard bool
	}{
		{"/", true},
		{"/app.js", true},
		{"/api/v1/state", false},
		{"/api/v1/nonexistent", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, "")
			if got := w.Body.String() == "dashboard"; got != tt.dashboard {
				t.Errorf("GET %s served by dashboard = %v, want %v (status %d)", tt.path, got, tt.dashboard, w.Code)
			}
		})
	}
}

// ─── Commands and Intents ──────────────────────────────────────────

func TestCommand_Validation(t *testing.T) {
	env := testServer(t, "")

	tests := []struct {
		name string
		body string
	}{
		{"missing cmd", `{}`},
		{"blank cmd", `{"cmd":"  "}`},
		{"bad json", `{cmd`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, "/api/v1/command", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestCommand_AppliesAndAcknowledges(t *testing.T) {
	env := testServer(t, "")
	w := env.do(t, http.MethodPost, "/api/v1/command", `{"cmd":"FAN_PWM:999"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["outcome"] != "applied" || resp["command"] != "FAN_PWM:255" {
		t.Errorf("response = %v", resp)
	}

	st := env.store.Snapshot()
	if st.FanSpeed != 255 || st.FanMode != device.ModeManual {
		t.Errorf("fan = %d/%s, want 255/manual", st.FanSpeed, st.FanMode)
	}

	acks := env.events.named(intent.EventActionAck)
	if len(acks) != 1 {
		t.Fatalf("acks = %d, want 1", len(acks))
	}
	if ack := acks[0].payload.(intent.ActionAck); ack.Message != "Dashboard command: FAN_PWM:999" {
		t.Errorf("ack message = %q", ack.Message)
	}
}

func TestIntent(t *testing.T) {
	env := testServer(t, "")

	w := env.do(t, http.MethodPost, "/api/v1/intents", `{"intent":"LED_ON","text":"turn light on","source":"voice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode(t, w)["outcome"]; got != "gated" {
		t.Errorf("outcome = %v, want gated", got)
	}

	w = env.do(t, http.MethodPost, "/api/v1/intents", `{"intent":"LED_ON"}`)
	if got := decode(t, w)["outcome"]; got != "applied" {
		t.Errorf("outcome without source = %v, want applied", got)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/intents", `{"intent":"LED_ON","source":"cloud"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown source status = %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/intents", `{"text":"hi"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing intent status = %d, want 400", w.Code)
	}
}

func TestTranscript_WakesVoice(t *testing.T) {
	env := testServer(t, "")

	w := env.do(t, http.MethodPost, "/api/v1/voice/transcripts", `{"text":"hey vista"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["intent"] != intent.Wake || resp["outcome"] != "woke" {
		t.Errorf("response = %v", resp)
	}

	if got := decode(t, env.do(t, http.MethodGet, "/api/v1/state", ""))["voice_active"]; got != true {
		t.Errorf("voice_active = %v, want true", got)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/voice/transcripts", `{"text":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", w.Code)
	}
}

// ─── History and Predictions ───────────────────────────────────────

func TestListActions(t *testing.T) {
	env := testServer(t, "")
	env.do(t, http.MethodPost, "/api/v1/command", `{"cmd":"LED_ON"}`)
	env.do(t, http.MethodPost, "/api/v1/command", `{"cmd":"FAN_OFF"}`)

	w := env.do(t, http.MethodGet, "/api/v1/actions?limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["count"] != float64(1) {
		t.Errorf("count = %v, want 1", resp["count"])
	}

	if w := env.do(t, http.MethodGet, "/api/v1/actions?limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}
}

func TestPredictFan(t *testing.T) {
	env := testServer(t, "")

	if w := env.do(t, http.MethodGet, "/api/v1/predictions/fan", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status without readings = %d, want 503", w.Code)
	}

	temp, hum := 28.0, 55.0
	env.store.ApplyFrame(device.Frame{Temperature: &temp, Humidity: &hum})

	w := env.do(t, http.MethodGet, "/api/v1/predictions/fan", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	fan := decode(t, w)["fan"].(float64)
	if fan < 0 || fan > 255 {
		t.Errorf("fan = %v, out of range", fan)
	}
}

func TestPredictIntent(t *testing.T) {
	env := testServer(t, "")
	w := env.do(t, http.MethodPost, "/api/v1/predictions/intent", `{"text":"turn fan off"}`)

	resp := decode(t, w)
	if resp["intent"] != "FAN_OFF" || resp["known"] != true {
		t.Errorf("response = %v", resp)
	}
}

// ─── Authentication ────────────────────────────────────────────────

func TestAuth_RequiredForWrites(t *testing.T) {
	env := testServer(t, testSecret)

	if w := env.do(t, http.MethodPost, "/api/v1/command", `{"cmd":"LED_ON"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	wrong, err := IssueToken("another-secret-that-is-also-32-chars!!", "dash", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/command", `{"cmd":"LED_ON"}`, "Authorization", "Bearer "+wrong); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret status = %d, want 401", w.Code)
	}

	token, err := IssueToken(testSecret, "dash", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/command", `{"cmd":"LED_ON"}`, "Authorization", "Bearer "+token); w.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w.Code)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/state", ""); w.Code != http.StatusOK {
		t.Errorf("state read status = %d, want 200 without token", w.Code)
	}
}

func TestValidateToken(t *testing.T) {
	token, err := IssueToken(testSecret, "cli", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	sub, err := ValidateToken(testSecret, token)
	if err != nil || sub != "cli" {
		t.Errorf("ValidateToken() = %q, %v; want cli", sub, err)
	}
	if _, err := ValidateToken(testSecret, ""); err != ErrMissingToken {
		t.Errorf("empty token error = %v, want ErrMissingToken", err)
	}
	if _, err := ValidateToken(testSecret, "not.a.jwt"); err == nil {
		t.Error("garbage token accepted")
	}
	if _, err := IssueToken("", "cli", time.Minute); err == nil {
		t.Error("IssueToken without secret should fail")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"query", "", "xyz", "xyz"},
		{"header wins", "Bearer abc", "xyz", "abc"},
		{"wrong scheme", "Basic abc", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/v1/ws"
			if tt.query != "" {
				path += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := tokenFromRequest(req); got != tt.want {
				t.Errorf("tokenFromRequest() = %q, want %q", got, tt.want)
			}
		})
	}
}
