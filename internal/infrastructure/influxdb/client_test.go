package influxdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/vesta-core/internal/infrastructure/config"
	"github.com/nerrad567/vesta-core/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "vesta-dev-token",
		Org:           "vesta",
		Bucket:        "telemetry",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectOrSkip connects to the local InfluxDB or skips the test.
func connectOrSkip(t *testing.T, cfg config.InfluxDBConfig) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Skipf("InfluxDB not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNilClient(t *testing.T) {
	var client *influxdb.Client

	if client.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() on nil client error = %v, want ErrNotConnected", err)
	}
	// Writes on a nil client are dropped.
	client.WriteSensorReading("home", map[string]any{"temp": 21.0}, time.Now())
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	client := connectOrSkip(t, cfg)
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect() with default batch settings")
	}
}

func TestHealthCheck(t *testing.T) {
	client := connectOrSkip(t, testConfig())

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWriteAndFlush(t *testing.T) {
	client := connectOrSkip(t, testConfig())

	var (
		mu       sync.Mutex
		writeErr error
	)
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	now := time.Now()
	client.WriteSensorReading("home-test", map[string]any{"temp": 22.1, "hum": 45.0, "pir": true}, now)
	client.WriteSensorReading("home-test", nil, now)
	client.WriteActuation("home-test", "dashboard", "FAN_ON", false, 255, now)
	client.WritePoint("vesta_test", map[string]string{"k": "v"}, map[string]any{"value": 1})
	client.Flush()

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		t.Errorf("async write error = %v", writeErr)
	}
}

func TestClose(t *testing.T) {
	client := connectOrSkip(t, testConfig())

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	// Flush after Close is a no-op.
	client.Flush()
}
