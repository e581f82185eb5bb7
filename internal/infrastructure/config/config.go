package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Vesta Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Device    DeviceConfig    `yaml:"device"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Voice     VoiceConfig     `yaml:"voice"`
	Records   RecordsConfig   `yaml:"records"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Learning  LearningConfig  `yaml:"learning"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Device transport types.
const (
	TransportNone   = "none"
	TransportSerial = "serial"
	TransportTCP    = "tcp"
)

// DeviceConfig describes the link to the sensor/actuator board.
// With Transport "none" the simulator produces frames instead.
type DeviceConfig struct {
	Transport string `yaml:"transport"`

	// Port is the serial device path (e.g. "/dev/ttyACM0").
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`

	// Address is host:port for a TCP serial bridge such as ser2net.
	Address string `yaml:"address"`

	// ReadTimeout bounds each chunk read, in milliseconds.
	ReadTimeout int `yaml:"read_timeout"`

	// FrameBufferLimit caps the unframed byte buffer.
	FrameBufferLimit int `yaml:"frame_buffer_limit"`
}

// SimulatorConfig controls the synthetic sensor trace.
type SimulatorConfig struct {
	Interval  int     `yaml:"interval"` // milliseconds
	StartTemp float64 `yaml:"start_temp"`
	StartHum  float64 `yaml:"start_hum"`
}

// DispatchConfig controls the command writer.
type DispatchConfig struct {
	PollInterval int `yaml:"poll_interval"` // milliseconds
}

// VoiceConfig contains wake/sleep phrase matching settings.
type VoiceConfig struct {
	WakePhrases    []string       `yaml:"wake_phrases"`
	SleepPhrases   []string       `yaml:"sleep_phrases"`
	WakeThreshold  float64        `yaml:"wake_threshold"`
	SleepThreshold float64        `yaml:"sleep_threshold"`
	Listener       ListenerConfig `yaml:"listener"`
}

// ListenerConfig contains raw transcript interpretation settings.
type ListenerConfig struct {
	WakeWords       []string `yaml:"wake_words"`
	WakeThreshold   float64  `yaml:"wake_threshold"`
	IntentThreshold float64  `yaml:"intent_threshold"`
	ShortThreshold  float64  `yaml:"short_threshold"`
	Cooldown        int      `yaml:"cooldown"` // milliseconds
}

// RecordsConfig contains CSV log destinations.
type RecordsConfig struct {
	Dir        string `yaml:"dir"`
	SensorFile string `yaml:"sensor_file"`
	VoiceFile  string `yaml:"voice_file"`
	ActionFile string `yaml:"action_file"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// KafkaConfig contains record export settings.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic"`
	WriteTimeout int      `yaml:"write_timeout"` // seconds
}

// LearningConfig controls the on-device models.
type LearningConfig struct {
	Enabled      bool `yaml:"enabled"`
	PollInterval int  `yaml:"poll_interval"` // milliseconds
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// DashboardDir serves the dashboard from disk instead of the embedded copy.
	DashboardDir string `yaml:"dashboard_dir"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize    int `yaml:"max_message_size"`
	PingInterval      int `yaml:"ping_interval"`
	PongTimeout       int `yaml:"pong_timeout"`
	HeartbeatInterval int `yaml:"heartbeat_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
// An empty secret leaves the API unauthenticated (LAN-only deployments).
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: VESTA_SECTION_KEY
// For example: VESTA_DEVICE_PORT, VESTA_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading a file.
// Used by offline CLI commands.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "home-001",
			Name: "Vesta",
		},
		Device: DeviceConfig{
			Transport:        TransportNone,
			Port:             "/dev/ttyACM0",
			Baud:             9600,
			ReadTimeout:      1000,
			FrameBufferLimit: 4096,
		},
		Simulator: SimulatorConfig{
			Interval:  1000,
			StartTemp: 22.0,
			StartHum:  45.0,
		},
		Dispatch: DispatchConfig{
			PollInterval: 200,
		},
		Voice: VoiceConfig{
			WakePhrases: []string{
				"hey vista", "hey vesta", "hi vista", "hii vista",
				"hello vista", "hello vesta", "hello", "heavy stuff",
			},
			SleepPhrases: []string{
				"stop vista", "bye vista", "sleep", "go auto", "auto mode", "goodbye vista",
			},
			WakeThreshold:  75,
			SleepThreshold: 75,
			Listener: ListenerConfig{
				WakeWords: []string{
					"hello", "hey", "hey vesta", "vesta", "hey vista", "hi vista", "hey there",
				},
				WakeThreshold:   65,
				IntentThreshold: 70,
				ShortThreshold:  62,
				Cooldown:        600,
			},
		},
		Records: RecordsConfig{
			Dir:        "./data",
			SensorFile: "sensor_log.csv",
			VoiceFile:  "voice_log.csv",
			ActionFile: "action_log.csv",
		},
		Database: DatabaseConfig{
			Path:        "./data/vesta.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "vesta-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Kafka: KafkaConfig{
			Topic:        "vesta.records",
			WriteTimeout: 5,
		},
		Learning: LearningConfig{
			Enabled:      true,
			PollInterval: 500,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize:    8192,
			PingInterval:      30,
			PongTimeout:       10,
			HeartbeatInterval: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 720,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: VESTA_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("VESTA_DEVICE_TRANSPORT"); v != "" {
		cfg.Device.Transport = v
	}
	if v := os.Getenv("VESTA_DEVICE_PORT"); v != "" {
		cfg.Device.Port = v
	}
	if v := os.Getenv("VESTA_DEVICE_ADDRESS"); v != "" {
		cfg.Device.Address = v
	}

	// Database
	if v := os.Getenv("VESTA_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Records
	if v := os.Getenv("VESTA_RECORDS_DIR"); v != "" {
		cfg.Records.Dir = v
	}

	// MQTT
	if v := os.Getenv("VESTA_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("VESTA_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("VESTA_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("VESTA_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("VESTA_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Kafka
	if v := os.Getenv("VESTA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}

	// Security
	if v := os.Getenv("VESTA_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Device validation
	switch c.Device.Transport {
	case TransportNone:
	case TransportSerial:
		if c.Device.Port == "" {
			errs = append(errs, "device.port is required for serial transport")
		}
		if c.Device.Baud <= 0 {
			errs = append(errs, "device.baud must be positive")
		}
	case TransportTCP:
		if c.Device.Address == "" {
			errs = append(errs, "device.address is required for tcp transport")
		}
	default:
		errs = append(errs, "device.transport must be none, serial, or tcp")
	}
	if c.Device.FrameBufferLimit < 64 {
		errs = append(errs, "device.frame_buffer_limit must be at least 64")
	}

	if c.Simulator.Interval <= 0 {
		errs = append(errs, "simulator.interval must be positive")
	}
	if c.Dispatch.PollInterval <= 0 {
		errs = append(errs, "dispatch.poll_interval must be positive")
	}

	// Voice validation
	if len(c.Voice.WakePhrases) == 0 {
		errs = append(errs, "voice.wake_phrases must not be empty")
	}
	if len(c.Voice.SleepPhrases) == 0 {
		errs = append(errs, "voice.sleep_phrases must not be empty")
	}
	thresholds := []struct {
		name  string
		value float64
	}{
		{"voice.wake_threshold", c.Voice.WakeThreshold},
		{"voice.sleep_threshold", c.Voice.SleepThreshold},
		{"voice.listener.wake_threshold", c.Voice.Listener.WakeThreshold},
		{"voice.listener.intent_threshold", c.Voice.Listener.IntentThreshold},
		{"voice.listener.short_threshold", c.Voice.Listener.ShortThreshold},
	}
	for _, th := range thresholds {
		if th.value < 0 || th.value > 100 {
			errs = append(errs, th.name+" must be between 0 and 100")
		}
	}

	if c.Records.Dir == "" {
		errs = append(errs, "records.dir is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, "kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, "kafka.topic is required when kafka is enabled")
		}
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	const minJWTSecretLength = 32
	if c.Security.JWT.Secret != "" && len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetDeviceReadTimeout returns the per-chunk device read timeout.
func (c *Config) GetDeviceReadTimeout() time.Duration {
	return time.Duration(c.Device.ReadTimeout) * time.Millisecond
}

// GetSimulatorInterval returns the simulator tick period.
func (c *Config) GetSimulatorInterval() time.Duration {
	return time.Duration(c.Simulator.Interval) * time.Millisecond
}

// GetDispatchPollInterval returns the command writer's poll period.
func (c *Config) GetDispatchPollInterval() time.Duration {
	return time.Duration(c.Dispatch.PollInterval) * time.Millisecond
}

// GetListenerCooldown returns the minimum gap between transcript intents.
func (c *Config) GetListenerCooldown() time.Duration {
	return time.Duration(c.Voice.Listener.Cooldown) * time.Millisecond
}

// GetLearningPollInterval returns the trainer's queue poll period.
func (c *Config) GetLearningPollInterval() time.Duration {
	return time.Duration(c.Learning.PollInterval) * time.Millisecond
}

// GetHeartbeatInterval returns the WebSocket uptime heartbeat period.
func (c *Config) GetHeartbeatInterval() time.Duration {
	return time.Duration(c.WebSocket.HeartbeatInterval) * time.Second
}

// GetAccessTokenTTL returns the lifetime of minted operator tokens.
func (c *Config) GetAccessTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}
