package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/vesta-core/migrations"

	"github.com/nerrad567/vesta-core/internal/api"
	"github.com/nerrad567/vesta-core/internal/coordinator"
	"github.com/nerrad567/vesta-core/internal/dashboard"
	"github.com/nerrad567/vesta-core/internal/device"
	"github.com/nerrad567/vesta-core/internal/dispatch"
	"github.com/nerrad567/vesta-core/internal/infrastructure/config"
	"github.com/nerrad567/vesta-core/internal/infrastructure/database"
	"github.com/nerrad567/vesta-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/vesta-core/internal/infrastructure/kafka"
	"github.com/nerrad567/vesta-core/internal/infrastructure/logging"
	"github.com/nerrad567/vesta-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vesta-core/internal/intent"
	"github.com/nerrad567/vesta-core/internal/learning"
	"github.com/nerrad567/vesta-core/internal/records"
	"github.com/nerrad567/vesta-core/internal/relay"
	"github.com/nerrad567/vesta-core/internal/simulator"
	"github.com/nerrad567/vesta-core/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Vesta service",
	Long: `Run the Vesta service until interrupted.

The service reads frames from the configured device transport (or runs the
simulator when transport is "none"), serves the HTTP API and WebSocket on
api.host:api.port, and optionally relays state and intents over MQTT.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Cancel on Ctrl+C or SIGTERM for graceful shutdown.
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := run(ctx); err != nil {
			return printError(cmd.ErrOrStderr(), "Error: "+err.Error(), "")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// run is the service composition root, separated from the command for
// testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Vesta Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	path := getConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", path)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Record sinks
	recorder, closeSinks, influxClient, err := openRecorder(cfg, db, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// State and event fan-out
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	publisher := relay.NewPublisher(relay.PublisherOptions{
		Hub:    hub,
		Logger: log.Component("relay"),
	})
	if mqttClient != nil {
		publisher.SetMQTT(mqttClient)
	}

	store := device.NewStore()
	store.SetLogger(log.Component("device"))
	store.SetPublisher(publisher)

	// Learning
	brain := learning.NewBrain(learning.Options{
		Samples:      learning.NewSQLiteSampleStore(db.DB),
		PollInterval: cfg.GetLearningPollInterval(),
		Logger:       log.Component("learning"),
	})
	var trainer intent.Trainer = learning.Noop{}
	if cfg.Learning.Enabled {
		if startErr := brain.Start(ctx); startErr != nil {
			return fmt.Errorf("starting learning: %w", startErr)
		}
		defer func() {
			log.Info("stopping learning")
			brain.Stop()
		}()
		trainer = brain
	}

	// Command path and intent resolution
	dispatcher := dispatch.New(dispatch.Options{
		Store:        store,
		PollInterval: cfg.GetDispatchPollInterval(),
		Logger:       log.Component("dispatch"),
	})
	resolver, err := intent.NewResolver(intent.Options{
		Store:          store,
		Queue:          dispatcher,
		Recorder:       recorder,
		Trainer:        trainer,
		Events:         publisher,
		WakePhrases:    cfg.Voice.WakePhrases,
		SleepPhrases:   cfg.Voice.SleepPhrases,
		WakeThreshold:  cfg.Voice.WakeThreshold,
		SleepThreshold: cfg.Voice.SleepThreshold,
		Logger:         log.Component("intent"),
	})
	if err != nil {
		return fmt.Errorf("creating resolver: %w", err)
	}
	interpreter := intent.NewInterpreter(intent.InterpreterOptions{
		WakeWords:       cfg.Voice.Listener.WakeWords,
		WakeThreshold:   cfg.Voice.Listener.WakeThreshold,
		IntentThreshold: cfg.Voice.Listener.IntentThreshold,
		ShortThreshold:  cfg.Voice.Listener.ShortThreshold,
		Cooldown:        cfg.GetListenerCooldown(),
	})

	// Device side
	port, err := openPort(ctx, cfg)
	if err != nil {
		// Degraded mode: no device, the simulator feeds the store.
		log.Warn("device unavailable, running simulator",
			"transport", cfg.Device.Transport,
			"error", err,
		)
		port = nil
	}
	coord, err := coordinator.New(coordinator.Options{
		Store:       store,
		Dispatcher:  dispatcher,
		Port:        port,
		BufferLimit: cfg.Device.FrameBufferLimit,
		Simulator: simulator.Options{
			Interval:  cfg.GetSimulatorInterval(),
			StartTemp: cfg.Simulator.StartTemp,
			StartHum:  cfg.Simulator.StartHum,
		},
		Recorder: recorder,
		Logger:   log.Component("coordinator"),
	})
	if err != nil {
		return fmt.Errorf("creating coordinator: %w", err)
	}
	if startErr := coord.Start(ctx); startErr != nil {
		return fmt.Errorf("starting coordinator: %w", startErr)
	}
	defer func() {
		log.Info("stopping coordinator")
		coord.Stop()
	}()

	// MQTT ingestion
	subscriber := relay.NewSubscriber(resolver, interpreter, log.Component("relay"))
	if mqttClient != nil {
		if attachErr := subscriber.Attach(mqttClient); attachErr != nil {
			return fmt.Errorf("attaching MQTT ingestion: %w", attachErr)
		}
		defer func() {
			if detachErr := subscriber.Detach(mqttClient); detachErr != nil {
				log.Warn("error detaching MQTT ingestion", "error", detachErr)
			}
		}()
	}

	// HTTP API
	deps := api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log.Component("api"),
		Store:       store,
		Resolver:    resolver,
		Interpreter: interpreter,
		History:     records.NewHistoryRepository(db.DB),
		Predictor:   brain,
		Events:      publisher,
		Dashboard:   dashboard.Handler(cfg.API.DashboardDir),
		ExternalHub: hub,
		Version:     version,
		ComponentStats: func() map[string]any {
			return map[string]any{
				"coordinator": coord.Stats(),
				"learning":    brain.Stats(),
				"relay":       publisher.Stats(),
				"ingestion":   subscriber.Stats(),
			}
		},
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	go hub.Run(ctx)
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Retained state for late MQTT subscribers.
	publisher.PublishState(store.Snapshot())

	if err := healthCheck(ctx, db, mqttClient, influxClient, coord); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal",
		"source", coord.Source(),
		"api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()

	// Deferred closes run in reverse order: API, coordinator, learning,
	// MQTT, record sinks, database.
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// openRecorder builds the record fan-out. CSV and SQLite history are always
// on; InfluxDB and Kafka follow their enabled flags. The returned func closes
// every sink that needs it.
func openRecorder(cfg *config.Config, db *database.DB, log *logging.Logger) (*records.Recorder, func(), *influxdb.Client, error) {
	csvSink, err := records.OpenCSVSink(cfg.Records.Dir, records.CSVFiles{
		records.KindSensor: cfg.Records.SensorFile,
		records.KindVoice:  cfg.Records.VoiceFile,
		records.KindAction: cfg.Records.ActionFile,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening CSV logs: %w", err)
	}
	closers := []func(){func() {
		if closeErr := csvSink.Close(); closeErr != nil {
			log.Error("error closing CSV logs", "error", closeErr)
		}
	}}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	recorder := records.NewRecorder(csvSink, records.NewHistoryRepository(db.DB))
	recorder.SetLogger(log.Component("records"))

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		closers = append(closers, func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		})
		recorder.AddSink(records.NewInfluxSink(influxClient, cfg.Site.ID))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	if cfg.Kafka.Enabled {
		producer, kafkaErr := kafka.Connect(cfg.Kafka)
		if kafkaErr != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("creating Kafka producer: %w", kafkaErr)
		}
		closers = append(closers, func() {
			if closeErr := producer.Close(); closeErr != nil {
				log.Error("error closing Kafka producer", "error", closeErr)
			}
		})
		recorder.AddSink(records.NewKafkaSink(producer))
		log.Info("Kafka export enabled", "topic", producer.Topic())
	}

	return recorder, closeAll, influxClient, nil
}

// openPort opens the configured device transport. It returns a nil Port for
// transport "none", which selects the simulator.
func openPort(ctx context.Context, cfg *config.Config) (transport.Port, error) {
	switch cfg.Device.Transport {
	case config.TransportSerial:
		return transport.OpenSerial(transport.SerialConfig{
			Device:      cfg.Device.Port,
			Baud:        cfg.Device.Baud,
			ReadTimeout: cfg.GetDeviceReadTimeout(),
		})
	case config.TransportTCP:
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return transport.OpenTCP(dialCtx, cfg.Device.Address, cfg.GetDeviceReadTimeout())
	case config.TransportNone, "":
		return nil, nil
	default:
		return nil, errors.New("unknown device transport: " + cfg.Device.Transport)
	}
}

// healthCheck verifies all infrastructure connections are healthy.
// The MQTT and InfluxDB clients may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, coord *coordinator.Coordinator) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	if err := coord.HealthCheck(ctx); err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}
	return nil
}
