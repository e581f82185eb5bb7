// Package api provides the HTTP API and WebSocket server for Vesta.
//
// It exposes the device snapshot, command and intent ingestion, action
// history and model predictions to the dashboard and other local clients.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/vesta-core/internal/device"
	"github.com/nerrad567/vesta-core/internal/infrastructure/config"
	"github.com/nerrad567/vesta-core/internal/infrastructure/logging"
	"github.com/nerrad567/vesta-core/internal/intent"
	"github.com/nerrad567/vesta-core/internal/learning"
	"github.com/nerrad567/vesta-core/internal/records"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Resolver applies intents and reports the voice session.
type Resolver interface {
	Resolve(ctx context.Context, ev intent.Event) intent.Result
	VoiceActive() bool
}

// Interpreter maps raw transcripts to intents.
type Interpreter interface {
	Interpret(transcript string) (intent.Event, bool)
}

// ActionLister reads recent action history.
type ActionLister interface {
	ListActions(ctx context.Context, limit int) ([]records.ActionEntry, error)
}

// ConnectionChecker reports whether an optional backend is reachable.
type ConnectionChecker interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger

	Store       *device.Store // required
	Resolver    Resolver      // required
	Interpreter Interpreter
	History     ActionLister
	Predictor   learning.Predictor
	MQTT        ConnectionChecker

	// Events receives the dashboard action_ack. Defaults to the hub.
	Events intent.EventPublisher

	// ComponentStats returns per-component counters for /metrics.
	ComponentStats func() map[string]any

	// Dashboard, when set, serves every path outside /api/v1.
	Dashboard http.Handler

	ExternalHub *Hub // If set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for Vesta.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	store       *device.Store
	resolver    Resolver
	interpreter Interpreter
	history     ActionLister
	predictor   learning.Predictor
	mqtt        ConnectionChecker
	events      intent.EventPublisher
	compStats   func() map[string]any
	dashboard   http.Handler
	version     string
	startTime   time.Time
	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, store, resolver)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("device store is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}

	s := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		secCfg:      deps.Security,
		logger:      deps.Logger,
		store:       deps.Store,
		resolver:    deps.Resolver,
		interpreter: deps.Interpreter,
		history:     deps.History,
		predictor:   deps.Predictor,
		mqtt:        deps.MQTT,
		events:      deps.Events,
		compStats:   deps.ComponentStats,
		dashboard:   deps.Dashboard,
		version:     deps.Version,
		startTime:   time.Now(),
	}
	if s.predictor == nil {
		s.predictor = learning.Noop{}
	}

	// The relay publisher needs the hub before the server starts.
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	if s.events == nil {
		s.events = s.hub
	}

	return s, nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub (unless injected), builds the router and
// launches the HTTP listener in a background goroutine. The server can be
// stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
