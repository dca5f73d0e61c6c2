package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/tetherhq/tether-core/internal/audit"
	"github.com/tetherhq/tether-core/internal/capability"
	"github.com/tetherhq/tether-core/internal/infrastructure/config"
	"github.com/tetherhq/tether-core/internal/infrastructure/database"
	"github.com/tetherhq/tether-core/internal/infrastructure/logging"
	"github.com/tetherhq/tether-core/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger

	// Hubs maps hub name to instance. The server only reads through hub
	// methods, so sharing with the rest of the process is safe.
	Hubs map[string]*capability.Hub

	// Audit serves the /diagnostics endpoints. Optional; when nil those
	// endpoints return 503.
	Audit audit.Repository

	// MQTT is optional and only feeds /metrics connectivity reporting.
	MQTT *mqtt.Client

	// DB is optional and only feeds /metrics pool statistics.
	DB *database.DB

	Version string
}

// Server is the HTTP inspection server for Tether Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	hubs      map[string]*capability.Hub
	audit     audit.Repository
	mqtt      *mqtt.Client
	db        *database.DB
	version   string
	startTime time.Time

	server  *http.Server
	hub     *Hub
	tickets *ticketIssuer
	cancel  context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, hubs)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if len(deps.Hubs) == 0 {
		return nil, fmt.Errorf("at least one hub is required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		hubs:      deps.Hubs,
		audit:     deps.Audit,
		mqtt:      deps.MQTT,
		db:        deps.DB,
		version:   deps.Version,
		startTime: time.Now(),
		tickets:   newTicketIssuer(deps.Security.Ticket),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub and ticket cleanup, and
// launches the HTTP listener in a background goroutine. The server can be
// stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)
	go s.tickets.cleanLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// BroadcastRecord pushes a diagnostic record to WebSocket clients
// subscribed to the record stream. Safe to call before Start (no-op).
func (s *Server) BroadcastRecord(rec audit.StoredRecord) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(channelRecords, rec)
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

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
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

// hubByName resolves a hub from a URL segment.
func (s *Server) hubByName(name string) (*capability.Hub, bool) {
	h, ok := s.hubs[name]
	return h, ok
}

// hubNames returns all hub names in stable order.
func (s *Server) hubNames() []string {
	names := make([]string, 0, len(s.hubs))
	for name := range s.hubs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
