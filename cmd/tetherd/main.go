// Tether Core - cross-platform feature bridge runtime
//
// This is the main entry point for the Tether Core daemon. It constructs
// the capability hubs, wires the MQTT feature bridge and diagnostic
// pipeline, starts the inspection API, and then parks the process on the
// main run loop so hub dispatches have a pinned thread to land on.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tetherhq/tether-core/migrations"

	"github.com/tetherhq/tether-core/internal/api"
	"github.com/tetherhq/tether-core/internal/audit"
	"github.com/tetherhq/tether-core/internal/bridges/mqttfeat"
	"github.com/tetherhq/tether-core/internal/capability"
	"github.com/tetherhq/tether-core/internal/infrastructure/config"
	"github.com/tetherhq/tether-core/internal/infrastructure/database"
	"github.com/tetherhq/tether-core/internal/infrastructure/influxdb"
	"github.com/tetherhq/tether-core/internal/infrastructure/logging"
	"github.com/tetherhq/tether-core/internal/infrastructure/mqtt"
	"github.com/tetherhq/tether-core/internal/mainloop"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// metricsSampleInterval is how often main-loop queue depth and per-hub
// gauges are sampled into the metrics store.
const metricsSampleInterval = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // Linear bootstrap sequence; splitting hides the startup order
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Tether Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

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
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Diagnostic record pipeline: hubs emit into the sink, the sink
	// persists and fans out to metrics and WebSocket subscribers.
	auditRepo := audit.NewSQLiteRepository(db.DB)
	sink := audit.NewSink(auditRepo, log.With("component", "audit"))
	defer func() {
		log.Info("draining diagnostic sink")
		sink.Close()
	}()

	// Main run loop for thread-affine capability implementations
	loop := mainloop.New()
	loop.SetLogger(log.With("component", "mainloop"))

	// Construct hubs: the default hub always exists, config adds more
	hubs := buildHubs(cfg, log, sink, loop)
	log.Info("hubs constructed", "count", len(hubs))

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
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Register the MQTT feature bridge into its hub (optional)
	if cfg.Bridge.Enabled {
		if startErr := startBridge(cfg, mqttClient, hubs, log); startErr != nil {
			return fmt.Errorf("starting feature bridge: %w", startErr)
		}
	} else {
		log.Info("feature bridge disabled")
	}

	// Connect to InfluxDB (optional) and wire invoke metrics
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		sink.SetMetrics(influxClient)
		go sampleRuntimeMetrics(ctx, loop, hubs, influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start inspection API server (optional)
	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Security: cfg.Security,
			Logger:   log.With("component", "api"),
			Hubs:     hubs,
			Audit:    auditRepo,
			MQTT:     mqttClient,
			DB:       db,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("inspection API disabled")
	}

	// Fan persisted records out to WebSocket subscribers and, when MQTT is
	// up, to the broker's record topics for external observers.
	sink.SetBroadcast(func(rec audit.StoredRecord) {
		if apiServer != nil {
			apiServer.BroadcastRecord(rec)
		}
		if mqttClient != nil {
			publishRecord(mqttClient, rec, log)
		}
	})

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, entering main loop")

	// The loop owns the process's main thread from here on; it returns
	// when the shutdown signal cancels ctx.
	if err := loop.Run(ctx); err != nil {
		return fmt.Errorf("main loop: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("Tether Core stopped")
	return nil
}

// buildHubs constructs the default hub plus any configured extras, each
// wired to the shared logger, diagnostic sink, and main loop.
func buildHubs(cfg *config.Config, log *logging.Logger, sink *audit.Sink, loop *mainloop.Loop) map[string]*capability.Hub {
	hubs := make(map[string]*capability.Hub, len(cfg.Hubs)+1)

	configure := func(name string, debug bool) {
		h := capability.New(name)
		h.SetLogger(log.With("component", "hub", "hub", name))
		h.SetRecorder(sink)
		h.SetMainLoop(loop)
		h.SetDebug(debug)
		hubs[name] = h
	}

	configure("default", defaultHubDebug(cfg))
	for _, hc := range cfg.Hubs {
		configure(hc.Name, hc.Debug)
	}
	return hubs
}

// defaultHubDebug reports whether config enables debug for the default
// hub. The default hub cannot be redeclared under hubs, so debug rides on
// the logging level: a debug-level deployment wants hub diagnostics too.
func defaultHubDebug(cfg *config.Config) bool {
	return cfg.Logging.Level == "debug"
}

// startBridge registers the MQTT feature bridge into its configured hub.
func startBridge(cfg *config.Config, mqttClient *mqtt.Client, hubs map[string]*capability.Hub, log *logging.Logger) error {
	if mqttClient == nil {
		return fmt.Errorf("bridge requires MQTT to be enabled")
	}

	hub, ok := hubs[cfg.Bridge.Hub]
	if !ok {
		return fmt.Errorf("bridge hub %q is not configured", cfg.Bridge.Hub)
	}

	bridge, err := mqttfeat.New(cfg.Bridge, mqttClient)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	bridge.SetLogger(log.With("component", "bridge"))

	if err := bridge.RegisterInto(hub); err != nil {
		return fmt.Errorf("registering bridge capabilities: %w", err)
	}

	// Inbound commands from the broker dispatch through the hub, so a
	// swapped-in implementation picks them up too.
	sub := &bridgeSubscriberAdapter{client: mqttClient}
	if err := bridge.StartCommandStream(sub, hub); err != nil {
		return fmt.Errorf("subscribing to command topics: %w", err)
	}

	log.Info("feature bridge registered",
		"hub", cfg.Bridge.Hub,
		"topic_prefix", cfg.Bridge.TopicPrefix,
		"qos", cfg.Bridge.QoS,
	)
	return nil
}

// bridgeSubscriberAdapter adapts the infrastructure MQTT client to the
// bridge's Subscriber interface. The infrastructure Subscribe declares
// its handler as a named MessageHandler type; the bridge declares the
// bare signature, so the adapter only forwards.
type bridgeSubscriberAdapter struct {
	client *mqtt.Client
}

// Subscribe implements mqttfeat.Subscriber.
func (a *bridgeSubscriberAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}

// publishRecord mirrors a persisted diagnostic record onto the broker so
// external observers can follow hub activity without the inspection API.
func publishRecord(mqttClient *mqtt.Client, rec audit.StoredRecord, log *logging.Logger) {
	topics := mqtt.Topics{}
	payload, err := json.Marshal(rec)
	if err != nil {
		log.Warn("failed to marshal record for MQTT", "error", err)
		return
	}
	if err := mqttClient.Publish(topics.HubRecord(rec.Hub), payload, 0, false); err != nil {
		log.Debug("record publish failed", "hub", rec.Hub, "error", err)
	}
}

// hubGaugeWriter is the slice of the metrics client that sampleHubGauges
// needs, split out so tests can observe gauge writes without a metrics
// backend.
type hubGaugeWriter interface {
	WriteHubGauge(hub, gauge string, value float64)
}

// sampleRuntimeMetrics periodically writes main-loop queue depth and
// per-hub capability counts to the metrics store.
func sampleRuntimeMetrics(ctx context.Context, loop *mainloop.Loop, hubs map[string]*capability.Hub, influxClient *influxdb.Client) {
	ticker := time.NewTicker(metricsSampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			influxClient.WriteLoopMetric(loop.Pending(), 0)
			sampleHubGauges(hubs, influxClient)
		}
	}
}

// sampleHubGauges writes the current capability count of every hub.
func sampleHubGauges(hubs map[string]*capability.Hub, w hubGaugeWriter) {
	for name, hub := range hubs {
		w.WriteHubGauge(name, "capability_count", float64(hub.Count()))
	}
}

// getConfigPath returns the configuration file path.
// Uses TETHER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TETHER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
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

	return nil
}
