package mqttfeat

import (
	"fmt"
	"sync"

	"github.com/tetherhq/tether-core/internal/capability"
	"github.com/tetherhq/tether-core/internal/feature"
	"github.com/tetherhq/tether-core/internal/infrastructure/config"
)

// registrationSource is the debug metadata attached to hub entries
// registered by this bridge.
const registrationSource = "mqtt-bridge"

// Publisher is the interface for MQTT publish operations.
// This allows mocking in tests and flexibility in implementation.
// It is satisfied by *mqtt.Client.
type Publisher interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Bridge publishes feature events to an MQTT broker on behalf of the
// standard contracts. Construct it with New, then call RegisterInto to
// make its implementations available through a hub.
type Bridge struct {
	cfg config.BridgeConfig
	pub Publisher

	logger   Logger
	loggerMu sync.RWMutex

	haptics  *Haptics
	notifier *Notifier
}

// New creates a bridge over the given publisher.
//
// An empty TopicPrefix falls back to "tether" and an out-of-range QoS is
// clamped to 1. The publisher does not need to be connected yet; publish
// errors surface per-call.
func New(cfg config.BridgeConfig, pub Publisher) (*Bridge, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "tether"
	}
	if cfg.QoS < 0 || cfg.QoS > 2 {
		cfg.QoS = 1
	}

	b := &Bridge{
		cfg:    cfg,
		pub:    pub,
		logger: noopLogger{},
	}
	b.haptics = &Haptics{bridge: b}
	b.notifier = &Notifier{bridge: b}
	return b, nil
}

// SetLogger sets the structured logger. Safe to call concurrently with
// publishes.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	defer b.loggerMu.Unlock()
	if logger != nil {
		b.logger = logger
	}
}

func (b *Bridge) log() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

// Haptics returns the bridge's haptic feedback implementation.
func (b *Bridge) Haptics() *Haptics {
	return b.haptics
}

// Notifier returns the bridge's toast implementation.
func (b *Bridge) Notifier() *Notifier {
	return b.notifier
}

// RegisterInto registers both implementations into the hub under their
// standard capability identifiers. Re-registering over an existing entry
// follows hub semantics (last write wins).
func (b *Bridge) RegisterInto(hub *capability.Hub) error {
	if err := hub.RegisterFrom(feature.HapticsID, b.haptics, registrationSource); err != nil {
		return fmt.Errorf("register %s: %w", feature.HapticsID, err)
	}
	if err := hub.RegisterFrom(feature.NotifierID, b.notifier, registrationSource); err != nil {
		return fmt.Errorf("register %s: %w", feature.NotifierID, err)
	}
	return nil
}

// eventTopic builds the event topic for a capability.
// Format: {prefix}/feature/{capability}/event
func (b *Bridge) eventTopic(id capability.ID) string {
	return fmt.Sprintf("%s/feature/%s/event", b.cfg.TopicPrefix, id)
}

// ackTopic builds the command acknowledgement topic for a capability.
// Format: {prefix}/feature/{capability}/ack
func (b *Bridge) ackTopic(id capability.ID) string {
	return fmt.Sprintf("%s/feature/%s/ack", b.cfg.TopicPrefix, id)
}

// commandTopicPattern matches commands for every capability under the
// bridge's prefix.
// Pattern: {prefix}/feature/+/command
func (b *Bridge) commandTopicPattern() string {
	return fmt.Sprintf("%s/feature/+/command", b.cfg.TopicPrefix)
}

// publish sends a JSON payload to the capability's event topic at the
// configured QoS.
func (b *Bridge) publish(id capability.ID, payload []byte) error {
	topic := b.eventTopic(id)
	if err := b.pub.Publish(topic, payload, byte(b.cfg.QoS), false); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublishFailed, topic, err)
	}
	b.log().Debug("published feature event", "topic", topic, "bytes", len(payload))
	return nil
}
