package mqttfeat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tetherhq/tether-core/internal/capability"
	"github.com/tetherhq/tether-core/internal/feature"
	"github.com/tetherhq/tether-core/internal/infrastructure/config"
)

// MockPublisher implements Publisher for testing.
type MockPublisher struct {
	mu        sync.Mutex
	published []mockPublish
	connected bool
	err       error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{connected: true}
}

func (m *MockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, mockPublish{
		Topic:    topic,
		Payload:  payload,
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (m *MockPublisher) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockPublisher) getPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mockPublish, len(m.published))
	copy(out, m.published)
	return out
}

func newTestBridge(t *testing.T) (*Bridge, *MockPublisher) {
	t.Helper()
	pub := NewMockPublisher()
	b, err := New(config.BridgeConfig{TopicPrefix: "tether", QoS: 1, Hub: "default"}, pub)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b, pub
}

// === Construction ===

func TestNewNilPublisher(t *testing.T) {
	_, err := New(config.BridgeConfig{}, nil)
	if !errors.Is(err, ErrNilPublisher) {
		t.Errorf("New(nil publisher) error = %v, want ErrNilPublisher", err)
	}
}

func TestNewDefaults(t *testing.T) {
	b, err := New(config.BridgeConfig{QoS: 7}, NewMockPublisher())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.cfg.TopicPrefix != "tether" {
		t.Errorf("TopicPrefix = %q, want tether", b.cfg.TopicPrefix)
	}
	if b.cfg.QoS != 1 {
		t.Errorf("QoS = %d, want 1 after clamping", b.cfg.QoS)
	}
}

// === Haptics ===

func TestVibratePublishesEvent(t *testing.T) {
	b, pub := newTestBridge(t)

	if err := b.Haptics().Vibrate(feature.PatternSuccess); err != nil {
		t.Fatalf("Vibrate() error = %v", err)
	}

	msgs := pub.getPublished()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].Topic != "tether/feature/feature.haptics/event" {
		t.Errorf("topic = %q", msgs[0].Topic)
	}
	if msgs[0].QoS != 1 {
		t.Errorf("qos = %d, want 1", msgs[0].QoS)
	}
	if msgs[0].Retained {
		t.Error("event published retained, want not retained")
	}

	var event HapticEvent
	if err := json.Unmarshal(msgs[0].Payload, &event); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if event.Pattern != "success" {
		t.Errorf("pattern = %q, want success", event.Pattern)
	}
	if event.Source != SourceHub {
		t.Errorf("source = %q, want %q", event.Source, SourceHub)
	}
	if event.ID == "" {
		t.Error("event ID is empty")
	}
	if event.Timestamp.IsZero() {
		t.Error("event timestamp is zero")
	}
}

func TestVibrateInvalidPattern(t *testing.T) {
	b, pub := newTestBridge(t)

	err := b.Haptics().Vibrate(feature.Pattern("jackhammer"))
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("Vibrate(invalid) error = %v, want ErrInvalidPattern", err)
	}
	if len(pub.getPublished()) != 0 {
		t.Error("invalid pattern still published an event")
	}
}

func TestVibratePublishError(t *testing.T) {
	b, pub := newTestBridge(t)
	pub.err = errors.New("broker gone")

	err := b.Haptics().Vibrate(feature.PatternLight)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Vibrate() error = %v, want ErrPublishFailed", err)
	}
}

func TestHapticsCommand(t *testing.T) {
	b, pub := newTestBridge(t)

	result, err := b.Haptics().Command(context.Background(), "vibrate", map[string]any{"pattern": "heavy"})
	if err != nil {
		t.Fatalf("Command(vibrate) error = %v", err)
	}
	if result == nil {
		t.Error("Command(vibrate) returned nil result")
	}

	msgs := pub.getPublished()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	var event HapticEvent
	if err := json.Unmarshal(msgs[0].Payload, &event); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if event.Source != SourceAPI {
		t.Errorf("source = %q, want %q", event.Source, SourceAPI)
	}
}

func TestHapticsCommandUnknown(t *testing.T) {
	b, _ := newTestBridge(t)

	_, err := b.Haptics().Command(context.Background(), "explode", nil)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Command(explode) error = %v, want ErrUnknownCommand", err)
	}
}

// === Notifier ===

func TestShowPublishesEvent(t *testing.T) {
	b, pub := newTestBridge(t)

	toast := feature.Toast{Text: "door unlocked", Duration: 2 * time.Second}
	if err := b.Notifier().Show(toast); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	msgs := pub.getPublished()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].Topic != "tether/feature/feature.notifier/event" {
		t.Errorf("topic = %q", msgs[0].Topic)
	}

	var event ToastEvent
	if err := json.Unmarshal(msgs[0].Payload, &event); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if event.Text != "door unlocked" {
		t.Errorf("text = %q", event.Text)
	}
	if event.DurationMS != 2000 {
		t.Errorf("duration_ms = %d, want 2000", event.DurationMS)
	}
}

func TestShowEmptyText(t *testing.T) {
	b, pub := newTestBridge(t)

	err := b.Notifier().Show(feature.Toast{Text: "   "})
	if !errors.Is(err, ErrEmptyToast) {
		t.Errorf("Show(blank) error = %v, want ErrEmptyToast", err)
	}
	if len(pub.getPublished()) != 0 {
		t.Error("blank toast still published an event")
	}
}

func TestNotifierCommand(t *testing.T) {
	b, pub := newTestBridge(t)

	_, err := b.Notifier().Command(context.Background(), "show", map[string]any{
		"text":        "hello",
		"duration_ms": float64(1500),
	})
	if err != nil {
		t.Fatalf("Command(show) error = %v", err)
	}

	msgs := pub.getPublished()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	var event ToastEvent
	if err := json.Unmarshal(msgs[0].Payload, &event); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if event.DurationMS != 1500 {
		t.Errorf("duration_ms = %d, want 1500", event.DurationMS)
	}
	if event.Source != SourceAPI {
		t.Errorf("source = %q, want %q", event.Source, SourceAPI)
	}
}

// === Registration ===

func TestRegisterInto(t *testing.T) {
	b, _ := newTestBridge(t)
	hub := capability.New("default")

	if err := b.RegisterInto(hub); err != nil {
		t.Fatalf("RegisterInto() error = %v", err)
	}

	haptics, err := capability.Resolve[feature.Haptics](hub, feature.HapticsID)
	if err != nil {
		t.Fatalf("Resolve haptics: %v", err)
	}
	if haptics != b.Haptics() {
		t.Error("resolved haptics is not the bridge implementation")
	}

	if _, err := capability.Resolve[feature.Notifier](hub, feature.NotifierID); err != nil {
		t.Fatalf("Resolve notifier: %v", err)
	}

	for _, entry := range hub.Snapshot() {
		if entry.Source != registrationSource {
			t.Errorf("entry %s source = %q, want %q", entry.ID, entry.Source, registrationSource)
		}
	}
}

// === Command stream ===

// mockSubscriber captures the command subscription so tests can inject
// broker messages by calling the captured handler.
type mockSubscriber struct {
	topic   string
	qos     byte
	handler func(topic string, payload []byte) error
	err     error
}

func (m *mockSubscriber) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	if m.err != nil {
		return m.err
	}
	m.topic = topic
	m.qos = qos
	m.handler = handler
	return nil
}

// newCommandStream returns a bridge registered into a hub with its
// command stream started, plus the captured subscription.
func newCommandStream(t *testing.T) (*Bridge, *MockPublisher, *capability.Hub, *mockSubscriber) {
	t.Helper()
	b, pub := newTestBridge(t)
	hub := capability.New("default")
	if err := b.RegisterInto(hub); err != nil {
		t.Fatalf("RegisterInto() error = %v", err)
	}
	sub := &mockSubscriber{}
	if err := b.StartCommandStream(sub, hub); err != nil {
		t.Fatalf("StartCommandStream() error = %v", err)
	}
	return b, pub, hub, sub
}

func decodeAck(t *testing.T, msg mockPublish) CommandAck {
	t.Helper()
	var ack CommandAck
	if err := json.Unmarshal(msg.Payload, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	return ack
}

func TestStartCommandStream_NilArgs(t *testing.T) {
	b, _ := newTestBridge(t)
	hub := capability.New("default")

	if err := b.StartCommandStream(nil, hub); !errors.Is(err, ErrNilSubscriber) {
		t.Errorf("StartCommandStream(nil sub) error = %v, want ErrNilSubscriber", err)
	}
	if err := b.StartCommandStream(&mockSubscriber{}, nil); !errors.Is(err, ErrNilHub) {
		t.Errorf("StartCommandStream(nil hub) error = %v, want ErrNilHub", err)
	}
}

func TestStartCommandStream_SubscribesToPattern(t *testing.T) {
	_, _, _, sub := newCommandStream(t)

	if sub.topic != "tether/feature/+/command" {
		t.Errorf("subscribed topic = %q, want tether/feature/+/command", sub.topic)
	}
	if sub.qos != 1 {
		t.Errorf("subscribed qos = %d, want 1", sub.qos)
	}
}

func TestCommandStream_DispatchesVibrate(t *testing.T) {
	_, pub, _, sub := newCommandStream(t)

	payload := []byte(`{"id":"req-1","command":"vibrate","args":{"pattern":"success"}}`)
	if err := sub.handler("tether/feature/feature.haptics/command", payload); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	msgs := pub.getPublished()
	if len(msgs) != 2 {
		t.Fatalf("published %d messages, want event + ack", len(msgs))
	}

	var event HapticEvent
	if err := json.Unmarshal(msgs[0].Payload, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if msgs[0].Topic != "tether/feature/feature.haptics/event" || event.Pattern != "success" {
		t.Errorf("event = %q on %q", event.Pattern, msgs[0].Topic)
	}

	if msgs[1].Topic != "tether/feature/feature.haptics/ack" {
		t.Errorf("ack topic = %q", msgs[1].Topic)
	}
	ack := decodeAck(t, msgs[1])
	if !ack.OK {
		t.Errorf("ack not ok: %q", ack.Error)
	}
	if ack.ID != "req-1" || ack.Command != "vibrate" || ack.Capability != "feature.haptics" {
		t.Errorf("ack = %+v", ack)
	}
	if ack.Timestamp.IsZero() {
		t.Error("ack timestamp is zero")
	}
}

func TestCommandStream_AcksFailureForUnknownCommand(t *testing.T) {
	_, pub, _, sub := newCommandStream(t)

	payload := []byte(`{"command":"explode"}`)
	if err := sub.handler("tether/feature/feature.haptics/command", payload); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	msgs := pub.getPublished()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want ack only", len(msgs))
	}
	ack := decodeAck(t, msgs[0])
	if ack.OK {
		t.Error("ack reports ok for an unknown command")
	}
	if !strings.Contains(ack.Error, "unknown command") {
		t.Errorf("ack error = %q", ack.Error)
	}
	if ack.ID == "" {
		t.Error("ack for id-less request carries no generated id")
	}
}

func TestCommandStream_AcksFailureForUnregisteredCapability(t *testing.T) {
	_, pub, _, sub := newCommandStream(t)

	payload := []byte(`{"command":"vibrate"}`)
	if err := sub.handler("tether/feature/feature.absent/command", payload); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	msgs := pub.getPublished()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want ack only", len(msgs))
	}
	ack := decodeAck(t, msgs[0])
	if ack.OK {
		t.Error("ack reports ok for an unregistered capability")
	}
	if !strings.Contains(ack.Error, capability.ErrNotRegistered.Error()) {
		t.Errorf("ack error = %q", ack.Error)
	}
}

func TestCommandStream_AcksFailureForNonCommandable(t *testing.T) {
	_, pub, hub, sub := newCommandStream(t)

	type plain struct{}
	if err := hub.Register(capability.ID("feature.plain"), &plain{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	payload := []byte(`{"command":"anything"}`)
	if err := sub.handler("tether/feature/feature.plain/command", payload); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	msgs := pub.getPublished()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want ack only", len(msgs))
	}
	ack := decodeAck(t, msgs[0])
	if ack.OK || !strings.Contains(ack.Error, "not commandable") {
		t.Errorf("ack = %+v", ack)
	}
}

func TestCommandStream_ReachesSwappedImplementation(t *testing.T) {
	_, pub, hub, sub := newCommandStream(t)

	swapped := &recordingCommander{}
	if err := hub.Register(feature.HapticsID, swapped); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	payload := []byte(`{"command":"vibrate","args":{"pattern":"light"}}`)
	if err := sub.handler("tether/feature/feature.haptics/command", payload); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if swapped.name != "vibrate" {
		t.Fatalf("swapped implementation saw command %q, want vibrate", swapped.name)
	}
	// Only the ack: the swapped implementation publishes nothing.
	if msgs := pub.getPublished(); len(msgs) != 1 {
		t.Fatalf("published %d messages, want ack only", len(msgs))
	}
}

func TestCommandStream_RejectsMalformedInput(t *testing.T) {
	_, pub, _, sub := newCommandStream(t)

	if err := sub.handler("tether/feature/feature.haptics/command", []byte("{not json")); err == nil {
		t.Error("handler accepted malformed JSON")
	}
	if err := sub.handler("tether/weird/topic", []byte(`{"command":"vibrate"}`)); err == nil {
		t.Error("handler accepted a topic outside the command scheme")
	}
	if len(pub.getPublished()) != 0 {
		t.Error("unaddressable message still produced a publish")
	}
}

// recordingCommander captures the last dispatched command.
type recordingCommander struct {
	name string
	args map[string]any
}

func (r *recordingCommander) Command(_ context.Context, name string, args map[string]any) (any, error) {
	r.name = name
	r.args = args
	return nil, nil
}

func TestEventTopicCustomPrefix(t *testing.T) {
	pub := NewMockPublisher()
	b, err := New(config.BridgeConfig{TopicPrefix: "lab", QoS: 0}, pub)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := b.Haptics().Vibrate(feature.PatternLight); err != nil {
		t.Fatalf("Vibrate() error = %v", err)
	}

	msgs := pub.getPublished()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].Topic, "lab/feature/") {
		t.Errorf("topic = %q, want lab/feature/ prefix", msgs[0].Topic)
	}
	if msgs[0].QoS != 0 {
		t.Errorf("qos = %d, want 0", msgs[0].QoS)
	}
}
