package mqttfeat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tetherhq/tether-core/internal/capability"
	"github.com/tetherhq/tether-core/internal/feature"
)

// Subscriber is the interface for MQTT subscriptions used by the command
// stream. The handler uses the bare function signature so tests can fake
// it without the infrastructure package; the runtime satisfies it with a
// thin adapter over the MQTT client.
type Subscriber interface {
	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
}

// StartCommandStream subscribes to {prefix}/feature/+/command and
// dispatches inbound commands to the hub's capabilities.
//
// Each decodable command is routed through hub.Invoke to the capability
// named in the topic, which must implement feature.Commander, and the
// outcome is acknowledged on the capability's ack topic. Dispatching
// through the hub rather than the bridge's own implementations means a
// command reaches whatever is currently registered, a swapped-in test
// double included, and shows up in the hub's diagnostic records.
func (b *Bridge) StartCommandStream(sub Subscriber, hub *capability.Hub) error {
	if sub == nil {
		return ErrNilSubscriber
	}
	if hub == nil {
		return ErrNilHub
	}

	topic := b.commandTopicPattern()
	return sub.Subscribe(topic, byte(b.cfg.QoS), func(t string, p []byte) error {
		return b.handleCommand(hub, t, p)
	})
}

// handleCommand processes one inbound command message. Commands that can
// be attributed to a capability always produce an ack, success or
// failure; the returned error covers only messages no ack can be
// addressed for.
func (b *Bridge) handleCommand(hub *capability.Hub, topic string, payload []byte) error {
	id, err := capabilityFromTopic(topic)
	if err != nil {
		return err
	}

	var req CommandRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("mqttfeat: parse command on %s: %w", topic, err)
	}

	b.log().Debug("received feature command",
		"capability", id,
		"command", req.Command,
		"request_id", req.ID,
	)

	var result any
	invokeErr := hub.Invoke(id, func(impl any) error {
		commander, ok := impl.(feature.Commander)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotCommandable, id)
		}
		var cmdErr error
		result, cmdErr = commander.Command(context.Background(), req.Command, req.Args)
		return cmdErr
	})

	b.publishAck(id, req, result, invokeErr)
	return nil
}

// publishAck acknowledges a command on the capability's ack topic.
func (b *Bridge) publishAck(id capability.ID, req CommandRequest, result any, cmdErr error) {
	ack := CommandAck{
		ID:         req.ID,
		Timestamp:  time.Now().UTC(),
		Capability: string(id),
		Command:    req.Command,
		OK:         cmdErr == nil,
		Result:     result,
	}
	if ack.ID == "" {
		ack.ID = uuid.NewString()
	}
	if cmdErr != nil {
		ack.Error = cmdErr.Error()
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		b.log().Warn("failed to marshal command ack", "capability", id, "error", err)
		return
	}

	topic := b.ackTopic(id)
	if err := b.pub.Publish(topic, payload, byte(b.cfg.QoS), false); err != nil {
		b.log().Warn("failed to publish command ack", "topic", topic, "error", err)
	}
}

// capabilityFromTopic extracts the capability identifier from a command
// topic of the form {prefix}/feature/{capability}/command.
func capabilityFromTopic(topic string) (capability.ID, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[len(parts)-1] != "command" || parts[len(parts)-3] != "feature" {
		return "", fmt.Errorf("mqttfeat: unexpected command topic %q", topic)
	}

	id := capability.ID(parts[len(parts)-2])
	if err := id.Validate(); err != nil {
		return "", fmt.Errorf("mqttfeat: command topic %q: %w", topic, err)
	}
	return id, nil
}
