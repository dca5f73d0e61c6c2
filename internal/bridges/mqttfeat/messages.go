package mqttfeat

import (
	"time"
)

// MQTT message types published by the feature bridge. Renderers subscribe
// to the event topics and perform the actual platform effect.

// HapticEvent asks a renderer to play a haptic pattern.
// Topic: {prefix}/feature/feature.haptics/event
type HapticEvent struct {
	// ID uniquely identifies this event for renderer-side deduplication.
	ID string `json:"id"`

	// Timestamp is when the event was published (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Pattern is the feedback style (e.g., "light", "success", "error").
	Pattern string `json:"pattern"`

	// Source indicates where the event originated.
	// Values: "hub", "api"
	Source string `json:"source"`
}

// ToastEvent asks a renderer to display a transient message.
// Topic: {prefix}/feature/feature.notifier/event
type ToastEvent struct {
	// ID uniquely identifies this event for renderer-side deduplication.
	ID string `json:"id"`

	// Timestamp is when the event was published (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Text is the message to display.
	Text string `json:"text"`

	// DurationMS is the display duration in milliseconds. Zero means the
	// renderer's default.
	DurationMS int64 `json:"duration_ms,omitempty"`

	// Source indicates where the event originated.
	// Values: "hub", "api"
	Source string `json:"source"`
}

// CommandRequest is an inbound command directed at a bridge-registered
// capability.
// Topic: {prefix}/feature/{capability}/command
type CommandRequest struct {
	// ID correlates the acknowledgement with this request. Optional; the
	// bridge generates one when absent so every ack is identifiable.
	ID string `json:"id,omitempty"`

	// Command is the operation name understood by the capability
	// (e.g., "vibrate", "show").
	Command string `json:"command"`

	// Args carries the operation's parameters.
	Args map[string]any `json:"args,omitempty"`
}

// CommandAck reports the outcome of a CommandRequest.
// Topic: {prefix}/feature/{capability}/ack
type CommandAck struct {
	// ID matches the request's ID, or is generated when the request
	// carried none.
	ID string `json:"id"`

	// Timestamp is when the ack was published (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Capability is the identifier the command was addressed to.
	Capability string `json:"capability"`

	// Command echoes the requested operation name.
	Command string `json:"command"`

	// OK reports whether the command was dispatched successfully.
	OK bool `json:"ok"`

	// Result is the capability's result payload, if any.
	Result any `json:"result,omitempty"`

	// Error describes the failure when OK is false.
	Error string `json:"error,omitempty"`
}

// Event sources.
const (
	// SourceHub marks events triggered through the capability contract.
	SourceHub = "hub"

	// SourceAPI marks events triggered through the Commander contract,
	// whether the caller was the inspection API or a broker command.
	SourceAPI = "api"
)
