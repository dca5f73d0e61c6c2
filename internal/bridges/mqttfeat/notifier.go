package mqttfeat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tetherhq/tether-core/internal/feature"
)

// Notifier renders transient messages by publishing ToastEvent messages.
// It implements feature.Notifier and feature.Commander.
type Notifier struct {
	bridge *Bridge
}

// Show publishes a toast event.
func (n *Notifier) Show(toast feature.Toast) error {
	return n.emit(toast, SourceHub)
}

// Command implements feature.Commander.
//
// Supported operations:
//   - "show" with args {"text": "hello", "duration_ms": 2000}
func (n *Notifier) Command(_ context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "show":
		text, _ := args["text"].(string)
		toast := feature.Toast{Text: text}
		// JSON numbers decode as float64.
		if ms, ok := args["duration_ms"].(float64); ok {
			toast.Duration = time.Duration(ms) * time.Millisecond
		}
		if err := n.emit(toast, SourceAPI); err != nil {
			return nil, err
		}
		return map[string]any{"text": toast.Text}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

func (n *Notifier) emit(toast feature.Toast, source string) error {
	if strings.TrimSpace(toast.Text) == "" {
		return ErrEmptyToast
	}

	event := ToastEvent{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Text:       toast.Text,
		DurationMS: toast.Duration.Milliseconds(),
		Source:     source,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal toast event: %w", err)
	}
	return n.bridge.publish(feature.NotifierID, payload)
}

var (
	_ feature.Notifier  = (*Notifier)(nil)
	_ feature.Commander = (*Notifier)(nil)
)
