package mqttfeat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tetherhq/tether-core/internal/feature"
)

// Haptics renders haptic feedback by publishing HapticEvent messages.
// It implements feature.Haptics and feature.Commander.
type Haptics struct {
	bridge *Bridge
}

// Vibrate publishes a haptic event for the given pattern.
func (h *Haptics) Vibrate(pattern feature.Pattern) error {
	return h.emit(pattern, SourceHub)
}

// Command implements feature.Commander.
//
// Supported operations:
//   - "vibrate" with args {"pattern": "light"}
func (h *Haptics) Command(_ context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "vibrate":
		pattern, _ := args["pattern"].(string)
		if err := h.emit(feature.Pattern(pattern), SourceAPI); err != nil {
			return nil, err
		}
		return map[string]any{"pattern": pattern}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

func (h *Haptics) emit(pattern feature.Pattern, source string) error {
	if !pattern.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	event := HapticEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Pattern:   string(pattern),
		Source:    source,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal haptic event: %w", err)
	}
	return h.bridge.publish(feature.HapticsID, payload)
}

var (
	_ feature.Haptics   = (*Haptics)(nil)
	_ feature.Commander = (*Haptics)(nil)
)
