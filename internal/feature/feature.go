// Package feature declares the standard capability contracts that shared
// application code consumes through a hub.
//
// Each contract is a small interface plus the stable capability.ID it is
// registered under. Platform code (a mobile shim, a wall panel bridge, a
// test double) supplies the implementation; nothing in this package
// constructs one. The hub performs no validation beyond interface
// satisfaction, so contracts here are the whole agreement between shared
// and platform code.
package feature

import (
	"context"
	"time"

	"github.com/tetherhq/tether-core/internal/capability"
)

// Capability identifiers for the standard contracts. Declared next to the
// contract they name and nowhere else; these strings are the registry
// keys, so they never change once shipped.
const (
	// HapticsID identifies the haptic feedback capability.
	HapticsID = capability.ID("feature.haptics")

	// NotifierID identifies the transient on-screen message capability.
	NotifierID = capability.ID("feature.notifier")
)

// Pattern selects a haptic feedback style.
type Pattern string

// Haptic feedback patterns, mirroring the vocabulary of mobile haptic
// engines.
const (
	PatternLight   Pattern = "light"
	PatternMedium  Pattern = "medium"
	PatternHeavy   Pattern = "heavy"
	PatternSuccess Pattern = "success"
	PatternWarning Pattern = "warning"
	PatternError   Pattern = "error"
)

// Valid reports whether p is a known pattern.
func (p Pattern) Valid() bool {
	switch p {
	case PatternLight, PatternMedium, PatternHeavy, PatternSuccess, PatternWarning, PatternError:
		return true
	}
	return false
}

// Haptics is the haptic feedback contract.
//
// Implementations that drive native UI hardware must arrange their own
// main-thread affinity (typically via Hub.InvokeOnMain); the contract
// itself makes no threading promise.
type Haptics interface {
	// Vibrate plays the given feedback pattern. Unknown patterns are an
	// implementation error, not a silent no-op.
	Vibrate(pattern Pattern) error
}

// Toast is a transient on-screen message.
type Toast struct {
	Text     string        `json:"text"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Notifier is the transient message contract ("toast" on Android, a HUD
// overlay elsewhere).
type Notifier interface {
	// Show displays the toast. Implementations decide placement and
	// styling; Duration zero means the platform default.
	Show(toast Toast) error
}

// Commander is the opt-in remote invocation contract used by the
// inspection API. Implementations that want to be invokable over HTTP
// (for development tooling) implement it in addition to their primary
// contract; the registry itself neither requires nor inspects it.
type Commander interface {
	// Command executes a named operation with free-form arguments and
	// returns an optional result payload.
	Command(ctx context.Context, name string, args map[string]any) (any, error)
}
