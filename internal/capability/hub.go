package capability

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tetherhq/tether-core/internal/mainloop"
	"github.com/tetherhq/tether-core/internal/relock"
)

// Logger defines the logging interface used by the Hub.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Entry is one registration held by a hub.
type Entry struct {
	// ID is the capability identifier the entry is stored under.
	ID ID `json:"id"`

	// Impl is the registered implementation. The hub treats it as opaque.
	Impl any `json:"-"`

	// Source is optional debug metadata naming the registering party,
	// e.g. "mqtt-bridge" or "test-double".
	Source string `json:"source,omitempty"`

	// RegisteredAt records when this entry (or its latest replacement)
	// was stored. Diagnostic only.
	RegisteredAt time.Time `json:"registered_at"`
}

// ImplType returns the dynamic type of the implementation, for inspection
// surfaces. Never used as a registry key.
func (e Entry) ImplType() string {
	return fmt.Sprintf("%T", e.Impl)
}

// Hub is a capability registry instance.
//
// Each hub owns its own entry map and reentrant lock; independently
// created hubs share no state, so two subsystems can hold different
// implementations for the same capability contract. There is no hidden
// process-wide hub; the application root constructs one and designates
// it "default" by convention.
//
// Thread Safety: all methods are safe for concurrent use. Operations on
// one hub appear in a single total order established by its lock.
type Hub struct {
	name       string
	instanceID string
	createdAt  time.Time

	lk      relock.Lock
	entries map[ID]Entry

	// debug gates diagnostic emission. Read lock-free on every operation.
	debug atomic.Bool

	logger   Logger
	recorder Recorder
	loop     *mainloop.Loop
}

// New creates an empty hub with the given name.
//
// The name is a label for logs and the inspection API; it carries no
// registry semantics. Uniqueness across hubs is the caller's concern.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		instanceID: uuid.NewString(),
		createdAt:  time.Now().UTC(),
		entries:    make(map[ID]Entry),
		logger:     noopLogger{},
		recorder:   noopRecorder{},
	}
}

// SetLogger sets the logger for the hub.
func (h *Hub) SetLogger(logger Logger) {
	_ = h.lk.Do(func() error {
		h.logger = logger
		return nil
	})
}

// SetRecorder sets the diagnostic record sink for the hub.
func (h *Hub) SetRecorder(recorder Recorder) {
	_ = h.lk.Do(func() error {
		h.recorder = recorder
		return nil
	})
}

// SetMainLoop attaches the UI run loop used by InvokeOnMain.
func (h *Hub) SetMainLoop(loop *mainloop.Loop) {
	_ = h.lk.Do(func() error {
		h.loop = loop
		return nil
	})
}

// Name returns the hub's label.
func (h *Hub) Name() string {
	return h.name
}

// InstanceID returns the unique identity of this hub instance.
func (h *Hub) InstanceID() string {
	return h.instanceID
}

// CreatedAt returns when the hub was constructed.
func (h *Hub) CreatedAt() time.Time {
	return h.createdAt
}

// SetDebug toggles diagnostic record emission.
func (h *Hub) SetDebug(enabled bool) {
	h.debug.Store(enabled)
}

// DebugEnabled reports whether diagnostics are being emitted.
func (h *Hub) DebugEnabled() bool {
	return h.debug.Load()
}

// Register stores impl under id, replacing any existing registration.
//
// Replacement is last-write-wins and atomic with respect to every other
// operation on this hub: concurrent lookups observe either the old or the
// new implementation, never a partial state. Re-registration is how test
// doubles and hot-swapped adapters get installed, so it is legal, not a
// conflict.
func (h *Hub) Register(id ID, impl any) error {
	return h.RegisterFrom(id, impl, "")
}

// RegisterFrom is Register with debug metadata naming the registering
// party (e.g. the platform bridge that supplied the implementation).
func (h *Hub) RegisterFrom(id ID, impl any, source string) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if impl == nil {
		return fmt.Errorf("%w: %s", ErrNilImplementation, id)
	}

	replaced := false
	_ = h.lk.Do(func() error {
		_, replaced = h.entries[id]
		h.entries[id] = Entry{
			ID:           id,
			Impl:         impl,
			Source:       source,
			RegisteredAt: time.Now().UTC(),
		}
		return nil
	})

	outcome := OutcomeRegistered
	if replaced {
		outcome = OutcomeReplaced
	}
	h.emit(Record{Op: OpRegister, Capability: id, Outcome: outcome, Detail: source})
	return nil
}

// Unregister removes the entry for id and reports whether one existed.
// Unregistering an absent identifier is a no-op, not an error.
func (h *Hub) Unregister(id ID) bool {
	removed := false
	_ = h.lk.Do(func() error {
		_, removed = h.entries[id]
		delete(h.entries, id)
		return nil
	})

	outcome := OutcomeAbsent
	if removed {
		outcome = OutcomeUnregistered
	}
	h.emit(Record{Op: OpUnregister, Capability: id, Outcome: outcome})
	return removed
}

// Lookup returns the current implementation for id, or false if none is
// registered. It never invokes the implementation.
func (h *Hub) Lookup(id ID) (any, bool) {
	var impl any
	found := false
	_ = h.lk.Do(func() error {
		if e, ok := h.entries[id]; ok {
			impl = e.Impl
			found = true
		}
		return nil
	})
	return impl, found
}

// Invoke looks up the implementation for id and applies call to it.
//
// The lookup runs under the hub's lock; the call itself runs outside it,
// so a slow implementation cannot stall registry mutations. An error from
// the implementation propagates to the caller unchanged; the hub neither
// catches nor wraps it. A missing registration returns ErrNotRegistered.
func (h *Hub) Invoke(id ID, call func(impl any) error) error {
	impl, found := h.Lookup(id)
	if !found {
		h.emit(Record{Op: OpInvoke, Capability: id, Outcome: OutcomeNotRegistered})
		return fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}

	start := time.Now()
	outcome := OutcomePanic // overwritten unless call panics
	var callErr error
	defer func() {
		rec := Record{
			Op:         OpInvoke,
			Capability: id,
			Outcome:    outcome,
			Duration:   time.Since(start),
		}
		if callErr != nil {
			rec.Detail = callErr.Error()
		}
		h.emit(rec)
	}()

	callErr = call(impl)
	if callErr != nil {
		outcome = OutcomeError
	} else {
		outcome = OutcomeOK
	}
	return callErr
}

// InvokeOnMain looks up the implementation for id and guarantees call
// runs on the hub's main loop.
//
// The lock is released before the thread hop: from the loop goroutine the
// call runs synchronously, from anywhere else it is scheduled and
// InvokeOnMain returns without waiting for it. Requires a loop configured
// via SetMainLoop.
func (h *Hub) InvokeOnMain(id ID, call func(impl any)) error {
	var loop *mainloop.Loop
	_ = h.lk.Do(func() error {
		loop = h.loop
		return nil
	})
	if loop == nil {
		return ErrNoMainLoop
	}

	impl, found := h.Lookup(id)
	if !found {
		h.emit(Record{Op: OpInvoke, Capability: id, Outcome: OutcomeNotRegistered})
		return fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}

	// The record marks the hand-off only. InvokeOnMain never waits for the
	// call, so it cannot report a terminal outcome.
	h.emit(Record{Op: OpInvoke, Capability: id, Outcome: OutcomeDispatched})
	loop.RunOnMain(func() { call(impl) })
	return nil
}

// Snapshot returns a copy of all entries, sorted by identifier.
// The implementations themselves are shared references; the hub never
// copies what it does not own.
func (h *Hub) Snapshot() []Entry {
	var entries []Entry
	_ = h.lk.Do(func() error {
		entries = make([]Entry, 0, len(h.entries))
		for _, e := range h.entries {
			entries = append(entries, e)
		}
		return nil
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Count returns the number of registered capabilities.
func (h *Hub) Count() int {
	n := 0
	_ = h.lk.Do(func() error {
		n = len(h.entries)
		return nil
	})
	return n
}

// emit publishes a diagnostic record when debug is enabled. Called outside
// the hub's lock for invoke outcomes, and after mutation for the rest, so
// a slow recorder never extends the critical section.
func (h *Hub) emit(rec Record) {
	if !h.debug.Load() {
		return
	}

	rec.Hub = h.name
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	var logger Logger
	var recorder Recorder
	_ = h.lk.Do(func() error {
		logger = h.logger
		recorder = h.recorder
		return nil
	})

	logger.Debug("hub operation",
		"hub", rec.Hub,
		"op", rec.Op,
		"capability", rec.Capability.String(),
		"outcome", rec.Outcome,
	)
	recorder.Record(rec)
}
