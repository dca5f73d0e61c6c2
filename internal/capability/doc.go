// Package capability provides the capability hub for Tether Core.
//
// The hub is the directory at the centre of the feature bridge: shared
// application code declares what it needs as an interface (haptics, toast
// messages), platform bootstrap code registers a concrete implementation
// under a stable capability identifier, and shared code looks the
// implementation up or invokes it through the hub without knowing which
// platform supplied it.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────────┐
//	│                          Capability Hub                           │
//	│                                                                   │
//	│  ┌───────────────┐   ┌────────────────┐   ┌────────────────────┐  │
//	│  │      Hub      │   │  relock.Lock   │   │   mainloop.Loop    │  │
//	│  │   (hub.go)    │──▶│  (reentrant)   │   │  (UI dispatch)     │  │
//	│  │               │   │                │   │                    │  │
//	│  │ • register    │   │ • linearises   │   │ • InvokeOnMain     │  │
//	│  │ • lookup      │   │   all hub ops  │   │   hops here, lock  │  │
//	│  │ • invoke      │   │ • safe nesting │   │   already released │  │
//	│  └───────────────┘   └────────────────┘   └────────────────────┘  │
//	│          │                                                        │
//	└──────────│────────────────────────────────────────────────────────┘
//	           ▼
//	┌────────────────────┐
//	│ Recorder (audit)   │  diagnostic records when debug is enabled
//	└────────────────────┘
//
// # Key Types
//
//   - ID: stable, explicit capability identifier (never derived from an
//     implementation value)
//   - Entry: one registration (identifier, implementation, debug metadata)
//   - Hub: the registry instance; independent instances share no state
//   - Record: a diagnostic record of one hub operation
//
// # Usage
//
//	hub := capability.New("default")
//	hub.SetLogger(log)
//
//	// Platform bootstrap registers implementations.
//	_ = hub.Register(feature.HapticsID, platformHaptics)
//
//	// Shared code invokes through the hub.
//	err := hub.Invoke(feature.HapticsID, func(impl any) error {
//	    return impl.(feature.Haptics).Vibrate(feature.PatternSuccess)
//	})
//
//	// Or resolves a typed handle.
//	h, err := capability.Resolve[feature.Haptics](hub, feature.HapticsID)
//
// Registering an identifier that already has an implementation replaces
// it. Last-write-wins is deliberate: swapping a real implementation for a
// test double at runtime is a supported workflow, not a conflict.
//
// # Ownership
//
// The hub holds a reference sufficient to invoke an implementation but
// never owns it. If an implementation wraps a resource with a shorter
// lifetime than the hub, the registering party must unregister it before
// that resource goes away; the hub does not guard invocations against a
// dead backing resource.
//
// # Thread Safety
//
// All Hub methods are safe for concurrent use. Operations on one hub are
// linearised by its reentrant lock; implementation calls happen outside
// the lock so a slow implementation cannot stall unrelated hub traffic.
package capability
