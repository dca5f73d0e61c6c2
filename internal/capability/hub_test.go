package capability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tetherhq/tether-core/internal/mainloop"
)

// fakeImpl is a stand-in platform implementation.
type fakeImpl struct {
	label string
}

// fakeRecorder captures diagnostic records.
type fakeRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *fakeRecorder) Record(rec Record) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

func (r *fakeRecorder) snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

const testID = ID("feature.test")

// TestRegisterLookup_LastWriteWins verifies lookup always returns the most
// recently registered implementation.
//
// Replacement rather than rejection is the contract here: re-registering
// an identifier swaps in the new implementation (hot-swapping mocks for
// real adapters). A "reject duplicate registration" policy was considered
// and deliberately not chosen.
func TestRegisterLookup_LastWriteWins(t *testing.T) {
	hub := New("test")

	if _, ok := hub.Lookup(testID); ok {
		t.Fatal("Lookup on empty hub returned an implementation")
	}

	first := &fakeImpl{label: "first"}
	second := &fakeImpl{label: "second"}

	if err := hub.Register(testID, first); err != nil {
		t.Fatalf("Register(first) = %v", err)
	}
	if impl, ok := hub.Lookup(testID); !ok || impl != first {
		t.Fatalf("Lookup = %v, %v; want first, true", impl, ok)
	}

	if err := hub.Register(testID, second); err != nil {
		t.Fatalf("Register(second) = %v", err)
	}
	if impl, ok := hub.Lookup(testID); !ok || impl != second {
		t.Fatalf("Lookup after replace = %v, %v; want second, true", impl, ok)
	}
	if hub.Count() != 1 {
		t.Fatalf("Count() = %d after replace, want 1", hub.Count())
	}

	hub.Unregister(testID)
	if _, ok := hub.Lookup(testID); ok {
		t.Fatal("Lookup after Unregister returned an implementation")
	}
}

// TestRegister_Validation rejects unusable registrations.
func TestRegister_Validation(t *testing.T) {
	hub := New("test")

	if err := hub.Register(ID(""), &fakeImpl{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("Register(empty id) = %v, want ErrInvalidID", err)
	}
	if err := hub.Register(ID("has space"), &fakeImpl{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("Register(id with space) = %v, want ErrInvalidID", err)
	}
	if err := hub.Register(testID, nil); !errors.Is(err, ErrNilImplementation) {
		t.Fatalf("Register(nil impl) = %v, want ErrNilImplementation", err)
	}
}

// TestUnregister_AbsentIsNoop verifies unregistering a missing identifier
// is not an error.
func TestUnregister_AbsentIsNoop(t *testing.T) {
	hub := New("test")

	if hub.Unregister(testID) {
		t.Fatal("Unregister on empty hub reported removal")
	}

	_ = hub.Register(testID, &fakeImpl{})
	if !hub.Unregister(testID) {
		t.Fatal("Unregister did not report removal of existing entry")
	}
	if hub.Unregister(testID) {
		t.Fatal("second Unregister reported removal")
	}
}

// TestHubIsolation verifies independently created hubs share no state.
func TestHubIsolation(t *testing.T) {
	hub1 := New("subsystem-a")
	hub2 := New("subsystem-b")

	implA := &fakeImpl{label: "a"}
	implB := &fakeImpl{label: "b"}

	_ = hub2.Register(testID, implB)
	_ = hub1.Register(testID, implA)

	if impl, _ := hub2.Lookup(testID); impl != implB {
		t.Fatal("registration in hub1 affected hub2")
	}

	hub1.Unregister(testID)
	if _, ok := hub2.Lookup(testID); !ok {
		t.Fatal("unregister in hub1 removed hub2's entry")
	}
	if hub1.InstanceID() == hub2.InstanceID() {
		t.Fatal("hubs share an instance ID")
	}
}

// TestInvoke_NotRegistered verifies the explicit not-registered signal.
func TestInvoke_NotRegistered(t *testing.T) {
	hub := New("test")

	called := false
	err := hub.Invoke(testID, func(any) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("Invoke on empty hub = %v, want ErrNotRegistered", err)
	}
	if called {
		t.Fatal("call ran despite missing registration")
	}
}

// TestInvoke_AppliesCall verifies the happy path.
func TestInvoke_AppliesCall(t *testing.T) {
	hub := New("test")
	impl := &fakeImpl{label: "real"}
	_ = hub.Register(testID, impl)

	var got any
	if err := hub.Invoke(testID, func(i any) error {
		got = i
		return nil
	}); err != nil {
		t.Fatalf("Invoke = %v", err)
	}
	if got != impl {
		t.Fatalf("call received %v, want registered implementation", got)
	}
}

// TestInvoke_PropagatesImplementationError verifies implementation errors
// reach the caller unchanged, neither wrapped nor swallowed.
func TestInvoke_PropagatesImplementationError(t *testing.T) {
	hub := New("test")
	_ = hub.Register(testID, &fakeImpl{})

	implErr := errors.New("haptic motor offline")
	err := hub.Invoke(testID, func(any) error { return implErr })
	if err != implErr {
		t.Fatalf("Invoke = %v, want the exact implementation error", err)
	}
}

// TestInvoke_CallRunsOutsideLock verifies a hub operation issued from
// inside an invoke call does not deadlock, and that a slow call does not
// block unrelated mutations.
func TestInvoke_CallRunsOutsideLock(t *testing.T) {
	hub := New("test")
	_ = hub.Register(testID, &fakeImpl{label: "v1"})

	// Re-entrant: the implementation replaces itself during the call.
	replacement := &fakeImpl{label: "v2"}
	err := hub.Invoke(testID, func(any) error {
		return hub.Register(testID, replacement)
	})
	if err != nil {
		t.Fatalf("re-entrant Invoke = %v", err)
	}
	if impl, _ := hub.Lookup(testID); impl != replacement {
		t.Fatal("re-entrant registration not visible after Invoke")
	}

	// Concurrent: a parked call must not hold the hub's lock.
	otherID := ID("feature.other")
	parked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = hub.Invoke(testID, func(any) error {
			close(parked)
			<-release
			return nil
		})
	}()
	<-parked

	registered := make(chan error, 1)
	go func() { registered <- hub.Register(otherID, &fakeImpl{}) }()
	select {
	case err := <-registered:
		if err != nil {
			t.Fatalf("Register during parked invoke = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Register blocked behind an in-flight implementation call")
	}
	close(release)
}

// TestInvoke_PanicPropagatesAndHubSurvives verifies a panicking
// implementation neither corrupts nor locks the hub.
func TestInvoke_PanicPropagatesAndHubSurvives(t *testing.T) {
	hub := New("test")
	_ = hub.Register(testID, &fakeImpl{})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("implementation panic did not propagate")
			}
		}()
		_ = hub.Invoke(testID, func(any) error { panic("implementation exploded") })
	}()

	// Hub still fully operational.
	if err := hub.Invoke(testID, func(any) error { return nil }); err != nil {
		t.Fatalf("Invoke after panic = %v", err)
	}
}

// TestInvokeOnMain verifies composition with the main loop dispatcher.
func TestInvokeOnMain(t *testing.T) {
	hub := New("test")
	_ = hub.Register(testID, &fakeImpl{})

	// No loop configured.
	if err := hub.InvokeOnMain(testID, func(any) {}); !errors.Is(err, ErrNoMainLoop) {
		t.Fatalf("InvokeOnMain without loop = %v, want ErrNoMainLoop", err)
	}

	loop := mainloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	hub.SetMainLoop(loop)

	// Missing capability still signals explicitly.
	if err := hub.InvokeOnMain(ID("feature.absent"), func(any) {}); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("InvokeOnMain(absent) = %v, want ErrNotRegistered", err)
	}

	// From a background goroutine the call lands on the loop goroutine.
	onMain := make(chan bool, 1)
	if err := hub.InvokeOnMain(testID, func(any) { onMain <- loop.IsMain() }); err != nil {
		t.Fatalf("InvokeOnMain = %v", err)
	}
	select {
	case ok := <-onMain:
		if !ok {
			t.Fatal("call did not execute on the loop goroutine")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispatched call never executed")
	}
}

// TestInvokeOnMain_RecordsDispatchNotCompletion verifies the diagnostic
// record for a main-loop invoke reports the hand-off, not a terminal
// outcome. The loop here is never started, so the call never runs and an
// "ok" record would be a lie.
func TestInvokeOnMain_RecordsDispatchNotCompletion(t *testing.T) {
	hub := New("test")
	rec := &fakeRecorder{}
	hub.SetRecorder(rec)
	hub.SetMainLoop(mainloop.New())
	hub.SetDebug(true)
	_ = hub.Register(testID, &fakeImpl{})

	ran := false
	if err := hub.InvokeOnMain(testID, func(any) { ran = true }); err != nil {
		t.Fatalf("InvokeOnMain = %v", err)
	}
	if ran {
		t.Fatal("call ran without the loop running")
	}

	got := rec.snapshot()
	last := got[len(got)-1]
	if last.Op != OpInvoke || last.Outcome != OutcomeDispatched {
		t.Fatalf("record = %s/%s, want %s/%s", last.Op, last.Outcome, OpInvoke, OutcomeDispatched)
	}
}

// TestDebugRecords verifies the debug flag gates diagnostic emission and
// that operations produce the expected records.
func TestDebugRecords(t *testing.T) {
	hub := New("diag")
	rec := &fakeRecorder{}
	hub.SetRecorder(rec)

	// Debug off: nothing emitted.
	_ = hub.Register(testID, &fakeImpl{})
	hub.Unregister(testID)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("records emitted with debug disabled: %d", len(got))
	}

	hub.SetDebug(true)
	if !hub.DebugEnabled() {
		t.Fatal("DebugEnabled() = false after SetDebug(true)")
	}

	_ = hub.RegisterFrom(testID, &fakeImpl{}, "test-double")
	_ = hub.Register(testID, &fakeImpl{})
	_ = hub.Invoke(testID, func(any) error { return nil })
	_ = hub.Invoke(testID, func(any) error { return errors.New("boom") })
	_ = hub.Invoke(ID("feature.absent"), func(any) error { return nil })
	hub.Unregister(testID)

	want := []struct {
		op      string
		outcome string
	}{
		{OpRegister, OutcomeRegistered},
		{OpRegister, OutcomeReplaced},
		{OpInvoke, OutcomeOK},
		{OpInvoke, OutcomeError},
		{OpInvoke, OutcomeNotRegistered},
		{OpUnregister, OutcomeUnregistered},
	}

	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Op != w.op || got[i].Outcome != w.outcome {
			t.Errorf("record[%d] = %s/%s, want %s/%s", i, got[i].Op, got[i].Outcome, w.op, w.outcome)
		}
		if got[i].Hub != "diag" {
			t.Errorf("record[%d].Hub = %q", i, got[i].Hub)
		}
		if got[i].At.IsZero() {
			t.Errorf("record[%d] missing timestamp", i)
		}
	}
	if got[0].Detail != "test-double" {
		t.Errorf("register record lost source metadata: %q", got[0].Detail)
	}

	// Behaviour must be identical with debug on; spot-check state.
	if hub.Count() != 0 {
		t.Fatalf("Count() = %d after final unregister", hub.Count())
	}
}

// TestSnapshot verifies sorted inspection output.
func TestSnapshot(t *testing.T) {
	hub := New("test")
	_ = hub.RegisterFrom(ID("feature.toast"), &fakeImpl{}, "bridge")
	_ = hub.Register(ID("feature.haptics"), &fakeImpl{})

	entries := hub.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("Snapshot() returned %d entries, want 2", len(entries))
	}
	if entries[0].ID != ID("feature.haptics") || entries[1].ID != ID("feature.toast") {
		t.Fatalf("Snapshot not sorted: %v, %v", entries[0].ID, entries[1].ID)
	}
	if entries[1].Source != "bridge" {
		t.Errorf("entry source = %q, want bridge", entries[1].Source)
	}
	if entries[0].ImplType() != "*capability.fakeImpl" {
		t.Errorf("ImplType() = %q", entries[0].ImplType())
	}
	if entries[0].RegisteredAt.IsZero() {
		t.Error("entry missing registration timestamp")
	}
}

// TestResolve verifies the typed lookup helper.
func TestResolve(t *testing.T) {
	hub := New("test")
	impl := &fakeImpl{label: "typed"}
	_ = hub.Register(testID, impl)

	got, err := Resolve[*fakeImpl](hub, testID)
	if err != nil {
		t.Fatalf("Resolve = %v", err)
	}
	if got != impl {
		t.Fatal("Resolve returned a different implementation")
	}

	if _, err := Resolve[*fakeImpl](hub, ID("feature.absent")); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("Resolve(absent) = %v, want ErrNotRegistered", err)
	}

	type otherContract interface{ Nope() }
	if _, err := Resolve[otherContract](hub, testID); !errors.Is(err, ErrContractMismatch) {
		t.Fatalf("Resolve(wrong contract) = %v, want ErrContractMismatch", err)
	}
}

// TestConcurrencyStress hammers one hub from many goroutines with mixed
// register/unregister/invoke traffic on a shared identifier, then checks
// the hub settles into a consistent state under its total order.
func TestConcurrencyStress(t *testing.T) {
	const (
		goroutines = 8
		opsEach    = 1000
	)

	hub := New("stress")
	shared := ID("feature.shared")

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < opsEach; i++ {
				switch i % 3 {
				case 0:
					if err := hub.Register(shared, &fakeImpl{label: fmt.Sprintf("g%d-%d", g, i)}); err != nil {
						t.Errorf("Register: %v", err)
						return
					}
				case 1:
					err := hub.Invoke(shared, func(any) error { return nil })
					if err != nil && !errors.Is(err, ErrNotRegistered) {
						t.Errorf("Invoke: %v", err)
						return
					}
				case 2:
					hub.Unregister(shared)
				}

				// The shared identifier holds at most one entry at any
				// observable point; replacement never duplicates.
				if n := hub.Count(); n > 1 {
					t.Errorf("Count() = %d, entries duplicated", n)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	entries := hub.Snapshot()
	seen := make(map[ID]bool)
	for _, e := range entries {
		if seen[e.ID] {
			t.Fatalf("duplicate entry for %s in final snapshot", e.ID)
		}
		seen[e.ID] = true
	}

	// Apply one final operation; it is the last write in the total order,
	// so lookup must observe exactly it.
	final := &fakeImpl{label: "final"}
	if err := hub.Register(shared, final); err != nil {
		t.Fatalf("final Register = %v", err)
	}
	if impl, ok := hub.Lookup(shared); !ok || impl != final {
		t.Fatalf("Lookup after final register = %v, %v; want final impl", impl, ok)
	}
	hub.Unregister(shared)
	if _, ok := hub.Lookup(shared); ok {
		t.Fatal("entry survived final unregister")
	}
}
