package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tetherhq/tether-core/internal/capability"
)

// memoryRepo collects created records for assertions.
type memoryRepo struct {
	mu      sync.Mutex
	records []StoredRecord
	err     error
}

func (r *memoryRepo) Create(_ context.Context, rec *StoredRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, *rec)
	return nil
}

func (r *memoryRepo) List(context.Context, Filter) (*ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StoredRecord, len(r.records))
	copy(out, r.records)
	return &ListResult{Records: out, Total: len(out)}, nil
}

func (r *memoryRepo) stored() []StoredRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StoredRecord, len(r.records))
	copy(out, r.records)
	return out
}

// discardLogger satisfies Logger for tests.
type discardLogger struct{}

func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

// fakeMetrics captures invoke metric writes.
type fakeMetrics struct {
	mu     sync.Mutex
	writes []string
}

func (m *fakeMetrics) WriteInvokeMetric(hub, capability, outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, hub+"/"+capability+"/"+outcome)
}

func TestSinkPersistsRecords(t *testing.T) {
	repo := &memoryRepo{}
	sink := NewSink(repo, discardLogger{})

	sink.Record(capability.Record{
		Hub:        "default",
		Op:         capability.OpInvoke,
		Capability: "feature.haptics",
		Outcome:    capability.OutcomeOK,
		Duration:   420 * time.Microsecond,
		At:         time.Now(),
	})
	sink.Close()

	stored := repo.stored()
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(stored))
	}
	rec := stored[0]
	if rec.Hub != "default" || rec.Op != "invoke" || rec.Capability != "feature.haptics" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.DurationMS != 0.42 {
		t.Errorf("DurationMS = %v, want 0.42", rec.DurationMS)
	}
}

func TestSinkCloseDrainsBuffer(t *testing.T) {
	repo := &memoryRepo{}
	sink := NewSink(repo, discardLogger{})

	const n = 50
	for i := 0; i < n; i++ {
		sink.Record(capability.Record{
			Hub:        "default",
			Op:         capability.OpRegister,
			Capability: "feature.haptics",
			Outcome:    capability.OutcomeRegistered,
		})
	}
	sink.Close()

	if got := len(repo.stored()); got != n {
		t.Errorf("stored %d records after Close, want %d", got, n)
	}
}

func TestSinkRecordAfterClose(t *testing.T) {
	repo := &memoryRepo{}
	sink := NewSink(repo, discardLogger{})
	sink.Close()

	// Must not panic and must not store.
	sink.Record(capability.Record{Hub: "default", Op: capability.OpInvoke})

	if got := len(repo.stored()); got != 0 {
		t.Errorf("stored %d records after Close, want 0", got)
	}
}

func TestSinkCloseIdempotent(t *testing.T) {
	sink := NewSink(&memoryRepo{}, discardLogger{})
	sink.Close()
	sink.Close()
}

func TestSinkBroadcast(t *testing.T) {
	repo := &memoryRepo{}
	sink := NewSink(repo, discardLogger{})

	var mu sync.Mutex
	var seen []StoredRecord
	sink.SetBroadcast(func(rec StoredRecord) {
		mu.Lock()
		seen = append(seen, rec)
		mu.Unlock()
	})

	sink.Record(capability.Record{
		Hub:        "default",
		Op:         capability.OpUnregister,
		Capability: "feature.notifier",
		Outcome:    capability.OutcomeUnregistered,
	})
	sink.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("broadcast saw %d records, want 1", len(seen))
	}
	if seen[0].Op != "unregister" {
		t.Errorf("broadcast record op = %q, want unregister", seen[0].Op)
	}
}

func TestSinkMetricsOnlyForInvokes(t *testing.T) {
	repo := &memoryRepo{}
	metrics := &fakeMetrics{}
	sink := NewSink(repo, discardLogger{})
	sink.SetMetrics(metrics)

	sink.Record(capability.Record{
		Hub:        "default",
		Op:         capability.OpRegister,
		Capability: "feature.haptics",
		Outcome:    capability.OutcomeRegistered,
	})
	sink.Record(capability.Record{
		Hub:        "default",
		Op:         capability.OpInvoke,
		Capability: "feature.haptics",
		Outcome:    capability.OutcomeOK,
		Duration:   time.Millisecond,
	})
	sink.Close()

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if len(metrics.writes) != 1 {
		t.Fatalf("metrics received %d writes, want 1", len(metrics.writes))
	}
	if metrics.writes[0] != "default/feature.haptics/ok" {
		t.Errorf("metric write = %q", metrics.writes[0])
	}
}

func TestSinkSurvivesRepositoryError(t *testing.T) {
	repo := &memoryRepo{err: context.DeadlineExceeded}
	sink := NewSink(repo, discardLogger{})

	sink.Record(capability.Record{Hub: "default", Op: capability.OpInvoke})
	sink.Record(capability.Record{Hub: "default", Op: capability.OpInvoke})
	sink.Close()
}
