package audit

import (
	"context"
	"sync"
	"time"

	"github.com/tetherhq/tether-core/internal/capability"
)

// sinkBuffer is the number of records the sink queues before dropping.
// Hub operations must never block on diagnostics.
const sinkBuffer = 256

// writeTimeout bounds a single repository insert.
const writeTimeout = 5 * time.Second

// Logger is the minimal logging surface the sink needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsWriter receives invoke measurements. Satisfied by influxdb.Client.
type MetricsWriter interface {
	WriteInvokeMetric(hub, capability, outcome string, durationMS float64)
}

// Sink is an asynchronous capability.Recorder that persists diagnostic
// records and fans them out to optional consumers.
//
// Record hand-off is non-blocking: if the buffer is full the record is
// dropped and a warning logged. Hubs call Record on the goroutine that
// performed the operation, so the sink must never stall it.
type Sink struct {
	repo   Repository
	logger Logger

	ch      chan capability.Record
	drained chan struct{}

	// sendMu guards ch against send-after-close. Record takes the read
	// side so concurrent hand-offs do not serialise.
	sendMu sync.RWMutex
	closed bool

	mu        sync.RWMutex
	broadcast func(rec StoredRecord)
	metrics   MetricsWriter
}

// NewSink creates a sink writing to repo and starts its worker goroutine.
// Call Close to stop it and drain buffered records.
func NewSink(repo Repository, logger Logger) *Sink {
	s := &Sink{
		repo:    repo,
		logger:  logger,
		ch:      make(chan capability.Record, sinkBuffer),
		drained: make(chan struct{}),
	}
	go s.run()
	return s
}

// SetBroadcast registers a callback invoked with every stored record,
// after persistence. Used to stream records to websocket clients.
func (s *Sink) SetBroadcast(fn func(rec StoredRecord)) {
	s.mu.Lock()
	s.broadcast = fn
	s.mu.Unlock()
}

// SetMetrics registers a metrics writer that receives invoke records.
func (s *Sink) SetMetrics(m MetricsWriter) {
	s.mu.Lock()
	s.metrics = m
	s.mu.Unlock()
}

// Record implements capability.Recorder. It never blocks; records are
// dropped with a warning if the buffer is full or the sink is closed.
func (s *Sink) Record(rec capability.Record) {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()

	if s.closed {
		return
	}

	select {
	case s.ch <- rec:
	default:
		s.logger.Warn("diagnostic record dropped, sink buffer full",
			"hub", rec.Hub,
			"op", rec.Op,
			"capability", string(rec.Capability),
		)
	}
}

// Close stops the worker after draining buffered records.
// Safe to call more than once.
func (s *Sink) Close() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	<-s.drained
}

// run is the worker loop. It exits when the channel is closed and drained.
func (s *Sink) run() {
	defer close(s.drained)
	for rec := range s.ch {
		s.process(rec)
	}
}

// process persists one record and fans it out.
func (s *Sink) process(rec capability.Record) {
	stored := toStored(rec)

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	if err := s.repo.Create(ctx, &stored); err != nil {
		s.logger.Error("persisting diagnostic record",
			"hub", stored.Hub,
			"op", stored.Op,
			"error", err,
		)
	}
	cancel()

	s.mu.RLock()
	broadcast := s.broadcast
	metrics := s.metrics
	s.mu.RUnlock()

	if broadcast != nil {
		broadcast(stored)
	}
	if metrics != nil && stored.Op == capability.OpInvoke {
		metrics.WriteInvokeMetric(stored.Hub, stored.Capability, stored.Outcome, stored.DurationMS)
	}
}

// toStored converts a hub record to its persisted form.
func toStored(rec capability.Record) StoredRecord {
	at := rec.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return StoredRecord{
		Hub:        rec.Hub,
		Op:         rec.Op,
		Capability: string(rec.Capability),
		Outcome:    rec.Outcome,
		Detail:     rec.Detail,
		DurationMS: float64(rec.Duration) / float64(time.Millisecond),
		CreatedAt:  at.UTC(),
	}
}
