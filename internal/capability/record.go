package capability

import "time"

// Operation names for diagnostic records.
const (
	OpRegister   = "register"
	OpUnregister = "unregister"
	OpInvoke     = "invoke"
)

// Outcome values for diagnostic records.
const (
	OutcomeRegistered    = "registered"
	OutcomeReplaced      = "replaced"
	OutcomeUnregistered  = "unregistered"
	OutcomeAbsent        = "absent"
	OutcomeOK            = "ok"
	OutcomeError         = "error"
	OutcomePanic         = "panic"
	OutcomeNotRegistered = "not_registered"

	// OutcomeDispatched marks an invoke handed to the main loop. The record
	// says nothing about whether the call has run yet; the loop may still be
	// draining its queue.
	OutcomeDispatched = "dispatched"
)

// Record is a diagnostic record of one hub operation.
//
// Records are emitted only while the hub's debug flag is enabled and never
// alter functional behaviour. The timestamp is wall-clock time used purely
// for diagnostics, not for any registry decision.
type Record struct {
	Hub        string        `json:"hub"`
	Op         string        `json:"op"`
	Capability ID            `json:"capability"`
	Outcome    string        `json:"outcome"`
	Detail     string        `json:"detail,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	At         time.Time     `json:"at"`
}

// Recorder receives diagnostic records from a hub.
//
// Implementations must be quick or hand off internally: the hub emits
// records outside its lock but on the operation's calling goroutine.
type Recorder interface {
	Record(rec Record)
}

// noopRecorder is a recorder that does nothing.
type noopRecorder struct{}

func (noopRecorder) Record(Record) {}
