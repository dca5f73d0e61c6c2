package capability

import "errors"

// Domain errors for the capability package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, capability.ErrNotRegistered) {
//	    // handle missing capability
//	}
var (
	// ErrNotRegistered is returned when an invoke or resolve targets an
	// identifier with no registered implementation. Surfaced explicitly so
	// a misconfigured bootstrap is observable, never a silent no-op.
	ErrNotRegistered = errors.New("capability: not registered")

	// ErrInvalidID is returned when a capability identifier fails validation.
	ErrInvalidID = errors.New("capability: invalid identifier")

	// ErrNilImplementation is returned when registering a nil implementation.
	ErrNilImplementation = errors.New("capability: nil implementation")

	// ErrNoMainLoop is returned by InvokeOnMain when the hub has no main
	// loop configured.
	ErrNoMainLoop = errors.New("capability: no main loop configured")

	// ErrContractMismatch is returned by Resolve when the registered
	// implementation does not satisfy the requested contract type.
	ErrContractMismatch = errors.New("capability: implementation does not satisfy contract")
)
