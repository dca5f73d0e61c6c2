package capability

import "fmt"

// Resolve looks up the implementation for id and returns it as T.
//
// It returns ErrNotRegistered when nothing is registered under id, and
// ErrContractMismatch when the registered implementation does not satisfy
// T. Resolve is the typed companion of Hub.Lookup for callers that hold a
// contract interface:
//
//	haptics, err := capability.Resolve[feature.Haptics](hub, feature.HapticsID)
//	if err != nil {
//	    return err
//	}
//	return haptics.Vibrate(feature.PatternLight)
func Resolve[T any](h *Hub, id ID) (T, error) {
	var zero T

	impl, ok := h.Lookup(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}

	typed, ok := impl.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrContractMismatch, id, impl)
	}
	return typed, nil
}
