package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tetherhq/tether-core/internal/capability"
	"github.com/tetherhq/tether-core/internal/feature"
)

// hubSummary is the list representation of a hub.
type hubSummary struct {
	Name         string    `json:"name"`
	InstanceID   string    `json:"instance_id"`
	CreatedAt    time.Time `json:"created_at"`
	Debug        bool      `json:"debug"`
	Capabilities int       `json:"capabilities"`
}

// capabilityEntry is the wire representation of a registry entry. The
// implementation itself is opaque; only its dynamic type is exposed.
type capabilityEntry struct {
	ID           capability.ID `json:"id"`
	ImplType     string        `json:"impl_type"`
	Source       string        `json:"source,omitempty"`
	RegisteredAt time.Time     `json:"registered_at"`
	Commandable  bool          `json:"commandable"`
}

func toCapabilityEntry(e capability.Entry) capabilityEntry {
	_, commandable := e.Impl.(feature.Commander)
	return capabilityEntry{
		ID:           e.ID,
		ImplType:     e.ImplType(),
		Source:       e.Source,
		RegisteredAt: e.RegisteredAt,
		Commandable:  commandable,
	}
}

func (s *Server) summarise(name string, h *capability.Hub) hubSummary {
	return hubSummary{
		Name:         name,
		InstanceID:   h.InstanceID(),
		CreatedAt:    h.CreatedAt(),
		Debug:        h.DebugEnabled(),
		Capabilities: h.Count(),
	}
}

// handleListHubs returns all hubs in stable name order.
func (s *Server) handleListHubs(w http.ResponseWriter, _ *http.Request) {
	names := s.hubNames()
	hubs := make([]hubSummary, 0, len(names))
	for _, name := range names {
		hubs = append(hubs, s.summarise(name, s.hubs[name]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hubs":  hubs,
		"count": len(hubs),
	})
}

// handleGetHub returns one hub with its full capability snapshot.
func (s *Server) handleGetHub(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "hub")
	h, ok := s.hubByName(name)
	if !ok {
		writeNotFound(w, "hub not found: "+name)
		return
	}

	snapshot := h.Snapshot()
	entries := make([]capabilityEntry, 0, len(snapshot))
	for _, e := range snapshot {
		entries = append(entries, toCapabilityEntry(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hub":          s.summarise(name, h),
		"capabilities": entries,
	})
}

// setDebugRequest is the body for PUT /hubs/{hub}/debug.
type setDebugRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetDebug toggles diagnostic record emission for a hub.
func (s *Server) handleSetDebug(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "hub")
	h, ok := s.hubByName(name)
	if !ok {
		writeNotFound(w, "hub not found: "+name)
		return
	}

	var req setDebugRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	h.SetDebug(req.Enabled)
	s.logger.Info("hub debug toggled", "hub", name, "enabled", req.Enabled)

	writeJSON(w, http.StatusOK, map[string]any{
		"hub":   name,
		"debug": req.Enabled,
	})
}

// handleListCapabilities returns the hub's capability snapshot.
func (s *Server) handleListCapabilities(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "hub")
	h, ok := s.hubByName(name)
	if !ok {
		writeNotFound(w, "hub not found: "+name)
		return
	}

	snapshot := h.Snapshot()
	entries := make([]capabilityEntry, 0, len(snapshot))
	for _, e := range snapshot {
		entries = append(entries, toCapabilityEntry(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"capabilities": entries,
		"count":        len(entries),
	})
}

// handleGetCapability returns a single registry entry.
func (s *Server) handleGetCapability(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "hub")
	h, ok := s.hubByName(name)
	if !ok {
		writeNotFound(w, "hub not found: "+name)
		return
	}

	id := capability.ID(chi.URLParam(r, "id"))
	for _, e := range h.Snapshot() {
		if e.ID == id {
			writeJSON(w, http.StatusOK, toCapabilityEntry(e))
			return
		}
	}
	writeNotFound(w, "capability not registered: "+string(id))
}

// handleUnregisterCapability removes a registration from a hub.
func (s *Server) handleUnregisterCapability(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "hub")
	h, ok := s.hubByName(name)
	if !ok {
		writeNotFound(w, "hub not found: "+name)
		return
	}

	id := capability.ID(chi.URLParam(r, "id"))
	if !h.Unregister(id) {
		writeNotFound(w, "capability not registered: "+string(id))
		return
	}

	s.logger.Info("capability unregistered via API", "hub", name, "capability", id)
	w.WriteHeader(http.StatusNoContent)
}

// invokeRequest is the body for POST /hubs/{hub}/capabilities/{id}/invoke.
type invokeRequest struct {
	Command string         `json:"command"`
	Args    map[string]any `json:"args,omitempty"`
}

// errNotCommandable marks implementations that do not accept remote
// commands. Mapped to 422 rather than 404: the capability exists, it just
// has no command surface.
var errNotCommandable = errors.New("capability does not accept commands")

// handleInvokeCapability executes a named command against a registered
// implementation through the hub's normal dispatch path, so the call is
// diagnosed like any in-process invoke.
func (s *Server) handleInvokeCapability(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "hub")
	h, ok := s.hubByName(name)
	if !ok {
		writeNotFound(w, "hub not found: "+name)
		return
	}

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}

	id := capability.ID(chi.URLParam(r, "id"))
	var result any
	err := h.Invoke(id, func(impl any) error {
		commander, ok := impl.(feature.Commander)
		if !ok {
			return errNotCommandable
		}
		var cmdErr error
		result, cmdErr = commander.Command(r.Context(), req.Command, req.Args)
		return cmdErr
	})

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"capability": id,
			"command":    req.Command,
			"result":     result,
		})
	case errors.Is(err, capability.ErrNotRegistered):
		writeNotFound(w, "capability not registered: "+string(id))
	case errors.Is(err, errNotCommandable):
		writeUnprocessable(w, err.Error())
	default:
		writeJSON(w, http.StatusBadGateway, Error{
			Status:  http.StatusBadGateway,
			Code:    "invoke_failed",
			Message: err.Error(),
		})
	}
}
