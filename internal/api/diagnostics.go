package api

import (
	"net/http"
	"strconv"

	"github.com/tetherhq/tether-core/internal/audit"
)

// handleListDiagnostics queries persisted hub diagnostic records.
//
// Query parameters: hub, op, capability, limit, offset. Records are
// returned most recent first.
func (s *Server) handleListDiagnostics(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeUnavailable(w, "diagnostic store not configured")
		return
	}

	filter := audit.Filter{
		Hub:        r.URL.Query().Get("hub"),
		Op:         r.URL.Query().Get("op"),
		Capability: r.URL.Query().Get("capability"),
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("diagnostic query failed", "error", err)
		writeInternalError(w, "diagnostic query failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
