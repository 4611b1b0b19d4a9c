package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vvlad1973/scorm-runtime/internal/events"
)

// MountReport wires the read side. Callers protect the router with the
// auth middleware; nothing here checks credentials itself.
func MountReport(r chi.Router, repo *events.Repo) {
	r.Get("/sessions/{packageID}/{sessionID}", sessionEventsHandler(repo))
}

// GET /sessions/{packageID}/{sessionID}: a session's full event trail.
// Telemetry carries the true results, so this view can diverge from the
// LMS gradebook by policy; the forced-pass marker in the gradebook comments
// is the cross-reference.
func sessionEventsHandler(repo *events.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packageID := strings.TrimSpace(chi.URLParam(r, "packageID"))
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		if packageID == "" || sessionID == "" {
			http.Error(w, "packageID and sessionID required", http.StatusBadRequest)
			return
		}
		evs, err := repo.SessionEvents(r.Context(), packageID, sessionID)
		if err != nil {
			http.Error(w, "events: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(evs)
	}
}
