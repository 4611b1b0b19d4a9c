// Package http mounts the collector's ingest and report endpoints.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/vvlad1973/scorm-runtime/internal/config"
	"github.com/vvlad1973/scorm-runtime/internal/events"
	"github.com/vvlad1973/scorm-runtime/internal/telemetry"
)

// envelope mirrors the client wire format.
type envelope struct {
	PackageID string          `json:"packageId"`
	SessionID string          `json:"sessionId"`
	Signature string          `json:"signature"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// MountIngest wires the four signed endpoints under the given router.
func MountIngest(r chi.Router, repo *events.Repo, cfg config.Config) {
	r.Post("/start", startHandler(repo, cfg))
	r.Post("/answer", ingestHandler(repo, cfg, events.TypeAnswer))
	r.Post("/finish", ingestHandler(repo, cfg, events.TypeFinish))
	r.Post("/progress", progressHandler(repo, cfg))
}

// verify decodes the envelope and checks its HMAC. A nil return means the
// response has already been written.
func verify(w http.ResponseWriter, r *http.Request, cfg config.Config) *envelope {
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return nil
	}
	if env.PackageID == "" || env.SessionID == "" {
		http.Error(w, "packageId and sessionId required", http.StatusBadRequest)
		return nil
	}
	secret, ok := cfg.SecretFor(env.PackageID)
	if !ok {
		http.Error(w, "unknown package", http.StatusForbidden)
		return nil
	}
	if cfg.MaxClockSkewSec > 0 {
		skew := time.Now().UnixMilli() - env.Timestamp
		if skew < 0 {
			skew = -skew
		}
		if skew > cfg.MaxClockSkewSec*1000 {
			http.Error(w, "stale timestamp", http.StatusForbidden)
			return nil
		}
	}
	if !telemetry.Verify(secret, env.PackageID, env.SessionID, env.Timestamp, env.Data, env.Signature) {
		http.Error(w, "bad signature", http.StatusForbidden)
		return nil
	}
	return &env
}

// POST /start: registers the attempt and replies with the authoritative
// attempt number for the session.
func startHandler(repo *events.Repo, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := verify(w, r, cfg)
		if env == nil {
			return
		}
		n, err := repo.RegisterStart(r.Context(), events.Event{
			PackageID: env.PackageID,
			SessionID: env.SessionID,
			Type:      events.TypeStart,
			Attempt:   int(gjson.GetBytes(env.Data, "attempt").Int()),
			DataJSON:  string(env.Data),
		})
		if err != nil {
			http.Error(w, "register start: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"attemptNumber": n})
	}
}

func ingestHandler(repo *events.Repo, cfg config.Config, typ string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := verify(w, r, cfg)
		if env == nil {
			return
		}
		err := repo.Append(r.Context(), events.Event{
			PackageID: env.PackageID,
			SessionID: env.SessionID,
			Type:      typ,
			Attempt:   int(gjson.GetBytes(env.Data, "attempt").Int()),
			DataJSON:  string(env.Data),
		})
		if err != nil {
			http.Error(w, "append: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /progress: autosave snapshot, last write wins.
func progressHandler(repo *events.Repo, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := verify(w, r, cfg)
		if env == nil {
			return
		}
		err := repo.SaveProgress(r.Context(), events.Progress{
			PackageID:    env.PackageID,
			SessionID:    env.SessionID,
			Attempt:      int(gjson.GetBytes(env.Data, "attempt").Int()),
			CurrentIndex: int(gjson.GetBytes(env.Data, "currentIndex").Int()),
			AnswersJSON:  gjson.GetBytes(env.Data, "answers").Raw,
		})
		if err != nil {
			http.Error(w, "save progress: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
