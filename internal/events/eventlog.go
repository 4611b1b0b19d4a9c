// Package events stores the collector's view of telemetry: an append-only
// event log plus a last-write-wins progress snapshot per session.
package events

import (
	"context"
	"database/sql"
	"time"
)

const (
	TypeStart  = "start"
	TypeAnswer = "answer"
	TypeFinish = "finish"
)

type Event struct {
	ID        int64  `json:"id"`
	PackageID string `json:"package_id"`
	SessionID string `json:"session_id"`
	Type      string `json:"typ"`
	Attempt   int    `json:"attempt"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type Progress struct {
	PackageID    string `json:"package_id"`
	SessionID    string `json:"session_id"`
	Attempt      int    `json:"attempt"`
	CurrentIndex int    `json:"current_index"`
	AnswersJSON  string `json:"answers"`
	UpdatedAt    int64  `json:"updated_at"`
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// Append writes one event to the log. Append-only; duplicates from client
// retries are kept as-is.
func (r *Repo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (package_id, session_id, typ, attempt, data, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		e.PackageID, e.SessionID, e.Type, e.Attempt, e.DataJSON, time.Now().Unix())
	return err
}

// RegisterStart records a start event and returns the server-side attempt
// number for the session: the count of start events received so far. The
// server is authoritative when a resumed session's local counter collides.
func (r *Repo) RegisterStart(ctx context.Context, e Event) (int, error) {
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, package_id, started_at)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (session_id) DO NOTHING`,
		e.SessionID, e.PackageID, now)
	if err != nil {
		return 0, err
	}
	if err := r.Append(ctx, e); err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE package_id=$1 AND session_id=$2 AND typ=$3`,
		e.PackageID, e.SessionID, TypeStart).Scan(&n)
	if err != nil {
		return 0, err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE sessions SET attempts=$1 WHERE session_id=$2`, n, e.SessionID)
	return n, err
}

// SaveProgress upserts the autosave snapshot. Each write carries the full
// answer map, so last write wins is safe under out-of-order arrival.
func (r *Repo) SaveProgress(ctx context.Context, p Progress) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO progress (package_id, session_id, attempt, current_index, answers_json, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (package_id, session_id) DO UPDATE SET
		   attempt=excluded.attempt,
		   current_index=excluded.current_index,
		   answers_json=excluded.answers_json,
		   updated_at=excluded.updated_at`,
		p.PackageID, p.SessionID, p.Attempt, p.CurrentIndex, p.AnswersJSON, time.Now().Unix())
	return err
}

// SessionEvents lists a session's events in arrival order.
func (r *Repo) SessionEvents(ctx context.Context, packageID, sessionID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, package_id, session_id, typ, attempt, data, created_at
		 FROM events WHERE package_id=$1 AND session_id=$2 ORDER BY id`,
		packageID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.PackageID, &e.SessionID, &e.Type, &e.Attempt, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
