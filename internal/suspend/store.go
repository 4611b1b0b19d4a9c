// Package suspend persists cross-attempt state through the host's
// cmi.suspend_data field. The blob is the sole source of truth for attempt
// history across reloads; telemetry and the LMS gradebook are projections
// derived from it.
package suspend

import (
	"encoding/json"
	"log"

	"github.com/tidwall/gjson"

	"github.com/vvlad1973/scorm-runtime/internal/quiz"
	"github.com/vvlad1973/scorm-runtime/internal/session"
)

// SchemaVersion is stamped into every written blob so future structural
// changes can migrate old blobs instead of silently dropping fields.
const SchemaVersion = 1

// DefaultBlobBudget is the serialized-size ceiling before compaction kicks
// in. Real hosts commonly cap suspend_data between 4KB and 64KB.
const DefaultBlobBudget = 64 * 1024

// TopicResult is one topic's aggregate outcome within an attempt.
type TopicResult struct {
	TopicID        string   `json:"topicId"`
	TopicName      string   `json:"topicName,omitempty"`
	Percent        float64  `json:"percent"`
	Correct        int      `json:"correct"`
	Total          int      `json:"total"`
	EarnedPoints   float64  `json:"earnedPoints"`
	PossiblePoints float64  `json:"possiblePoints"`
	Passed         *bool    `json:"passed,omitempty"`        // nil when the topic has no pass rule
	AchievedLevel  *int     `json:"achievedLevel,omitempty"` // adaptive: highest level passed, nil if none
	LevelName      string   `json:"levelName,omitempty"`
	Links          []string `json:"links,omitempty"`
}

// QuestionSnapshot is the flattened view of one presented question plus the
// learner's response, kept so the LMS interaction report can be regenerated
// for a previously completed attempt if it is later selected as best.
type QuestionSnapshot struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Prompt          string  `json:"prompt,omitempty"`
	CorrectPattern  string  `json:"correctPattern"`
	LearnerResponse string  `json:"learnerResponse"`
	Correct         bool    `json:"correct"`
	Points          float64 `json:"points,omitempty"`
}

// AttemptRecord is one completed attempt, appended to history at finish.
type AttemptRecord struct {
	Number         int                     `json:"number"`
	CompletedAt    int64                   `json:"completedAt"` // unix millis
	Percent        float64                 `json:"percent"`
	Correct        int                     `json:"correct"`
	Total          int                     `json:"total"`
	EarnedPoints   float64                 `json:"earnedPoints"`
	PossiblePoints float64                 `json:"possiblePoints"`
	Passed         bool                    `json:"passed"`
	TimeExpired    bool                    `json:"timeExpired,omitempty"`
	Topics         []TopicResult           `json:"topics,omitempty"`
	Answers        map[string]*quiz.Answer `json:"answers,omitempty"`
	Questions      []QuestionSnapshot      `json:"questions,omitempty"`
}

// LiveAttempt mirrors the in-progress session so a relaunch mid-attempt
// resumes with the same draw, display permutations and answers. Exactly one
// of Standard/Adaptive is set, matching the definition's mode.
type LiveAttempt struct {
	Attempt  int                       `json:"attempt"`
	Mode     string                    `json:"mode"`
	Standard *session.StandardSnapshot `json:"standard,omitempty"`
	Adaptive *session.AdaptiveSnapshot `json:"adaptive,omitempty"`
}

// State is the whole suspend blob.
type State struct {
	Version      int             `json:"v"`
	AttemptsUsed int             `json:"attemptsUsed"`
	Attempts     []AttemptRecord `json:"attempts"`
	Live         *LiveAttempt    `json:"live,omitempty"`
}

// Channel is the slice of the transport adapter the store needs.
type Channel interface {
	SuspendData() string
	SetSuspendData(blob string) bool
	Commit() bool
}

type Store struct {
	ch     Channel
	budget int
}

func NewStore(ch Channel) *Store {
	return &Store{ch: ch, budget: DefaultBlobBudget}
}

// WithBudget overrides the serialized-size ceiling. Zero disables
// compaction.
func (s *Store) WithBudget(n int) *Store {
	s.budget = n
	return s
}

// Read parses the blob. Absent, malformed or future-versioned data yields a
// fresh empty state; Read never fails.
func (s *Store) Read() State {
	raw := s.ch.SuspendData()
	empty := State{Version: SchemaVersion}
	if raw == "" || !gjson.Valid(raw) {
		return empty
	}
	// Sniff the schema version before committing to a strict decode.
	if v := gjson.Get(raw, "v").Int(); v > SchemaVersion {
		log.Printf("suspend: unknown schema version %d, starting fresh", v)
		return empty
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return empty
	}
	st.Version = SchemaVersion
	return st
}

// Write serializes the whole state and commits it, compacting history first
// if the blob would exceed the budget. Callers must Read immediately before
// mutating and writing so parallel code paths in the same tick do not
// clobber each other's fields.
func (s *Store) Write(st State) bool {
	st.Version = SchemaVersion
	b, err := json.Marshal(st)
	if err != nil {
		log.Printf("suspend: marshal failed: %v", err)
		return false
	}
	if s.budget > 0 && len(b) > s.budget {
		st = compact(st)
		if b, err = json.Marshal(st); err != nil {
			return false
		}
	}
	if !s.ch.SetSuspendData(string(b)) {
		return false
	}
	return s.ch.Commit()
}

// RegisterAttemptStart burns one attempt. With maxAttempts unset it always
// succeeds without touching the counter; otherwise it increments by exactly
// one, or returns false without mutating state when the learner has already
// exhausted attempts. Call exactly once per attempt start.
func (s *Store) RegisterAttemptStart(maxAttempts int) bool {
	if maxAttempts <= 0 {
		return true
	}
	st := s.Read()
	if st.AttemptsUsed >= maxAttempts {
		return false
	}
	st.AttemptsUsed++
	s.Write(st)
	return true
}

// RecordCompletedAttempt appends to the history log. Append-only; no
// deduplication by attempt number. The completed record supersedes any live
// mirror of the same attempt, so the mirror is dropped in the same write.
func (s *Store) RecordCompletedAttempt(rec AttemptRecord) {
	st := s.Read()
	st.Attempts = append(st.Attempts, rec)
	st.Live = nil
	s.Write(st)
}

// SaveLive mirrors the in-progress session. Called at attempt start and on
// every recorded answer, so a relaunch loses at most the answer being
// edited.
func (s *Store) SaveLive(live *LiveAttempt) {
	st := s.Read()
	st.Live = live
	s.Write(st)
}

// ClearLive drops the mirror without recording an attempt; the abandon path
// when a learner discards an in-progress attempt.
func (s *Store) ClearLive() {
	st := s.Read()
	if st.Live == nil {
		return
	}
	st.Live = nil
	s.Write(st)
}

// BestAttempt selects by (percent desc, completedAt desc). The bool is
// false when history is empty.
func BestAttempt(attempts []AttemptRecord) (AttemptRecord, bool) {
	if len(attempts) == 0 {
		return AttemptRecord{}, false
	}
	best := attempts[0]
	for _, a := range attempts[1:] {
		if a.Percent > best.Percent ||
			(a.Percent == best.Percent && a.CompletedAt > best.CompletedAt) {
			best = a
		}
	}
	return best, true
}

// compact strips answer/question snapshots from every attempt except the
// best one, keeping aggregate stats intact. The best attempt keeps its
// snapshot so the gradebook interaction report can still be rebuilt.
func compact(st State) State {
	best, ok := BestAttempt(st.Attempts)
	if !ok {
		return st
	}
	out := make([]AttemptRecord, len(st.Attempts))
	copy(out, st.Attempts)
	// Identify the best record by number+timestamp; numbers may repeat in
	// the append-only log, so prefer the latest match.
	bestIdx := -1
	for i, a := range out {
		if a.Number == best.Number && a.CompletedAt == best.CompletedAt {
			bestIdx = i
		}
	}
	for i := range out {
		if i == bestIdx {
			continue
		}
		out[i].Answers = nil
		out[i].Questions = nil
	}
	st.Attempts = out
	return st
}
