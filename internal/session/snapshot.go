package session

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vvlad1973/scorm-runtime/internal/grading"
	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

// ErrSnapshotMismatch rejects a resume whose snapshot does not line up with
// the loaded test definition, e.g. after a package rebuild changed question
// ids under a stale suspend blob.
var ErrSnapshotMismatch = errors.New("snapshot does not match the test definition")

// StandardSnapshot captures a running standard session: the fixed draw
// order, display permutations, recorded answers and the cursor. A host
// relaunch mid-attempt resumes from it with the exact same layout.
type StandardSnapshot struct {
	Questions []string                `json:"questions"`
	Current   int                     `json:"current"`
	Answers   map[string]*quiz.Answer `json:"answers,omitempty"`
	Confirmed []string                `json:"confirmed,omitempty"`
	Perms     map[string]DisplayPerm  `json:"perms,omitempty"`
	StartedAt int64                   `json:"startedAt,omitempty"` // unix millis, zero before Begin
}

// AdaptiveSnapshot is the adaptive counterpart. The topic states already
// carry the fixed level pools and ladder positions, so restoring them plus
// the answer map reproduces the machine exactly.
type AdaptiveSnapshot struct {
	Topics       []TopicState            `json:"topics"`
	CurrentTopic int                     `json:"currentTopic"`
	Answers      map[string]*quiz.Answer `json:"answers,omitempty"`
	Perms        map[string]DisplayPerm  `json:"perms,omitempty"`
}

// Snapshot serializes the live state. The maps are shared with the running
// session, not copied; callers marshal immediately.
func (s *Standard) Snapshot() StandardSnapshot {
	snap := StandardSnapshot{
		Current: s.current,
		Answers: s.answers,
		Perms:   s.perms,
	}
	for _, q := range s.questions {
		snap.Questions = append(snap.Questions, q.ID)
	}
	for id := range s.confirmed {
		snap.Confirmed = append(snap.Confirmed, id)
	}
	sort.Strings(snap.Confirmed)
	if !s.startedAt.IsZero() {
		snap.StartedAt = s.startedAt.UnixMilli()
	}
	return snap
}

// ResumeStandard rebuilds a standard session from a mid-attempt snapshot:
// same draw order, same permutations, same answers and cursor. The timer
// deadline is recomputed from the original start, so elapsed time is not
// forgiven by a reload.
func ResumeStandard(def *quiz.TestDefinition, snap StandardSnapshot, opts ...Option) (*Standard, error) {
	o := buildOptions(opts)
	s := &Standard{
		def:       def,
		eval:      grading.NewEvaluator(),
		clock:     o.clock,
		fx:        o.fx,
		phase:     PhaseQuestion,
		answers:   snap.Answers,
		perms:     snap.Perms,
		confirmed: map[string]bool{},
	}
	if s.answers == nil {
		s.answers = map[string]*quiz.Answer{}
	}
	if s.perms == nil {
		s.perms = map[string]DisplayPerm{}
	}
	for _, id := range snap.Confirmed {
		s.confirmed[id] = true
	}
	for _, id := range snap.Questions {
		q := def.QuestionByID(id)
		if q == nil {
			return nil, fmt.Errorf("%w: unknown question %q", ErrSnapshotMismatch, id)
		}
		s.questions = append(s.questions, q)
	}
	if len(s.questions) == 0 {
		return nil, fmt.Errorf("%w: empty question draw", ErrSnapshotMismatch)
	}
	if snap.Current > 0 && snap.Current < len(s.questions) {
		s.current = snap.Current
	}
	if snap.StartedAt > 0 {
		s.startedAt = time.UnixMilli(snap.StartedAt)
		if def.TimeLimitMinutes > 0 {
			s.deadline = s.startedAt.Add(time.Duration(def.TimeLimitMinutes) * time.Minute)
		}
	} else {
		// Snapshot taken before Begin; resume to the start screen.
		s.phase = PhaseStart
	}
	return s, nil
}

// Snapshot serializes the live ladder state; only valid mid-attempt.
func (s *Adaptive) Snapshot() AdaptiveSnapshot {
	return AdaptiveSnapshot{
		Topics:       s.topics,
		CurrentTopic: s.currentTopic,
		Answers:      s.answers,
		Perms:        s.perms,
	}
}

// ResumeAdaptive rebuilds an adaptive session from a mid-attempt snapshot.
// The restored session is always started and unfinished; finished attempts
// are recorded to history, never mirrored.
func ResumeAdaptive(def *quiz.TestDefinition, snap AdaptiveSnapshot, opts ...Option) (*Adaptive, error) {
	o := buildOptions(opts)
	if len(snap.Topics) != len(def.Topics) {
		return nil, fmt.Errorf("%w: %d topics, definition has %d", ErrSnapshotMismatch, len(snap.Topics), len(def.Topics))
	}
	for i := range snap.Topics {
		if snap.Topics[i].TopicID != def.Topics[i].TopicID {
			return nil, fmt.Errorf("%w: topic %q at position %d", ErrSnapshotMismatch, snap.Topics[i].TopicID, i)
		}
		for li := range snap.Topics[i].Levels {
			for _, id := range snap.Topics[i].Levels[li].QuestionIDs {
				if def.QuestionByID(id) == nil {
					return nil, fmt.Errorf("%w: unknown question %q", ErrSnapshotMismatch, id)
				}
			}
		}
	}
	if snap.CurrentTopic < 0 || snap.CurrentTopic >= len(snap.Topics) {
		return nil, fmt.Errorf("%w: current topic %d out of range", ErrSnapshotMismatch, snap.CurrentTopic)
	}
	s := &Adaptive{
		def:          def,
		eval:         grading.NewEvaluator(),
		fx:           o.fx,
		topics:       snap.Topics,
		currentTopic: snap.CurrentTopic,
		answers:      snap.Answers,
		perms:        snap.Perms,
		started:      true,
	}
	if s.answers == nil {
		s.answers = map[string]*quiz.Answer{}
	}
	if s.perms == nil {
		s.perms = map[string]DisplayPerm{}
	}
	s.answeredN = len(s.answers)
	return s, nil
}
