// Package session holds the in-memory attempt state machines. The running
// frame's memory is authoritative; a snapshot of the live state is mirrored
// to the suspend store at attempt start and on every recorded answer, so a
// host relaunch mid-attempt resumes with the same draw, layout and answers.
// Every transition is a synchronous method call, so mirrored state can
// never lag the visible machine.
package session

import (
	"errors"
	"math/rand"

	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

// Phase of an attempt.
type Phase string

const (
	PhaseStart    Phase = "start"
	PhaseQuestion Phase = "question"
	PhaseFeedback Phase = "feedback"
	PhaseResults  Phase = "results"
)

var (
	ErrIncompleteAnswer   = errors.New("answer is incomplete for this question type")
	ErrQuestionsRemaining = errors.New("questions remaining")
	ErrAlreadyFinished    = errors.New("attempt already finished")
	ErrNoCurrentQuestion  = errors.New("no current question")
	ErrBackNotAllowed     = errors.New("cannot navigate back after feedback")
	ErrNotStarted         = errors.New("attempt not started")
)

// DisplayPerm is the per-question shuffle of presentation order, generated
// once at attempt start and kept stable for the life of the attempt so a
// reload reproduces the same layout.
type DisplayPerm struct {
	Options []int `json:"options,omitempty"`
	Right   []int `json:"right,omitempty"` // matching right column
	Items   []int `json:"items,omitempty"` // ranking items
}

func permForQuestion(q *quiz.Question, rng *rand.Rand) DisplayPerm {
	var p DisplayPerm
	switch q.Type {
	case quiz.TypeSingle, quiz.TypeMultiple:
		p.Options = quiz.Perm(len(q.Options), rng)
	case quiz.TypeMatching:
		p.Right = quiz.Perm(len(q.RightItems), rng)
	case quiz.TypeRanking:
		p.Items = quiz.Perm(len(q.Items), rng)
	}
	return p
}

// Effects receives side-effect notifications from a running session. The
// authoritative state transition always completes before any effect fires,
// so a slow handler cannot desynchronize the machine. All methods are
// fire-and-forget from the session's point of view.
type Effects interface {
	AnswerRecorded(q *quiz.Question, a *quiz.Answer, correct bool)
	ProgressChanged(currentIndex int, answers map[string]*quiz.Answer)
}

// NopEffects is the default when no observer is wired.
type NopEffects struct{}

func (NopEffects) AnswerRecorded(*quiz.Question, *quiz.Answer, bool) {}
func (NopEffects) ProgressChanged(int, map[string]*quiz.Answer)      {}
