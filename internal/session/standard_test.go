package session

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

func intp(v int) *int { return &v }

func standardDef() *quiz.TestDefinition {
	return &quiz.TestDefinition{
		ID:   "std-1",
		Mode: quiz.ModeStandard,
		PassRule: &quiz.PassRule{
			Type:  quiz.ThresholdPercent,
			Value: 50,
		},
		Topics: []quiz.TopicSection{{
			TopicID: "t1",
			Questions: []quiz.Question{
				{ID: "q1", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 1},
				{ID: "q2", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 0},
				{ID: "q3", Type: quiz.TypeMultiple, Options: []string{"a", "b", "c"}, CorrectIndices: []int{0, 2}},
			},
		}},
	}
}

// recordingEffects captures session notifications for assertions.
type recordingEffects struct {
	answered []string
	progress int
}

func (r *recordingEffects) AnswerRecorded(q *quiz.Question, _ *quiz.Answer, _ bool) {
	r.answered = append(r.answered, q.ID)
}
func (r *recordingEffects) ProgressChanged(int, map[string]*quiz.Answer) { r.progress++ }

func answerFor(q *quiz.Question) *quiz.Answer {
	switch q.Type {
	case quiz.TypeSingle:
		return &quiz.Answer{Single: intp(q.CorrectIndex)}
	case quiz.TypeMultiple:
		return &quiz.Answer{Multiple: q.CorrectIndices}
	}
	return nil
}

func TestStandardDrawsAllWithoutDrawCount(t *testing.T) {
	s := NewStandard(standardDef(), WithRand(rand.New(rand.NewSource(1))))
	if len(s.Questions()) != 3 {
		t.Fatalf("drew %d questions, want full pool of 3", len(s.Questions()))
	}
}

func TestStandardDrawCount(t *testing.T) {
	def := standardDef()
	def.Topics[0].DrawCount = 2
	s := NewStandard(def, WithRand(rand.New(rand.NewSource(1))))
	if len(s.Questions()) != 2 {
		t.Fatalf("drew %d questions, want 2", len(s.Questions()))
	}
}

func TestStandardPermStableForAttempt(t *testing.T) {
	s := NewStandard(standardDef(), WithRand(rand.New(rand.NewSource(7))))
	p1 := s.Perm("q3")
	p2 := s.Perm("q3")
	if len(p1.Options) != 3 {
		t.Fatalf("perm options = %v, want 3 entries", p1.Options)
	}
	for i := range p1.Options {
		if p1.Options[i] != p2.Options[i] {
			t.Fatal("display permutation must be stable within an attempt")
		}
	}
}

func TestStandardHappyPath(t *testing.T) {
	fx := &recordingEffects{}
	s := NewStandard(standardDef(), WithRand(rand.New(rand.NewSource(2))), WithEffects(fx))

	if err := s.Submit(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("submit before begin = %v, want ErrNotStarted", err)
	}

	s.Begin()
	if s.Phase() != PhaseQuestion {
		t.Fatalf("phase = %s, want question", s.Phase())
	}

	for i := 0; i < len(s.Questions()); i++ {
		q, idx := s.Current()
		if idx != i {
			t.Fatalf("cursor = %d, want %d", idx, i)
		}
		if err := s.SetAnswer(answerFor(q)); err != nil {
			t.Fatalf("set answer: %v", err)
		}
		correct, err := s.Confirm()
		if err != nil || !correct {
			t.Fatalf("confirm q%d: correct=%v err=%v", i, correct, err)
		}
		if i < len(s.Questions())-1 {
			if err := s.Next(); err != nil {
				t.Fatalf("next: %v", err)
			}
		}
	}
	if err := s.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.Phase() != PhaseResults || !s.Finished() {
		t.Fatal("submit must finish the attempt")
	}
	if len(fx.answered) != 3 || fx.progress != 3 {
		t.Fatalf("effects: answered=%v progress=%d", fx.answered, fx.progress)
	}

	if err := s.Submit(); !errors.Is(err, ErrAlreadyFinished) {
		t.Fatalf("double submit = %v, want ErrAlreadyFinished", err)
	}
}

func TestStandardForwardRequiresCompleteAnswer(t *testing.T) {
	s := NewStandard(standardDef(), WithRand(rand.New(rand.NewSource(3))))
	s.Begin()

	if err := s.Next(); !errors.Is(err, ErrIncompleteAnswer) {
		t.Fatalf("next unanswered = %v, want ErrIncompleteAnswer", err)
	}
	q, _ := s.Current()
	if q.Type == quiz.TypeMultiple {
		// Explicitly empty selection is recorded but not complete.
		if err := s.SetAnswer(&quiz.Answer{}); err != nil {
			t.Fatalf("set answer: %v", err)
		}
		if _, err := s.Confirm(); !errors.Is(err, ErrIncompleteAnswer) {
			t.Fatalf("confirm empty = %v, want ErrIncompleteAnswer", err)
		}
	}
}

func TestStandardSubmitRequiresAllAnswered(t *testing.T) {
	s := NewStandard(standardDef(), WithRand(rand.New(rand.NewSource(4))))
	s.Begin()
	q, _ := s.Current()
	if err := s.SetAnswer(answerFor(q)); err != nil {
		t.Fatalf("set answer: %v", err)
	}
	if err := s.Submit(); !errors.Is(err, ErrQuestionsRemaining) {
		t.Fatalf("partial submit = %v, want ErrQuestionsRemaining", err)
	}
}

func TestStandardBackBlockedAfterFeedback(t *testing.T) {
	def := standardDef()
	def.ImmediateFeedback = true
	s := NewStandard(def, WithRand(rand.New(rand.NewSource(5))))
	s.Begin()

	q, _ := s.Current()
	if err := s.SetAnswer(answerFor(q)); err != nil {
		t.Fatalf("set answer: %v", err)
	}
	if _, err := s.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if s.Phase() != PhaseFeedback {
		t.Fatalf("phase = %s, want feedback", s.Phase())
	}
	if err := s.Next(); err != nil {
		t.Fatalf("next past feedback: %v", err)
	}

	// The second question is still open, so back is allowed; once it is
	// confirmed it locks.
	if err := s.Prev(); err != nil {
		t.Fatalf("prev before confirm: %v", err)
	}
	q, _ = s.Current()
	if err := s.Prev(); !errors.Is(err, ErrBackNotAllowed) {
		t.Fatalf("prev on confirmed %s = %v, want ErrBackNotAllowed", q.ID, err)
	}
}

func TestStandardTimerExpiry(t *testing.T) {
	def := standardDef()
	def.TimeLimitMinutes = 10
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewStandard(def,
		WithRand(rand.New(rand.NewSource(6))),
		WithClock(func() time.Time { return now }))
	s.Begin()

	q, _ := s.Current()
	if err := s.SetAnswer(answerFor(q)); err != nil {
		t.Fatalf("set answer: %v", err)
	}

	if s.Tick(now.Add(9 * time.Minute)) {
		t.Fatal("ticked expired before the deadline")
	}
	if got := s.Remaining(now.Add(9 * time.Minute)); got != time.Minute {
		t.Fatalf("remaining = %s, want 1m", got)
	}

	if !s.Tick(now.Add(10 * time.Minute)) {
		t.Fatal("deadline tick must expire the attempt")
	}
	if !s.TimeExpired() || !s.Finished() || s.Phase() != PhaseResults {
		t.Fatal("expiry must force-complete the attempt")
	}
	if s.Tick(now.Add(11 * time.Minute)) {
		t.Fatal("post-expiry ticks must be no-ops")
	}
	// Submit after expiry is tolerated so the finish flow stays uniform.
	if err := s.Submit(); err != nil {
		t.Fatalf("submit after expiry = %v, want nil", err)
	}
}

func TestStandardUntimedNeverExpires(t *testing.T) {
	s := NewStandard(standardDef(), WithRand(rand.New(rand.NewSource(8))))
	s.Begin()
	if s.Tick(time.Now().Add(100 * time.Hour)) {
		t.Fatal("untimed attempt must never expire")
	}
	if s.Remaining(time.Now()) != 0 {
		t.Fatal("untimed remaining must be zero")
	}
}
