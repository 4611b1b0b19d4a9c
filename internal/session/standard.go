package session

import (
	"math/rand"
	"time"

	"github.com/vvlad1973/scorm-runtime/internal/grading"
	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

// Standard runs a flat linear sequence of questions with optional
// immediate-feedback gating and an optional countdown timer.
type Standard struct {
	def   *quiz.TestDefinition
	eval  *grading.Evaluator
	clock func() time.Time
	fx    Effects

	phase     Phase
	questions []*quiz.Question // drawn at construction, fixed order
	current   int
	answers   map[string]*quiz.Answer
	perms     map[string]DisplayPerm

	// confirmed marks questions whose feedback has been shown; back
	// navigation past a confirmed question is not allowed.
	confirmed map[string]bool

	startedAt   time.Time
	deadline    time.Time // zero when untimed
	timeExpired bool
	finished    bool
}

type Option func(*options)

type options struct {
	rng   *rand.Rand
	clock func() time.Time
	fx    Effects
}

func WithRand(rng *rand.Rand) Option      { return func(o *options) { o.rng = rng } }
func WithClock(c func() time.Time) Option { return func(o *options) { o.clock = c } }
func WithEffects(fx Effects) Option       { return func(o *options) { o.fx = fx } }

func buildOptions(opts []Option) options {
	o := options{clock: time.Now, fx: NopEffects{}}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// NewStandard draws questions from every topic pool and fixes the display
// permutations for the attempt.
func NewStandard(def *quiz.TestDefinition, opts ...Option) *Standard {
	o := buildOptions(opts)
	s := &Standard{
		def:       def,
		eval:      grading.NewEvaluator(),
		clock:     o.clock,
		fx:        o.fx,
		phase:     PhaseStart,
		answers:   map[string]*quiz.Answer{},
		perms:     map[string]DisplayPerm{},
		confirmed: map[string]bool{},
	}
	for ti := range def.Topics {
		t := &def.Topics[ti]
		ids := make([]string, len(t.Questions))
		for i := range t.Questions {
			ids[i] = t.Questions[i].ID
		}
		quiz.ShuffleQuestions(ids, o.rng)
		n := t.DrawCount
		if n <= 0 || n > len(ids) {
			n = len(ids)
		}
		for _, id := range ids[:n] {
			q := t.QuestionByID(id)
			s.questions = append(s.questions, q)
			s.perms[q.ID] = permForQuestion(q, o.rng)
		}
	}
	return s
}

// Begin moves start -> question(0) and arms the timer.
func (s *Standard) Begin() {
	if s.phase != PhaseStart {
		return
	}
	s.phase = PhaseQuestion
	s.startedAt = s.clock()
	if s.def.TimeLimitMinutes > 0 {
		s.deadline = s.startedAt.Add(time.Duration(s.def.TimeLimitMinutes) * time.Minute)
	}
}

// Current returns the question under the cursor.
func (s *Standard) Current() (*quiz.Question, int) {
	if s.phase != PhaseQuestion && s.phase != PhaseFeedback {
		return nil, -1
	}
	return s.questions[s.current], s.current
}

// Perm returns the stable display permutation for a question.
func (s *Standard) Perm(questionID string) DisplayPerm { return s.perms[questionID] }

// SetAnswer records (or replaces) the answer for the current question. A
// recorded answer may still be incomplete; completeness is enforced on
// forward navigation and submit, not here.
func (s *Standard) SetAnswer(a *quiz.Answer) error {
	if s.finished {
		return ErrAlreadyFinished
	}
	if s.phase != PhaseQuestion {
		return ErrNoCurrentQuestion
	}
	q := s.questions[s.current]
	s.answers[q.ID] = a
	s.fx.ProgressChanged(s.current, s.answers)
	return nil
}

// Confirm locks in the current answer and, in immediate-feedback mode,
// enters the feedback sub-state. Requires a complete answer.
func (s *Standard) Confirm() (correct bool, err error) {
	if s.finished {
		return false, ErrAlreadyFinished
	}
	if s.phase != PhaseQuestion {
		return false, ErrNoCurrentQuestion
	}
	q := s.questions[s.current]
	a := s.answers[q.ID]
	if !a.Complete(q) {
		return false, ErrIncompleteAnswer
	}
	ev := s.eval.Score(q, a)
	correct = ev.Ratio == 1
	s.confirmed[q.ID] = true
	if s.def.ImmediateFeedback {
		s.phase = PhaseFeedback
	}
	s.fx.AnswerRecorded(q, a, correct)
	return correct, nil
}

// Next advances the cursor. Forward navigation requires a complete answer
// for the current question.
func (s *Standard) Next() error {
	if s.finished {
		return ErrAlreadyFinished
	}
	switch s.phase {
	case PhaseFeedback:
		s.phase = PhaseQuestion
	case PhaseQuestion:
		q := s.questions[s.current]
		if !s.answers[q.ID].Complete(q) {
			return ErrIncompleteAnswer
		}
	default:
		return ErrNoCurrentQuestion
	}
	if s.current < len(s.questions)-1 {
		s.current++
	}
	return nil
}

// Prev moves back. Allowed only when feedback mode is off or the current
// question has not been confirmed yet.
func (s *Standard) Prev() error {
	if s.finished {
		return ErrAlreadyFinished
	}
	if s.phase != PhaseQuestion {
		return ErrNoCurrentQuestion
	}
	if s.def.ImmediateFeedback && s.confirmed[s.questions[s.current].ID] {
		return ErrBackNotAllowed
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// Remaining reports the time left; zero for untimed attempts.
func (s *Standard) Remaining(now time.Time) time.Duration {
	if s.deadline.IsZero() {
		return 0
	}
	d := s.deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Tick drives the countdown. At zero it force-submits whatever answers are
// recorded and marks the attempt time-expired; repeated ticks after expiry
// are no-ops.
func (s *Standard) Tick(now time.Time) (expired bool) {
	if s.finished || s.deadline.IsZero() || now.Before(s.deadline) {
		return false
	}
	s.timeExpired = true
	s.finished = true
	s.phase = PhaseResults
	return true
}

// Submit ends the attempt. Unless the attempt was force-completed by time
// expiry, every question must carry a complete answer.
func (s *Standard) Submit() error {
	if s.finished {
		if s.timeExpired {
			return nil
		}
		return ErrAlreadyFinished
	}
	if s.phase == PhaseStart {
		return ErrNotStarted
	}
	for _, q := range s.questions {
		if !s.answers[q.ID].Complete(q) {
			return ErrQuestionsRemaining
		}
	}
	s.finished = true
	s.phase = PhaseResults
	return nil
}

// Accessors for the result builder and presentation layer.

func (s *Standard) Phase() Phase                     { return s.phase }
func (s *Standard) Questions() []*quiz.Question      { return s.questions }
func (s *Standard) Answers() map[string]*quiz.Answer { return s.answers }
func (s *Standard) Finished() bool                   { return s.finished }
func (s *Standard) TimeExpired() bool                { return s.timeExpired }
