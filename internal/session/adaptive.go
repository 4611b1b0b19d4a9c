package session

import (
	"github.com/vvlad1973/scorm-runtime/internal/grading"
	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

// Level and topic lifecycle. A level's status only moves
// pending -> in_progress -> passed|failed and is never reopened within an
// attempt.
type LevelStatus string

const (
	LevelPending    LevelStatus = "pending"
	LevelInProgress LevelStatus = "in_progress"
	LevelPassed     LevelStatus = "passed"
	LevelFailed     LevelStatus = "failed"
)

type TopicStatus string

const (
	TopicPending    TopicStatus = "pending"
	TopicInProgress TopicStatus = "in_progress"
	TopicCompleted  TopicStatus = "completed"
)

// LevelState tracks one rung of a topic's ladder for this attempt.
type LevelState struct {
	LevelIndex   int         `json:"levelIndex"`
	Status       LevelStatus `json:"status"`
	QuestionIDs  []string    `json:"questionIds"` // pool order fixed at selection time
	Answered     []string    `json:"answered"`    // ordered
	CorrectCount int         `json:"correctCount"`
}

func (l *LevelState) remaining() int { return len(l.QuestionIDs) - len(l.Answered) }

// TopicState is the per-topic ladder position.
type TopicState struct {
	TopicID           string       `json:"topicId"`
	CurrentLevelIndex int          `json:"currentLevelIndex"`
	Levels            []LevelState `json:"levels"`
	// FinalLevelIndex is the highest level ever passed. Set only by a pass
	// event, overwritten only by a pass at a higher level, never cleared
	// within an attempt.
	FinalLevelIndex *int        `json:"finalLevelIndex,omitempty"`
	Status          TopicStatus `json:"status"`
}

// Transition kinds reported to the presentation layer.
const (
	TransitionUp       = "up"
	TransitionDown     = "down"
	TransitionComplete = "complete"
)

// LevelTransition describes a single ladder move. ToLevel is nil for
// "complete".
type LevelTransition struct {
	Type      string `json:"type"`
	FromLevel int    `json:"fromLevel"`
	ToLevel   *int   `json:"toLevel,omitempty"`
	Message   string `json:"message,omitempty"`
}

// TopicTransition reports sequential activation of the next topic.
type TopicTransition struct {
	FromTopic string `json:"fromTopic"`
	ToTopic   string `json:"toTopic"`
}

// SubmitOutcome is the structured result of one answer submission. The
// presentation layer uses the transitions only to decide whether to show an
// interstitial (gated by the test's showDifficultyLevel flag); the engine
// itself has already moved on.
type SubmitOutcome struct {
	IsCorrect       bool             `json:"isCorrect"`
	LevelTransition *LevelTransition `json:"levelTransition,omitempty"`
	TopicTransition *TopicTransition `json:"topicTransition,omitempty"`
	IsFinished      bool             `json:"isFinished"`
}

// Adaptive walks each topic's difficulty ladder, starting at the median
// level, probing one step at a time.
type Adaptive struct {
	def  *quiz.TestDefinition
	eval *grading.Evaluator
	fx   Effects

	topics       []TopicState
	currentTopic int
	answers      map[string]*quiz.Answer
	perms        map[string]DisplayPerm
	answeredN    int
	started      bool
	finished     bool
}

// StartLevelIndex is the deliberate mid-difficulty entry point:
// floor(levelCount/2).
func StartLevelIndex(levelCount int) int { return levelCount / 2 }

// NewAdaptive selects every level's question pool up front: filter the
// topic bank to the level's difficulty range, shuffle, take questionsCount.
func NewAdaptive(def *quiz.TestDefinition, opts ...Option) *Adaptive {
	o := buildOptions(opts)
	s := &Adaptive{
		def:     def,
		eval:    grading.NewEvaluator(),
		fx:      o.fx,
		answers: map[string]*quiz.Answer{},
		perms:   map[string]DisplayPerm{},
	}
	for ti := range def.Topics {
		t := &def.Topics[ti]
		ts := TopicState{TopicID: t.TopicID, Status: TopicPending}
		for li, lv := range t.Levels {
			var pool []string
			for qi := range t.Questions {
				q := &t.Questions[qi]
				if q.Difficulty >= lv.MinDifficulty && q.Difficulty <= lv.MaxDifficulty {
					pool = append(pool, q.ID)
				}
			}
			quiz.ShuffleQuestions(pool, o.rng)
			if len(pool) > lv.QuestionsCount {
				pool = pool[:lv.QuestionsCount]
			}
			for _, id := range pool {
				q := t.QuestionByID(id)
				s.perms[id] = permForQuestion(q, o.rng)
			}
			ts.Levels = append(ts.Levels, LevelState{
				LevelIndex: li,
				Status:     LevelPending,
			})
			ts.Levels[li].QuestionIDs = pool
		}
		ts.CurrentLevelIndex = StartLevelIndex(len(t.Levels))
		s.topics = append(s.topics, ts)
	}
	return s
}

// Begin activates the first topic at its median level. Remaining topics
// stay pending until reached sequentially.
func (s *Adaptive) Begin() *SubmitOutcome {
	if s.started || len(s.topics) == 0 {
		return nil
	}
	s.started = true
	s.topics[0].Status = TopicInProgress
	s.activateLevel(&s.topics[0], s.topics[0].CurrentLevelIndex)
	// A topic whose starting level has an empty pool resolves immediately;
	// with every topic starved the whole session finishes here.
	out := &SubmitOutcome{}
	s.resolveStarved(out)
	out.IsFinished = s.finished
	return out
}

// Current returns the next unanswered question from the active level's
// pool, or nil when the session is finished.
func (s *Adaptive) Current() *quiz.Question {
	if !s.started || s.finished {
		return nil
	}
	ts := &s.topics[s.currentTopic]
	lv := &ts.Levels[ts.CurrentLevelIndex]
	for _, id := range lv.QuestionIDs {
		if _, done := s.answers[id]; !done {
			return s.def.QuestionByID(id)
		}
	}
	return nil
}

// Perm returns the stable display permutation for a question.
func (s *Adaptive) Perm(questionID string) DisplayPerm { return s.perms[questionID] }

// SubmitAnswer validates, records and evaluates one answer, then runs the
// ladder logic. An incomplete answer is rejected without mutating state.
func (s *Adaptive) SubmitAnswer(a *quiz.Answer) (*SubmitOutcome, error) {
	if s.finished {
		return nil, ErrAlreadyFinished
	}
	if !s.started {
		return nil, ErrNotStarted
	}
	q := s.Current()
	if q == nil {
		return nil, ErrNoCurrentQuestion
	}
	if !a.Complete(q) {
		return nil, ErrIncompleteAnswer
	}

	ts := &s.topics[s.currentTopic]
	lv := &ts.Levels[ts.CurrentLevelIndex]

	s.answers[q.ID] = a
	s.answeredN++
	lv.Answered = append(lv.Answered, q.ID)
	ev := s.eval.Score(q, a)
	correct := ev.Ratio == 1
	if correct {
		lv.CorrectCount++
	}

	out := &SubmitOutcome{IsCorrect: correct}
	level := s.def.Topics[s.currentTopic].Levels[ts.CurrentLevelIndex]
	required := level.RequiredCorrect()

	switch {
	case lv.CorrectCount >= required:
		// Early pass: remaining pool questions are not consumed. Pool
		// exhaustion with the threshold met lands here too.
		lv.Status = LevelPassed
		s.handleLevelPassed(ts, out)
	case lv.CorrectCount+lv.remaining() < required:
		// Early fail: the threshold is mathematically out of reach. With
		// zero remaining this is the final comparison.
		lv.Status = LevelFailed
		s.handleLevelFailed(ts, out)
	}

	s.resolveStarved(out)
	out.IsFinished = s.finished
	s.fx.AnswerRecorded(q, a, correct)
	s.fx.ProgressChanged(s.answeredN, s.answers)
	return out, nil
}

// handleLevelPassed records the achieved level and looks only at the
// immediate next rung: move up into it if pending, otherwise the topic is
// done. Levels are never skipped.
func (s *Adaptive) handleLevelPassed(ts *TopicState, out *SubmitOutcome) {
	from := ts.CurrentLevelIndex
	achieved := from
	ts.FinalLevelIndex = &achieved

	next := from + 1
	if next < len(ts.Levels) && ts.Levels[next].Status == LevelPending {
		ts.CurrentLevelIndex = next
		s.activateLevel(ts, next)
		to := next
		out.LevelTransition = &LevelTransition{
			Type: TransitionUp, FromLevel: from, ToLevel: &to,
			Message: s.levelMessage(ts, next),
		}
		return
	}
	out.LevelTransition = &LevelTransition{Type: TransitionComplete, FromLevel: from}
	s.completeTopic(ts, out)
}

// handleLevelFailed: a topic that already achieved a level keeps it and
// completes immediately; otherwise probe the immediate previous rung, or
// complete with nothing achieved.
func (s *Adaptive) handleLevelFailed(ts *TopicState, out *SubmitOutcome) {
	from := ts.CurrentLevelIndex
	if ts.FinalLevelIndex != nil {
		out.LevelTransition = &LevelTransition{Type: TransitionComplete, FromLevel: from}
		s.completeTopic(ts, out)
		return
	}
	prev := from - 1
	if prev >= 0 && ts.Levels[prev].Status == LevelPending {
		ts.CurrentLevelIndex = prev
		s.activateLevel(ts, prev)
		to := prev
		out.LevelTransition = &LevelTransition{
			Type: TransitionDown, FromLevel: from, ToLevel: &to,
			Message: s.levelMessage(ts, prev),
		}
		return
	}
	out.LevelTransition = &LevelTransition{Type: TransitionComplete, FromLevel: from}
	s.completeTopic(ts, out)
}

func (s *Adaptive) activateLevel(ts *TopicState, idx int) {
	if ts.Levels[idx].Status == LevelPending {
		ts.Levels[idx].Status = LevelInProgress
	}
}

// completeTopic closes the topic and activates the next one at its own
// median level; with no topics left the whole session finishes.
func (s *Adaptive) completeTopic(ts *TopicState, out *SubmitOutcome) {
	ts.Status = TopicCompleted
	if s.currentTopic+1 < len(s.topics) {
		from := ts.TopicID
		s.currentTopic++
		nt := &s.topics[s.currentTopic]
		nt.Status = TopicInProgress
		s.activateLevel(nt, nt.CurrentLevelIndex)
		out.TopicTransition = &TopicTransition{FromTopic: from, ToTopic: nt.TopicID}
		return
	}
	s.finished = true
}

// resolveStarved fails an active level whose pool cannot reach its
// threshold with zero questions answered (an empty or undersized pool).
// Runs after every transition so activation of a starved level resolves in
// the same call.
func (s *Adaptive) resolveStarved(out *SubmitOutcome) {
	for !s.finished {
		ts := &s.topics[s.currentTopic]
		lv := &ts.Levels[ts.CurrentLevelIndex]
		if lv.Status != LevelInProgress {
			return
		}
		level := s.def.Topics[s.currentTopic].Levels[ts.CurrentLevelIndex]
		if lv.CorrectCount+lv.remaining() >= level.RequiredCorrect() {
			return
		}
		lv.Status = LevelFailed
		s.handleLevelFailed(ts, out)
	}
}

func (s *Adaptive) levelMessage(ts *TopicState, idx int) string {
	t := s.def.TopicByID(ts.TopicID)
	if t == nil || idx >= len(t.Levels) {
		return ""
	}
	if fb := t.Levels[idx].Feedback; fb != "" {
		return fb
	}
	return t.Levels[idx].Name
}

// Accessors for the result builder and presentation layer.

func (s *Adaptive) Topics() []TopicState             { return s.topics }
func (s *Adaptive) Answers() map[string]*quiz.Answer { return s.answers }
func (s *Adaptive) Finished() bool                   { return s.finished }
