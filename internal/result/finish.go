package result

import (
	"fmt"
	"time"

	"github.com/vvlad1973/scorm-runtime/internal/quiz"
	"github.com/vvlad1973/scorm-runtime/internal/scorm"
	"github.com/vvlad1973/scorm-runtime/internal/suspend"
	"github.com/vvlad1973/scorm-runtime/internal/telemetry"
)

// Gradebook is the slice of the transport adapter the sequencer writes.
type Gradebook interface {
	Finish(raw, min, max float64, completion, success string) bool
	SetObjective(i int, id string, raw float64, success, completion string) bool
	SetInteraction(i int, id, typ, result, learnerResponse, correctPattern, description string) bool
	SetComment(i int, comment string) bool
	SetLocation(loc string) bool
	SetProgressMeasure(m float64) bool
	Commit() bool
	Terminate() bool
}

// History is the slice of the suspend store the sequencer needs.
type History interface {
	Read() suspend.State
	RecordCompletedAttempt(rec suspend.AttemptRecord)
}

// Reporter is the telemetry slice: always receives the true result.
type Reporter interface {
	Attempt() int
	Finish(ev telemetry.FinishEvent)
}

// ForcedPassMarker is written to the learner-comments field whenever the
// exhaustion override rewrites the LMS success status, so downstream
// reporting can detect the adjustment.
const ForcedPassMarker = "forced-pass:attempts-exhausted"

// Policy controls the LMS-facing adjustments.
type Policy struct {
	// ForcePassOnExhaustion reports passed=true to the LMS when the learner
	// has used every attempt without passing, so the course item does not
	// stay permanently failed-retriable. Telemetry still sees the real
	// result.
	ForcePassOnExhaustion bool
}

// DefaultPolicy mirrors the shipped product behaviour.
func DefaultPolicy() Policy { return Policy{ForcePassOnExhaustion: true} }

// Outcome reports what the finish sequence decided and wrote.
type Outcome struct {
	Record       suspend.AttemptRecord
	Best         suspend.AttemptRecord
	PassedForLms bool
	Forced       bool // exhaustion override applied
}

// Sequencer executes the ordered finish pipeline: persist history, report
// truth to telemetry, project the best-ever attempt into the gradebook.
type Sequencer struct {
	Gradebook Gradebook
	History   History
	Reporter  Reporter
	Policy    Policy
	Clock     func() time.Time

	done    bool
	outcome Outcome
}

func NewSequencer(gb Gradebook, hist History, rep Reporter, pol Policy) *Sequencer {
	return &Sequencer{Gradebook: gb, History: hist, Reporter: rep, Policy: pol, Clock: time.Now}
}

// Finish runs the whole sequence exactly once; repeated calls return the
// first outcome without re-running any step. A timer expiry racing a manual
// submit therefore produces a single AttemptRecord and a single telemetry
// finish event.
func (s *Sequencer) Finish(def *quiz.TestDefinition, res Result) Outcome {
	if s.done {
		return s.outcome
	}
	s.done = true

	// 1. Durable, authoritative record first.
	now := s.Clock().UnixMilli()
	rec := ToAttemptRecord(res, s.Reporter.Attempt(), now)
	s.History.RecordCompletedAttempt(rec)

	// 2. Telemetry sees reality, never the LMS-facing adjustment.
	s.Reporter.Finish(telemetry.FinishEvent{
		Attempt:     rec.Number,
		Percent:     res.Percent,
		Correct:     res.TotalCorrect,
		Total:       res.TotalQuestions,
		Passed:      res.Passed,
		TimeExpired: res.TimeExpired,
	})

	// 3. The gradebook is always populated from the best-ever attempt.
	st := s.History.Read()
	best, ok := suspend.BestAttempt(st.Attempts)
	if !ok {
		best = rec
	}

	// 4. LMS-facing pass flag.
	passedForLms := best.Passed
	forced := false
	switch {
	case res.TimeExpired:
		// Time-expired attempts are never reported as passed, whatever the
		// computed score says.
		passedForLms = false
	case !best.Passed && s.Policy.ForcePassOnExhaustion &&
		def.MaxAttempts > 0 && st.AttemptsUsed >= def.MaxAttempts:
		passedForLms = true
		forced = true
	}

	// 5. Gradebook write, commit, terminate.
	if def.Mode == quiz.ModeAdaptive {
		s.writeAdaptiveGradebook(def, best)
	} else {
		s.writeStandardGradebook(best, passedForLms)
	}
	if forced {
		s.Gradebook.SetComment(0, ForcedPassMarker)
		s.Gradebook.Commit()
	}
	s.Gradebook.Terminate()

	s.outcome = Outcome{Record: rec, Best: best, PassedForLms: passedForLms, Forced: forced}
	return s.outcome
}

func (s *Sequencer) writeStandardGradebook(best suspend.AttemptRecord, passed bool) {
	for i, tr := range best.Topics {
		success := scorm.SuccessUnknown
		if tr.Passed != nil {
			success = scorm.SuccessFailed
			if *tr.Passed {
				success = scorm.SuccessPassed
			}
		}
		s.Gradebook.SetObjective(i, tr.TopicID, tr.Percent, success, scorm.CompletionCompleted)
	}
	// Interactions come from the stored snapshot so a historical best
	// attempt can be reported without its session in memory.
	for i, q := range best.Questions {
		result := "incorrect"
		if q.Correct {
			result = "correct"
		}
		s.Gradebook.SetInteraction(i, q.ID, InteractionType(q.Type), result, q.LearnerResponse, q.CorrectPattern, q.Prompt)
	}
	s.Gradebook.SetProgressMeasure(1)
	success := scorm.SuccessFailed
	if passed {
		success = scorm.SuccessPassed
	}
	s.Gradebook.Finish(best.Percent, 0, 100, scorm.CompletionCompleted, success)
}

// writeAdaptiveGradebook reports a simplified record: one objective per
// topic, no interactions, and success always "passed" at the SCORM layer.
// The true result went out via telemetry; the LMS record in adaptive mode
// is deliberately not a reliable pass/fail source. The achieved-level
// location is written after Finish because the score/commit sequence
// resets cmi.location.
func (s *Sequencer) writeAdaptiveGradebook(def *quiz.TestDefinition, best suspend.AttemptRecord) {
	for i, tr := range best.Topics {
		success := scorm.SuccessFailed
		if tr.AchievedLevel != nil {
			success = scorm.SuccessPassed
		}
		s.Gradebook.SetObjective(i, tr.TopicID, tr.Percent, success, scorm.CompletionCompleted)
	}
	s.Gradebook.SetProgressMeasure(1)
	s.Gradebook.Finish(best.Percent, 0, 100, scorm.CompletionCompleted, scorm.SuccessPassed)
	if loc := achievedLocation(best); loc != "" {
		s.Gradebook.SetLocation(loc)
		s.Gradebook.Commit()
	}
}

func achievedLocation(best suspend.AttemptRecord) string {
	loc := ""
	for _, tr := range best.Topics {
		if tr.AchievedLevel == nil {
			continue
		}
		if loc != "" {
			loc += ";"
		}
		loc += fmt.Sprintf("%s=%d", tr.TopicID, *tr.AchievedLevel)
	}
	return loc
}
