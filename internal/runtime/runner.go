// Package runtime wires one package load end to end: locate the host API,
// load attempt history, run a session, and drive the finish sequence. It is
// the explicit state container the presentation layer observes; no state
// hides in ambient globals.
package runtime

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/vvlad1973/scorm-runtime/internal/quiz"
	"github.com/vvlad1973/scorm-runtime/internal/result"
	"github.com/vvlad1973/scorm-runtime/internal/scorm"
	"github.com/vvlad1973/scorm-runtime/internal/session"
	"github.com/vvlad1973/scorm-runtime/internal/suspend"
	"github.com/vvlad1973/scorm-runtime/internal/telemetry"
)

// ErrAttemptsExhausted blocks starting a new attempt once maxAttempts is
// used up. The finish-time forced-pass policy is the recovery path for the
// learner's LMS record.
var ErrAttemptsExhausted = errors.New("no attempts remaining")

var ErrNoSession = errors.New("no active session")

// ErrNothingToResume means the suspend blob holds no in-progress mirror;
// the caller falls back to StartAttempt.
var ErrNothingToResume = errors.New("no in-progress attempt to resume")

type Runner struct {
	def     *quiz.TestDefinition
	adapter *scorm.Adapter
	store   *suspend.Store
	tel     *telemetry.Client
	seq     *result.Sequencer

	std *session.Standard
	adp *session.Adaptive
}

// New builds a runner from the embedded payload and a located host API
// (nil for standalone mode).
func New(def *quiz.TestDefinition, api scorm.API, telCfg telemetry.Config) *Runner {
	adapter := scorm.NewAdapter(api)
	store := suspend.NewStore(adapter)
	tel := telemetry.NewClient(telCfg)
	return &Runner{
		def:     def,
		adapter: adapter,
		store:   store,
		tel:     tel,
		seq:     result.NewSequencer(adapter, store, tel, result.DefaultPolicy()),
	}
}

// Adapter exposes the transport for the presentation layer.
func (r *Runner) Adapter() *scorm.Adapter { return r.adapter }

// Telemetry exposes the reporting client so callers can run its retry loop.
func (r *Runner) Telemetry() *telemetry.Client { return r.tel }

// History returns the current suspend-state snapshot.
func (r *Runner) History() suspend.State { return r.store.Read() }

// StartAttempt burns one attempt and constructs a fresh session for the
// definition's mode. Must be called exactly once per attempt; re-renders go
// through the existing session.
func (r *Runner) StartAttempt(opts ...session.Option) error {
	r.adapter.Initialize()
	if !r.store.RegisterAttemptStart(r.def.MaxAttempts) {
		return ErrAttemptsExhausted
	}
	opts = append(opts, session.WithEffects(&effects{r: r}))
	if r.def.Mode == quiz.ModeAdaptive {
		r.adp = session.NewAdaptive(r.def, opts...)
		r.adp.Begin()
	} else {
		r.std = session.NewStandard(r.def, opts...)
		r.std.Begin()
	}
	// Mirror immediately so a relaunch before the first answer still
	// reproduces the draw and layout.
	r.mirrorLive()
	r.tel.Start(telemetry.StartEvent{
		TestID:  r.def.ID,
		Attempt: r.tel.Attempt(),
		Learner: r.adapter.LearnerIdentity(),
	})
	return nil
}

// Resume rebuilds the session from the live mirror a previous page load
// left in the suspend blob. No attempt is burned; the relaunch continues
// the attempt that registered it. Returns ErrNothingToResume when no mirror
// exists.
func (r *Runner) Resume(opts ...session.Option) error {
	r.adapter.Initialize()
	live := r.store.Read().Live
	if live == nil {
		return ErrNothingToResume
	}
	opts = append(opts, session.WithEffects(&effects{r: r}))
	switch {
	case live.Adaptive != nil:
		adp, err := session.ResumeAdaptive(r.def, *live.Adaptive, opts...)
		if err != nil {
			return err
		}
		r.adp = adp
	case live.Standard != nil:
		std, err := session.ResumeStandard(r.def, *live.Standard, opts...)
		if err != nil {
			return err
		}
		r.std = std
	default:
		return ErrNothingToResume
	}
	r.tel.SetAttempt(live.Attempt)
	r.tel.Start(telemetry.StartEvent{
		TestID:  r.def.ID,
		Attempt: r.tel.Attempt(),
		Learner: r.adapter.LearnerIdentity(),
	})
	return nil
}

// mirrorLive writes the running session into the suspend blob.
func (r *Runner) mirrorLive() {
	live := &suspend.LiveAttempt{Attempt: r.tel.Attempt(), Mode: string(r.def.Mode)}
	switch {
	case r.adp != nil:
		snap := r.adp.Snapshot()
		live.Adaptive = &snap
	case r.std != nil:
		snap := r.std.Snapshot()
		live.Standard = &snap
	default:
		return
	}
	r.store.SaveLive(live)
}

// Restart discards the finished session and begins a retake with the next
// attempt number.
func (r *Runner) Restart(opts ...session.Option) error {
	r.std, r.adp = nil, nil
	r.seq = result.NewSequencer(r.adapter, r.store, r.tel, r.seq.Policy)
	r.tel.NextAttempt()
	return r.StartAttempt(opts...)
}

// Standard returns the running standard session, nil in adaptive mode.
func (r *Runner) Standard() *session.Standard { return r.std }

// Adaptive returns the running adaptive session, nil in standard mode.
func (r *Runner) Adaptive() *session.Adaptive { return r.adp }

// Tick drives the standard-mode countdown; expiry force-finishes the
// attempt through the normal sequence.
func (r *Runner) Tick(now time.Time) {
	if r.std != nil && r.std.Tick(now) {
		r.Finish()
	}
}

// Finish builds the final result for whichever session ran and executes the
// finish sequence. Idempotent.
func (r *Runner) Finish() (result.Outcome, error) {
	var res result.Result
	switch {
	case r.adp != nil:
		res = result.BuildAdaptive(r.def, r.adp.Topics(), r.adp.Answers())
	case r.std != nil:
		res = result.BuildStandard(r.def, r.std.Questions(), r.std.Answers(), r.std.TimeExpired())
	default:
		return result.Outcome{}, ErrNoSession
	}
	return r.seq.Finish(r.def, res), nil
}

// Unload is the page-unload path: best-effort commit and terminate on the
// SCORM channel only. In-flight telemetry is not cancelled.
func (r *Runner) Unload() {
	r.adapter.Commit()
	r.adapter.Terminate()
}

// effects forwards session side effects to telemetry and refreshes the
// suspend mirror. The session's authoritative transition has already
// completed when these fire.
type effects struct {
	r *Runner
}

func (e *effects) AnswerRecorded(q *quiz.Question, a *quiz.Answer, correct bool) {
	ev := telemetry.AnswerEvent{
		Attempt:    e.r.tel.Attempt(),
		QuestionID: q.ID,
		Correct:    correct,
	}
	for ti := range e.r.def.Topics {
		if e.r.def.Topics[ti].QuestionByID(q.ID) != nil {
			ev.TopicID = e.r.def.Topics[ti].TopicID
			break
		}
	}
	if e.r.adp != nil {
		for _, ts := range e.r.adp.Topics() {
			if ts.TopicID == ev.TopicID {
				idx := ts.CurrentLevelIndex
				ev.LevelIndex = &idx
			}
		}
	}
	e.r.tel.Answer(ev)
	e.r.mirrorLive()
}

func (e *effects) ProgressChanged(currentIndex int, answers map[string]*quiz.Answer) {
	b, err := json.Marshal(answers)
	if err != nil {
		return
	}
	e.r.tel.Progress(telemetry.ProgressEvent{
		Attempt:      e.r.tel.Attempt(),
		CurrentIndex: currentIndex,
		Answers:      b,
	})
	e.r.mirrorLive()
}
