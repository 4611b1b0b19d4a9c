package scorm

import (
	"fmt"
	"strconv"
)

// Adapter is the runtime's single gateway to the host API. With a nil API
// it degrades to standalone mode: every setter succeeds without writing and
// every read returns "", so a package stays fully playable outside an LMS.
type Adapter struct {
	api         API
	initialized bool
	terminated  bool
}

func NewAdapter(api API) *Adapter { return &Adapter{api: api} }

// Standalone reports whether no host API was found.
func (a *Adapter) Standalone() bool { return a.api == nil }

func (a *Adapter) Initialize() bool {
	if a.api == nil {
		a.initialized = true
		return true
	}
	if a.initialized {
		return true
	}
	a.initialized = a.api.Initialize()
	return a.initialized
}

func (a *Adapter) GetValue(element string) string {
	if a.api == nil {
		return ""
	}
	return a.api.GetValue(element)
}

// SetValue returns true in standalone mode without writing anything.
func (a *Adapter) SetValue(element, value string) bool {
	if a.api == nil {
		return true
	}
	return a.api.SetValue(element, value)
}

func (a *Adapter) Commit() bool {
	if a.api == nil {
		return true
	}
	return a.api.Commit()
}

func (a *Adapter) Terminate() bool {
	if a.api == nil {
		a.terminated = true
		return true
	}
	if a.terminated {
		return true
	}
	a.terminated = a.api.Terminate()
	return a.terminated
}

// --- composite helpers ---

// SetScore writes raw/min/max plus the derived scaled value.
func (a *Adapter) SetScore(raw, min, max float64) bool {
	ok := a.SetValue(ElemScoreRaw, formatNum(raw))
	ok = a.SetValue(ElemScoreMin, formatNum(min)) && ok
	ok = a.SetValue(ElemScoreMax, formatNum(max)) && ok
	scaled := 0.0
	if max > min {
		scaled = (raw - min) / (max - min)
	}
	return a.SetValue(ElemScoreScaled, formatNum(scaled)) && ok
}

func (a *Adapter) SetCompletion(status string) bool {
	return a.SetValue(ElemCompletionStatus, status)
}

func (a *Adapter) SetSuccess(status string) bool {
	return a.SetValue(ElemSuccessStatus, status)
}

func (a *Adapter) SetProgressMeasure(m float64) bool {
	return a.SetValue(ElemProgressMeasure, formatNum(m))
}

func (a *Adapter) SetLocation(loc string) bool {
	return a.SetValue(ElemLocation, loc)
}

// SuspendData reads the persistent blob; "" when absent or standalone.
func (a *Adapter) SuspendData() string { return a.GetValue(ElemSuspendData) }

func (a *Adapter) SetSuspendData(blob string) bool {
	return a.SetValue(ElemSuspendData, blob)
}

// SetObjective writes one per-topic objective slot.
func (a *Adapter) SetObjective(i int, id string, raw float64, success, completion string) bool {
	prefix := fmt.Sprintf("cmi.objectives.%d.", i)
	ok := a.SetValue(prefix+"id", id)
	ok = a.SetValue(prefix+"score.raw", formatNum(raw)) && ok
	ok = a.SetValue(prefix+"success_status", success) && ok
	return a.SetValue(prefix+"completion_status", completion) && ok
}

// SetInteraction writes one question's learner response record.
func (a *Adapter) SetInteraction(i int, id, typ, result, learnerResponse, correctPattern, description string) bool {
	prefix := fmt.Sprintf("cmi.interactions.%d.", i)
	ok := a.SetValue(prefix+"id", id)
	ok = a.SetValue(prefix+"type", typ) && ok
	ok = a.SetValue(prefix+"result", result) && ok
	ok = a.SetValue(prefix+"learner_response", learnerResponse) && ok
	ok = a.SetValue(prefix+"correct_responses.0.pattern", correctPattern) && ok
	return a.SetValue(prefix+"description", description) && ok
}

// SetComment writes a diagnostic marker downstream reporting can read.
func (a *Adapter) SetComment(i int, comment string) bool {
	prefix := fmt.Sprintf("cmi.comments_from_learner.%d.", i)
	ok := a.SetValue(prefix+"comment", comment)
	return a.SetValue(prefix+"location", "runtime") && ok
}

// LearnerIdentity reads the 2004 identity fields, vendor extensions, and
// falls back to the 1.2 element names for hosts that only fill those.
func (a *Adapter) LearnerIdentity() Identity {
	id := Identity{
		ID:    a.GetValue(ElemLearnerID),
		Name:  a.GetValue(ElemLearnerName),
		Email: a.GetValue(ElemStudentEmail),
		Org:   a.GetValue(ElemStudentOrg),
	}
	if id.ID == "" {
		id.ID = a.GetValue(ElemLegacyStudentID)
	}
	if id.Name == "" {
		id.Name = a.GetValue(ElemLegacyStudentName)
	}
	return id
}

// Finish writes the gradebook trio and commits. Score, completion and
// success land before cmi.location is cleared; the commit sequence resets
// location on several hosts, so any session-scoped location (for example
// the achieved adaptive level) must be written by the caller after Finish
// returns.
func (a *Adapter) Finish(raw, min, max float64, completion, success string) bool {
	ok := a.SetScore(raw, min, max)
	ok = a.SetCompletion(completion) && ok
	ok = a.SetSuccess(success) && ok
	ok = a.SetValue(ElemExit, "normal") && ok
	ok = a.SetValue(ElemLocation, "") && ok
	return a.Commit() && ok
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
