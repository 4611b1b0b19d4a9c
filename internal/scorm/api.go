package scorm

// API is the host-provided SCORM 2004 runtime object (API_1484_11). The
// browser host exposes string-typed calls; implementations here normalize
// the "true"/"false" results to bool.
type API interface {
	Initialize() bool
	Terminate() bool
	GetValue(element string) string
	SetValue(element, value string) bool
	Commit() bool
	GetLastError() string
	GetErrorString(code string) string
}

// SCORM 2004 data model elements written or read by the runtime.
const (
	ElemScoreRaw         = "cmi.score.raw"
	ElemScoreMin         = "cmi.score.min"
	ElemScoreMax         = "cmi.score.max"
	ElemScoreScaled      = "cmi.score.scaled"
	ElemCompletionStatus = "cmi.completion_status"
	ElemSuccessStatus    = "cmi.success_status"
	ElemProgressMeasure  = "cmi.progress_measure"
	ElemExit             = "cmi.exit"
	ElemLocation         = "cmi.location"
	ElemSuspendData      = "cmi.suspend_data"
	ElemLearnerID        = "cmi.learner_id"
	ElemLearnerName      = "cmi.learner_name"

	// Vendor extensions some hosts populate.
	ElemStudentEmail = "cmi.student_email"
	ElemStudentOrg   = "cmi.student_org"

	// SCORM 1.2 fallbacks, read-only for learner identity.
	ElemLegacyStudentID   = "cmi.core.student_id"
	ElemLegacyStudentName = "cmi.core.student_name"
)

// Completion and success vocabulary.
const (
	CompletionCompleted  = "completed"
	CompletionIncomplete = "incomplete"
	SuccessPassed        = "passed"
	SuccessFailed        = "failed"
	SuccessUnknown       = "unknown"
)

// Identity is the learner identity as reported by the host.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Org   string `json:"org,omitempty"`
}
