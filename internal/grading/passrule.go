package grading

import "github.com/vvlad1973/scorm-runtime/internal/quiz"

// Passes applies a percent-or-absolute pass rule. Percent rules compare the
// point-weighted percent; absolute rules compare the count of fully-correct
// questions. A nil rule always passes.
func Passes(rule *quiz.PassRule, percent float64, countCorrect int) bool {
	if rule == nil {
		return true
	}
	switch rule.Type {
	case quiz.ThresholdAbsolute:
		return float64(countCorrect) >= rule.Value
	default: // percent
		return percent >= rule.Value
	}
}
