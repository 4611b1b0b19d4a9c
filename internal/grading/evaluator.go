package grading

import (
	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

// Evaluation is the outcome of scoring a single answered question.
type Evaluation struct {
	Ratio  float64 // 0 or 1; this system awards no partial credit
	Points float64 // Ratio * question weight
	Max    float64 // the question's weight
}

// Strategy scores one question type.
type Strategy interface {
	Ratio(q *quiz.Question, a *quiz.Answer) float64
}

// Evaluator routes by question type to the matching Strategy.
type Evaluator struct {
	strategies map[string]Strategy
}

// NewEvaluator installs the built-in strategies for the four closed-form
// question types.
func NewEvaluator() *Evaluator {
	return &Evaluator{strategies: map[string]Strategy{
		quiz.TypeSingle:   singleStrategy{},
		quiz.TypeMultiple: multipleStrategy{},
		quiz.TypeMatching: matchingStrategy{},
		quiz.TypeRanking:  rankingStrategy{},
	}}
}

// Score evaluates an answer against the question's correct-answer record.
// A nil answer scores 0 without inspecting the type.
func (e *Evaluator) Score(q *quiz.Question, a *quiz.Answer) Evaluation {
	ev := Evaluation{Max: q.Weight()}
	if a == nil {
		return ev
	}
	s, ok := e.strategies[q.Type]
	if !ok {
		return ev
	}
	ev.Ratio = s.Ratio(q, a)
	ev.Points = ev.Ratio * ev.Max
	return ev
}

type singleStrategy struct{}

func (singleStrategy) Ratio(q *quiz.Question, a *quiz.Answer) float64 {
	if a.Single != nil && *a.Single == q.CorrectIndex {
		return 1
	}
	return 0
}

type multipleStrategy struct{}

// Exact set equality: any subset or superset mismatch scores 0.
func (multipleStrategy) Ratio(q *quiz.Question, a *quiz.Answer) float64 {
	if len(a.Multiple) != len(q.CorrectIndices) {
		return 0
	}
	correct := make(map[int]struct{}, len(q.CorrectIndices))
	for _, i := range q.CorrectIndices {
		correct[i] = struct{}{}
	}
	seen := make(map[int]struct{}, len(a.Multiple))
	for _, i := range a.Multiple {
		if _, ok := correct[i]; !ok {
			return 0
		}
		seen[i] = struct{}{}
	}
	if len(seen) != len(correct) {
		return 0
	}
	return 1
}

type matchingStrategy struct{}

// Every left index must map to exactly the recorded right index, with no
// extra pairs.
func (matchingStrategy) Ratio(q *quiz.Question, a *quiz.Answer) float64 {
	if len(a.Matching) != len(q.CorrectPairs) {
		return 0
	}
	for l, want := range q.CorrectPairs {
		got, ok := a.Matching[l]
		if !ok || got != want {
			return 0
		}
	}
	return 1
}

type rankingStrategy struct{}

func (rankingStrategy) Ratio(q *quiz.Question, a *quiz.Answer) float64 {
	if len(a.Ranking) != len(q.CorrectOrder) {
		return 0
	}
	for i, v := range q.CorrectOrder {
		if a.Ranking[i] != v {
			return 0
		}
	}
	return 1
}
