// Package result aggregates per-topic and per-level outcomes into a final
// attempt result and drives the finish sequence across the three
// persistence channels.
package result

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vvlad1973/scorm-runtime/internal/grading"
	"github.com/vvlad1973/scorm-runtime/internal/quiz"
	"github.com/vvlad1973/scorm-runtime/internal/session"
	"github.com/vvlad1973/scorm-runtime/internal/suspend"
)

// Result is the unified final outcome of either session mode.
type Result struct {
	TotalQuestions int
	TotalCorrect   int // count of fully-correct answers
	EarnedPoints   float64
	PossiblePoints float64
	Percent        float64 // point-weighted
	Passed         bool
	TimeExpired    bool
	Topics         []suspend.TopicResult
	Answers        map[string]*quiz.Answer
	Questions      []suspend.QuestionSnapshot
}

// BuildStandard scores a finished standard session: per-topic breakdown,
// point-weighted overall percent, and overall passed = every topic rule AND
// the test rule satisfied.
func BuildStandard(def *quiz.TestDefinition, questions []*quiz.Question, answers map[string]*quiz.Answer, timeExpired bool) Result {
	eval := grading.NewEvaluator()
	res := Result{
		Answers:     answers,
		TimeExpired: timeExpired,
	}

	drawn := map[string]bool{}
	for _, q := range questions {
		drawn[q.ID] = true
	}

	allRulesPass := true
	for ti := range def.Topics {
		t := &def.Topics[ti]
		tr := suspend.TopicResult{TopicID: t.TopicID, TopicName: t.TopicName}
		for qi := range t.Questions {
			q := &t.Questions[qi]
			if !drawn[q.ID] {
				continue
			}
			ev := eval.Score(q, answers[q.ID])
			tr.Total++
			tr.PossiblePoints += ev.Max
			tr.EarnedPoints += ev.Points
			if ev.Ratio == 1 {
				tr.Correct++
			}
			res.Questions = append(res.Questions, snapshot(q, answers[q.ID], ev))
		}
		if tr.PossiblePoints > 0 {
			tr.Percent = tr.EarnedPoints / tr.PossiblePoints * 100
		}
		if t.PassRule != nil {
			p := grading.Passes(t.PassRule, tr.Percent, tr.Correct)
			tr.Passed = &p
			if !p {
				allRulesPass = false
			}
		}
		res.TotalQuestions += tr.Total
		res.TotalCorrect += tr.Correct
		res.EarnedPoints += tr.EarnedPoints
		res.PossiblePoints += tr.PossiblePoints
		res.Topics = append(res.Topics, tr)
	}

	if res.PossiblePoints > 0 {
		res.Percent = res.EarnedPoints / res.PossiblePoints * 100
	}
	res.Passed = allRulesPass && grading.Passes(def.PassRule, res.Percent, res.TotalCorrect)
	return res
}

// BuildAdaptive scores a finished adaptive session. Overall passed means at
// least one level achieved in every topic.
func BuildAdaptive(def *quiz.TestDefinition, topics []session.TopicState, answers map[string]*quiz.Answer) Result {
	eval := grading.NewEvaluator()
	res := Result{Answers: answers}

	allAchieved := true
	for i := range topics {
		ts := &topics[i]
		t := def.TopicByID(ts.TopicID)
		tr := suspend.TopicResult{TopicID: ts.TopicID}
		if t != nil {
			tr.TopicName = t.TopicName
		}
		for _, lv := range ts.Levels {
			for _, id := range lv.Answered {
				q := def.QuestionByID(id)
				if q == nil {
					continue
				}
				ev := eval.Score(q, answers[id])
				tr.Total++
				tr.PossiblePoints += ev.Max
				tr.EarnedPoints += ev.Points
				if ev.Ratio == 1 {
					tr.Correct++
				}
				res.Questions = append(res.Questions, snapshot(q, answers[id], ev))
			}
		}
		if tr.PossiblePoints > 0 {
			tr.Percent = tr.EarnedPoints / tr.PossiblePoints * 100
		}
		achieved := ts.FinalLevelIndex != nil
		tr.Passed = &achieved
		if achieved {
			idx := *ts.FinalLevelIndex
			tr.AchievedLevel = &idx
			if t != nil && idx < len(t.Levels) {
				tr.LevelName = t.Levels[idx].Name
				tr.Links = t.Levels[idx].Links
			}
		} else {
			allAchieved = false
		}
		res.TotalQuestions += tr.Total
		res.TotalCorrect += tr.Correct
		res.EarnedPoints += tr.EarnedPoints
		res.PossiblePoints += tr.PossiblePoints
		res.Topics = append(res.Topics, tr)
	}

	if res.PossiblePoints > 0 {
		res.Percent = res.EarnedPoints / res.PossiblePoints * 100
	}
	res.Passed = allAchieved && len(topics) > 0
	return res
}

// ToAttemptRecord freezes a result into the durable history shape.
func ToAttemptRecord(res Result, number int, completedAt int64) suspend.AttemptRecord {
	return suspend.AttemptRecord{
		Number:         number,
		CompletedAt:    completedAt,
		Percent:        res.Percent,
		Correct:        res.TotalCorrect,
		Total:          res.TotalQuestions,
		EarnedPoints:   res.EarnedPoints,
		PossiblePoints: res.PossiblePoints,
		Passed:         res.Passed,
		TimeExpired:    res.TimeExpired,
		Topics:         res.Topics,
		Answers:        res.Answers,
		Questions:      res.Questions,
	}
}

// snapshot flattens one presented question and its response so the LMS
// interaction report can be regenerated later, even for an attempt that is
// no longer in memory.
func snapshot(q *quiz.Question, a *quiz.Answer, ev grading.Evaluation) suspend.QuestionSnapshot {
	return suspend.QuestionSnapshot{
		ID:              q.ID,
		Type:            q.Type,
		Prompt:          q.Prompt,
		CorrectPattern:  CorrectPattern(q),
		LearnerResponse: ResponsePattern(q, a),
		Correct:         ev.Ratio == 1,
		Points:          ev.Points,
	}
}

// InteractionType maps a question type onto the SCORM interaction
// vocabulary.
func InteractionType(qType string) string {
	switch qType {
	case quiz.TypeMatching:
		return "matching"
	case quiz.TypeRanking:
		return "sequencing"
	default:
		return "choice"
	}
}

// CorrectPattern renders the correct-answer record in SCORM 2004
// correct_responses.pattern syntax.
func CorrectPattern(q *quiz.Question) string {
	switch q.Type {
	case quiz.TypeSingle:
		return fmt.Sprintf("%d", q.CorrectIndex)
	case quiz.TypeMultiple:
		return joinInts(sortedCopy(q.CorrectIndices))
	case quiz.TypeMatching:
		return joinPairs(q.CorrectPairs)
	case quiz.TypeRanking:
		return joinInts(q.CorrectOrder)
	}
	return ""
}

// ResponsePattern renders the learner's answer the same way; empty string
// for a missing answer.
func ResponsePattern(q *quiz.Question, a *quiz.Answer) string {
	if a == nil {
		return ""
	}
	switch q.Type {
	case quiz.TypeSingle:
		if a.Single == nil {
			return ""
		}
		return fmt.Sprintf("%d", *a.Single)
	case quiz.TypeMultiple:
		return joinInts(sortedCopy(a.Multiple))
	case quiz.TypeMatching:
		return joinPairs(a.Matching)
	case quiz.TypeRanking:
		return joinInts(a.Ranking)
	}
	return ""
}

func sortedCopy(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	sort.Ints(out)
	return out
}

func joinInts(in []int) string {
	parts := make([]string, len(in))
	for i, v := range in {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, "[,]")
}

func joinPairs(m map[int]int) string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d[.]%d", k, m[k])
	}
	return strings.Join(parts, "[,]")
}
