package result

import (
	"testing"

	"github.com/vvlad1973/scorm-runtime/internal/quiz"
	"github.com/vvlad1973/scorm-runtime/internal/session"
)

func ip(v int) *int { return &v }

func TestBuildStandardWeightedPercent(t *testing.T) {
	def := &quiz.TestDefinition{
		Mode:     quiz.ModeStandard,
		PassRule: &quiz.PassRule{Type: quiz.ThresholdPercent, Value: 50},
		Topics: []quiz.TopicSection{{
			TopicID: "t1",
			Questions: []quiz.Question{
				{ID: "q1", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 0, Points: 3},
				{ID: "q2", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 0, Points: 1},
			},
		}},
	}
	questions := []*quiz.Question{&def.Topics[0].Questions[0], &def.Topics[0].Questions[1]}
	answers := map[string]*quiz.Answer{
		"q1": {Single: ip(0)}, // 3 of 4 points
		"q2": {Single: ip(1)},
	}
	res := BuildStandard(def, questions, answers, false)

	if res.Percent != 75 {
		t.Fatalf("percent = %v, want point-weighted 75", res.Percent)
	}
	if res.TotalCorrect != 1 || res.TotalQuestions != 2 {
		t.Fatalf("correct/total = %d/%d, want 1/2", res.TotalCorrect, res.TotalQuestions)
	}
	if !res.Passed {
		t.Fatal("75% must pass the 50% rule")
	}
	if len(res.Questions) != 2 {
		t.Fatalf("snapshots = %d, want one per drawn question", len(res.Questions))
	}
}

func TestBuildStandardTopicRuleGatesOverallPass(t *testing.T) {
	// The overall percent clears the test rule, but one topic rule fails,
	// so the attempt fails as a whole.
	def := &quiz.TestDefinition{
		Mode:     quiz.ModeStandard,
		PassRule: &quiz.PassRule{Type: quiz.ThresholdPercent, Value: 40},
		Topics: []quiz.TopicSection{
			{
				TopicID:  "t1",
				PassRule: &quiz.PassRule{Type: quiz.ThresholdPercent, Value: 100},
				Questions: []quiz.Question{
					{ID: "q1", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 0},
				},
			},
			{
				TopicID: "t2",
				Questions: []quiz.Question{
					{ID: "q2", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 0},
				},
			},
		},
	}
	questions := []*quiz.Question{&def.Topics[0].Questions[0], &def.Topics[1].Questions[0]}
	answers := map[string]*quiz.Answer{
		"q1": {Single: ip(1)},
		"q2": {Single: ip(0)},
	}
	res := BuildStandard(def, questions, answers, false)

	if res.Percent != 50 {
		t.Fatalf("percent = %v, want 50", res.Percent)
	}
	if res.Passed {
		t.Fatal("a failed topic rule must fail the attempt")
	}
	if res.Topics[0].Passed == nil || *res.Topics[0].Passed {
		t.Fatalf("t1 passed = %v, want false", res.Topics[0].Passed)
	}
	if res.Topics[1].Passed != nil {
		t.Fatal("a topic without a rule reports no pass flag")
	}
}

func TestBuildStandardDrawnOnly(t *testing.T) {
	def := &quiz.TestDefinition{
		Mode: quiz.ModeStandard,
		Topics: []quiz.TopicSection{{
			TopicID: "t1",
			Questions: []quiz.Question{
				{ID: "q1", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 0},
				{ID: "q2", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 0},
			},
		}},
	}
	questions := []*quiz.Question{&def.Topics[0].Questions[0]}
	res := BuildStandard(def, questions, map[string]*quiz.Answer{"q1": {Single: ip(0)}}, false)
	if res.TotalQuestions != 1 {
		t.Fatalf("total = %d, undrawn pool questions must not count", res.TotalQuestions)
	}
}

func TestBuildAdaptivePassedMeansEveryTopicAchieved(t *testing.T) {
	def := &quiz.TestDefinition{
		Mode: quiz.ModeAdaptive,
		Topics: []quiz.TopicSection{
			{
				TopicID: "t1",
				Levels:  []quiz.Level{{Index: 0, Name: "Base", Links: []string{"ref"}}},
				Questions: []quiz.Question{
					{ID: "q1", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 0},
				},
			},
			{
				TopicID: "t2",
				Levels:  []quiz.Level{{Index: 0, Name: "Base"}},
				Questions: []quiz.Question{
					{ID: "q2", Type: quiz.TypeSingle, Options: []string{"a", "b"}, CorrectIndex: 0},
				},
			},
		},
	}
	topics := []session.TopicState{
		{
			TopicID:         "t1",
			FinalLevelIndex: ip(0),
			Levels: []session.LevelState{{
				LevelIndex: 0, Status: session.LevelPassed,
				QuestionIDs: []string{"q1"}, Answered: []string{"q1"}, CorrectCount: 1,
			}},
		},
		{
			TopicID: "t2",
			Levels: []session.LevelState{{
				LevelIndex: 0, Status: session.LevelFailed,
				QuestionIDs: []string{"q2"}, Answered: []string{"q2"},
			}},
		},
	}
	answers := map[string]*quiz.Answer{
		"q1": {Single: ip(0)},
		"q2": {Single: ip(1)},
	}
	res := BuildAdaptive(def, topics, answers)

	if res.Passed {
		t.Fatal("an unachieved topic must fail the attempt")
	}
	t1 := res.Topics[0]
	if t1.AchievedLevel == nil || *t1.AchievedLevel != 0 || t1.LevelName != "Base" {
		t.Fatalf("t1 = %+v, want achieved level 0 named Base", t1)
	}
	if len(t1.Links) != 1 {
		t.Fatalf("t1 links = %v, want the level's links carried over", t1.Links)
	}
	if res.Topics[1].Passed == nil || *res.Topics[1].Passed {
		t.Fatal("t2 must report not achieved")
	}

	topics[1].FinalLevelIndex = ip(0)
	if res := BuildAdaptive(def, topics, answers); !res.Passed {
		t.Fatal("every topic achieved must pass the attempt")
	}
}

func TestPatterns(t *testing.T) {
	mq := &quiz.Question{
		Type:         quiz.TypeMatching,
		LeftItems:    []string{"a", "b"},
		RightItems:   []string{"x", "y"},
		CorrectPairs: map[int]int{1: 0, 0: 1},
	}
	if got := CorrectPattern(mq); got != "0[.]1[,]1[.]0" {
		t.Fatalf("matching pattern = %q", got)
	}
	multi := &quiz.Question{Type: quiz.TypeMultiple, CorrectIndices: []int{2, 0}}
	if got := CorrectPattern(multi); got != "0[,]2" {
		t.Fatalf("multiple pattern = %q, want sorted", got)
	}
	if got := ResponsePattern(multi, nil); got != "" {
		t.Fatalf("missing answer pattern = %q, want empty", got)
	}
	rq := &quiz.Question{Type: quiz.TypeRanking, Items: []string{"a", "b", "c"}}
	if got := ResponsePattern(rq, &quiz.Answer{Ranking: []int{2, 0, 1}}); got != "2[,]0[,]1" {
		t.Fatalf("ranking pattern = %q, order must be preserved", got)
	}

	if InteractionType(quiz.TypeRanking) != "sequencing" ||
		InteractionType(quiz.TypeMatching) != "matching" ||
		InteractionType(quiz.TypeSingle) != "choice" {
		t.Fatal("interaction type mapping wrong")
	}
}
