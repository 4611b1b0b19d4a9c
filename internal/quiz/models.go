package quiz

// Mode selects the runtime engine a package runs with.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeAdaptive Mode = "adaptive"
)

// Question types. The wire names match the embedded payload format.
const (
	TypeSingle   = "single"
	TypeMultiple = "multiple"
	TypeMatching = "matching"
	TypeRanking  = "ranking"
)

// Threshold types for pass rules and level thresholds.
const (
	ThresholdPercent  = "percent"
	ThresholdAbsolute = "absolute"
)

// PassRule is a percent-or-absolute threshold. A nil *PassRule means
// "no rule" and always passes.
type PassRule struct {
	Type  string  `json:"type"` // percent|absolute
	Value float64 `json:"value"`
}

// Feedback carries either a general message or correct/incorrect variants.
type Feedback struct {
	General   string `json:"general,omitempty"`
	Correct   string `json:"correct,omitempty"`
	Incorrect string `json:"incorrect,omitempty"`
}

type Question struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Prompt string `json:"prompt"`

	// Type-specific presentation data.
	Options    []string `json:"options,omitempty"`    // single, multiple
	LeftItems  []string `json:"leftItems,omitempty"`  // matching
	RightItems []string `json:"rightItems,omitempty"` // matching
	Items      []string `json:"items,omitempty"`      // ranking

	// Type-specific correct-answer record.
	CorrectIndex   int         `json:"correctIndex,omitempty"`   // single
	CorrectIndices []int       `json:"correctIndices,omitempty"` // multiple
	CorrectPairs   map[int]int `json:"correctPairs,omitempty"`   // matching: left -> right
	CorrectOrder   []int       `json:"correctOrder,omitempty"`   // ranking

	Points     float64   `json:"points,omitempty"` // 0 means 1
	Difficulty int       `json:"difficulty"`       // 0..100
	MediaURL   string    `json:"mediaUrl,omitempty"`
	Feedback   *Feedback `json:"feedback,omitempty"`
}

// Weight is the question's point value, defaulting to 1 when unset.
func (q Question) Weight() float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Level is one rung of an adaptive topic's difficulty ladder.
type Level struct {
	Index          int      `json:"index"`
	Name           string   `json:"name"`
	MinDifficulty  int      `json:"minDifficulty"`
	MaxDifficulty  int      `json:"maxDifficulty"`
	QuestionsCount int      `json:"questionsCount"`
	PassThreshold  float64  `json:"passThreshold"`
	ThresholdType  string   `json:"thresholdType"` // percent|absolute
	Feedback       string   `json:"feedback,omitempty"`
	Links          []string `json:"links,omitempty"`
}

// RequiredCorrect converts the level threshold into an absolute count of
// fully-correct answers needed to pass the level.
func (l Level) RequiredCorrect() int {
	if l.ThresholdType == ThresholdAbsolute {
		return int(l.PassThreshold)
	}
	need := l.PassThreshold / 100 * float64(l.QuestionsCount)
	n := int(need)
	if float64(n) < need {
		n++ // ceil
	}
	return n
}

type TopicSection struct {
	TopicID   string     `json:"topicId"`
	TopicName string     `json:"topicName"`
	DrawCount int        `json:"drawCount,omitempty"` // standard mode: questions drawn from the pool
	PassRule  *PassRule  `json:"passRule,omitempty"`
	Questions []Question `json:"questions"`
	Levels    []Level    `json:"levels,omitempty"` // adaptive mode only
}

// QuestionByID returns the topic's question with the given id, or nil.
func (t TopicSection) QuestionByID(id string) *Question {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i]
		}
	}
	return nil
}

// TestDefinition is the immutable test embedded in a package at build time.
type TestDefinition struct {
	ID                  string         `json:"id"`
	Title               string         `json:"title"`
	Mode                Mode           `json:"mode"`
	PassRule            *PassRule      `json:"passRule,omitempty"`
	TimeLimitMinutes    int            `json:"timeLimitMinutes,omitempty"` // 0 = untimed
	MaxAttempts         int            `json:"maxAttempts,omitempty"`      // 0 = unlimited
	ShowCorrectAnswers  bool           `json:"showCorrectAnswers,omitempty"`
	ShowDifficultyLevel bool           `json:"showDifficultyLevel,omitempty"`
	ImmediateFeedback   bool           `json:"immediateFeedback,omitempty"`
	Topics              []TopicSection `json:"topics"`
}

// TopicByID returns the topic with the given id, or nil.
func (d *TestDefinition) TopicByID(id string) *TopicSection {
	for i := range d.Topics {
		if d.Topics[i].TopicID == id {
			return &d.Topics[i]
		}
	}
	return nil
}

// QuestionByID searches every topic for the question, or nil.
func (d *TestDefinition) QuestionByID(id string) *Question {
	for i := range d.Topics {
		if q := d.Topics[i].QuestionByID(id); q != nil {
			return q
		}
	}
	return nil
}

// Answer is a learner's response to one question. Exactly one field is
// meaningful, selected by the question's type. The zero-but-present
// distinction matters: an Answer that exists in the answer map with an
// empty value is "explicitly empty", while a missing map entry is
// "not answered".
type Answer struct {
	Single   *int        `json:"single,omitempty"`
	Multiple []int       `json:"multiple,omitempty"`
	Matching map[int]int `json:"matching,omitempty"`
	Ranking  []int       `json:"ranking,omitempty"`
}

// Complete reports whether the answer is well-formed for the question:
// single needs an index, multiple needs a non-empty set, matching must map
// every left item, ranking must place every item.
func (a *Answer) Complete(q *Question) bool {
	if a == nil {
		return false
	}
	switch q.Type {
	case TypeSingle:
		return a.Single != nil
	case TypeMultiple:
		return len(a.Multiple) > 0
	case TypeMatching:
		if len(a.Matching) != len(q.LeftItems) {
			return false
		}
		for i := range q.LeftItems {
			if _, ok := a.Matching[i]; !ok {
				return false
			}
		}
		return true
	case TypeRanking:
		return len(a.Ranking) == len(q.Items)
	}
	return false
}
