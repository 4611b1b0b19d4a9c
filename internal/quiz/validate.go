package quiz

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validation runs at package-build time (scopack). The runtime trusts the
// embedded payload and never re-validates.

func (r PassRule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(ThresholdPercent, ThresholdAbsolute)),
		validation.Field(&r.Value, validation.Min(0.0), validation.By(func(interface{}) error {
			if r.Type == ThresholdPercent && r.Value > 100 {
				return errors.New("percent value must be at most 100")
			}
			return nil
		})),
	)
}

func (l Level) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Index, validation.Min(0)),
		validation.Field(&l.QuestionsCount, validation.Required, validation.Min(1)),
		validation.Field(&l.ThresholdType, validation.Required, validation.In(ThresholdPercent, ThresholdAbsolute)),
		validation.Field(&l.PassThreshold, validation.Min(0.0)),
		validation.Field(&l.MinDifficulty, validation.Min(0), validation.Max(100)),
		validation.Field(&l.MaxDifficulty, validation.Min(0), validation.Max(100), validation.By(func(interface{}) error {
			if l.MaxDifficulty < l.MinDifficulty {
				return errors.New("must be >= minDifficulty")
			}
			return nil
		})),
	)
}

func (q Question) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.ID, validation.Required),
		validation.Field(&q.Type, validation.Required, validation.In(TypeSingle, TypeMultiple, TypeMatching, TypeRanking)),
		validation.Field(&q.Prompt, validation.Required),
		validation.Field(&q.Difficulty, validation.Min(0), validation.Max(100)),
		validation.Field(&q.Options, validation.By(func(interface{}) error { return q.checkKey() })),
	)
}

func (q Question) checkKey() error {
	switch q.Type {
	case TypeSingle:
		if len(q.Options) < 2 {
			return errors.New("single question needs at least two options")
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return errors.New("correctIndex out of range")
		}
	case TypeMultiple:
		if len(q.Options) < 2 {
			return errors.New("multiple question needs at least two options")
		}
		if len(q.CorrectIndices) == 0 {
			return errors.New("multiple question needs a non-empty correct set")
		}
		for _, i := range q.CorrectIndices {
			if i < 0 || i >= len(q.Options) {
				return errors.New("correctIndices out of range")
			}
		}
	case TypeMatching:
		if len(q.LeftItems) == 0 || len(q.RightItems) == 0 {
			return errors.New("matching question needs left and right items")
		}
		if len(q.CorrectPairs) != len(q.LeftItems) {
			return errors.New("correctPairs must map every left item")
		}
		for l, r := range q.CorrectPairs {
			if l < 0 || l >= len(q.LeftItems) || r < 0 || r >= len(q.RightItems) {
				return errors.New("correctPairs index out of range")
			}
		}
	case TypeRanking:
		if len(q.Items) < 2 {
			return errors.New("ranking question needs at least two items")
		}
		if len(q.CorrectOrder) != len(q.Items) {
			return errors.New("correctOrder must place every item")
		}
	}
	return nil
}

func (t TopicSection) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.TopicID, validation.Required),
		validation.Field(&t.Questions, validation.Required),
		validation.Field(&t.PassRule),
	)
}

// Validate checks a definition before packaging.
func (d TestDefinition) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.Mode, validation.Required, validation.In(ModeStandard, ModeAdaptive)),
		validation.Field(&d.TimeLimitMinutes, validation.Min(0)),
		validation.Field(&d.MaxAttempts, validation.Min(0)),
		validation.Field(&d.PassRule),
		validation.Field(&d.Topics, validation.Required),
	)
	if err != nil {
		return err
	}
	for ti := range d.Topics {
		t := &d.Topics[ti]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("topic %q: %w", t.TopicID, err)
		}
		for qi := range t.Questions {
			if err := t.Questions[qi].Validate(); err != nil {
				return fmt.Errorf("topic %q question %q: %w", t.TopicID, t.Questions[qi].ID, err)
			}
		}
		if d.Mode == ModeAdaptive {
			if len(t.Levels) == 0 {
				return fmt.Errorf("topic %q: adaptive mode requires at least one level", t.TopicID)
			}
			for li, lv := range t.Levels {
				if lv.Index != li {
					return fmt.Errorf("topic %q: level %d has index %d; levels must be ordered", t.TopicID, li, lv.Index)
				}
				if err := lv.Validate(); err != nil {
					return fmt.Errorf("topic %q level %d: %w", t.TopicID, li, err)
				}
			}
		}
	}
	return nil
}
