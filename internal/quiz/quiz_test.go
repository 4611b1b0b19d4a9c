package quiz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 2, 5, 17} {
		p := Perm(n, rng)
		require.Len(t, p, n)
		seen := map[int]bool{}
		for _, v := range p {
			require.True(t, v >= 0 && v < n, "element %d out of range", v)
			require.False(t, seen[v], "duplicate element %d", v)
			seen[v] = true
		}
	}
}

func TestPermReproducible(t *testing.T) {
	a := Perm(10, rand.New(rand.NewSource(7)))
	b := Perm(10, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b, "same seed must reproduce the same layout")
}

func TestPayloadRoundTrip(t *testing.T) {
	def := &TestDefinition{
		ID: "t-1", Title: "Demo", Mode: ModeStandard,
		PassRule: &PassRule{Type: ThresholdPercent, Value: 60},
		Topics: []TopicSection{{
			TopicID: "top-1", TopicName: "Basics",
			Questions: []Question{{
				ID: "q1", Type: TypeSingle, Prompt: "?",
				Options: []string{"a", "b"}, CorrectIndex: 1, Difficulty: 40,
			}},
		}},
	}
	enc, err := EncodePayload(def)
	require.NoError(t, err)
	dec, err := DecodePayload(enc)
	require.NoError(t, err)
	assert.Equal(t, def, dec)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	_, err := DecodePayload("not base64!!")
	assert.Error(t, err)
	_, err = DecodePayload("aGVsbG8=") // valid base64, not JSON
	assert.Error(t, err)
}

func TestAnswerComplete(t *testing.T) {
	matching := &Question{Type: TypeMatching, LeftItems: []string{"a", "b"}, RightItems: []string{"x", "y"}}
	ranking := &Question{Type: TypeRanking, Items: []string{"a", "b", "c"}}
	single := &Question{Type: TypeSingle, Options: []string{"a", "b"}}
	multi := &Question{Type: TypeMultiple, Options: []string{"a", "b"}}

	one := 1
	assert.False(t, (*Answer)(nil).Complete(single))
	assert.True(t, (&Answer{Single: &one}).Complete(single))
	assert.False(t, (&Answer{}).Complete(multi), "multiple must be non-empty")
	assert.True(t, (&Answer{Multiple: []int{0}}).Complete(multi))
	assert.False(t, (&Answer{Matching: map[int]int{0: 0}}).Complete(matching), "matching must map every left item")
	assert.True(t, (&Answer{Matching: map[int]int{0: 0, 1: 1}}).Complete(matching))
	assert.False(t, (&Answer{Ranking: []int{0, 1}}).Complete(ranking))
	assert.True(t, (&Answer{Ranking: []int{0, 1, 2}}).Complete(ranking))
}

func validAdaptiveDef() *TestDefinition {
	return &TestDefinition{
		ID: "t-a", Title: "Adaptive", Mode: ModeAdaptive,
		Topics: []TopicSection{{
			TopicID: "top-1",
			Questions: []Question{
				{ID: "q1", Type: TypeSingle, Prompt: "?", Options: []string{"a", "b"}, CorrectIndex: 0, Difficulty: 20},
				{ID: "q2", Type: TypeSingle, Prompt: "?", Options: []string{"a", "b"}, CorrectIndex: 0, Difficulty: 80},
			},
			Levels: []Level{
				{Index: 0, Name: "easy", MinDifficulty: 0, MaxDifficulty: 50, QuestionsCount: 1, PassThreshold: 100, ThresholdType: ThresholdPercent},
				{Index: 1, Name: "hard", MinDifficulty: 51, MaxDifficulty: 100, QuestionsCount: 1, PassThreshold: 100, ThresholdType: ThresholdPercent},
			},
		}},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validAdaptiveDef().Validate())

	t.Run("adaptive requires levels", func(t *testing.T) {
		def := validAdaptiveDef()
		def.Topics[0].Levels = nil
		assert.Error(t, def.Validate())
	})
	t.Run("level index ordering", func(t *testing.T) {
		def := validAdaptiveDef()
		def.Topics[0].Levels[1].Index = 5
		assert.Error(t, def.Validate())
	})
	t.Run("difficulty range", func(t *testing.T) {
		def := validAdaptiveDef()
		def.Topics[0].Levels[0].MaxDifficulty = def.Topics[0].Levels[0].MinDifficulty - 1
		assert.Error(t, def.Validate())
	})
	t.Run("bad mode", func(t *testing.T) {
		def := validAdaptiveDef()
		def.Mode = "linear"
		assert.Error(t, def.Validate())
	})
	t.Run("correct index out of range", func(t *testing.T) {
		def := validAdaptiveDef()
		def.Topics[0].Questions[0].CorrectIndex = 9
		assert.Error(t, def.Validate())
	})
	t.Run("percent rule above 100", func(t *testing.T) {
		def := validAdaptiveDef()
		def.PassRule = &PassRule{Type: ThresholdPercent, Value: 120}
		assert.Error(t, def.Validate())
	})
}

func TestRequiredCorrect(t *testing.T) {
	tests := []struct {
		level Level
		want  int
	}{
		{Level{QuestionsCount: 2, PassThreshold: 100, ThresholdType: ThresholdPercent}, 2},
		{Level{QuestionsCount: 3, PassThreshold: 50, ThresholdType: ThresholdPercent}, 2}, // ceil(1.5)
		{Level{QuestionsCount: 5, PassThreshold: 60, ThresholdType: ThresholdPercent}, 3},
		{Level{QuestionsCount: 5, PassThreshold: 4, ThresholdType: ThresholdAbsolute}, 4},
	}
	for _, tc := range tests {
		if got := tc.level.RequiredCorrect(); got != tc.want {
			t.Fatalf("RequiredCorrect(%+v) = %d, want %d", tc.level, got, tc.want)
		}
	}
}
