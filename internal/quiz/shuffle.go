package quiz

import "math/rand"

// Perm returns a Fisher-Yates permutation of [0,n). The rng is injected so
// an attempt's display permutations can be reproduced under test; pass nil
// to use the global source.
func Perm(n int, rng *rand.Rand) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.Intn(i + 1)
		} else {
			j = rand.Intn(i + 1)
		}
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// ShuffleQuestions permutes a slice of question ids in place.
func ShuffleQuestions(ids []string, rng *rand.Rand) {
	for i := len(ids) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.Intn(i + 1)
		} else {
			j = rand.Intn(i + 1)
		}
		ids[i], ids[j] = ids[j], ids[i]
	}
}
