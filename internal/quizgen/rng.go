// Package quizgen turns category/attribute (or attribute/fact) pairs plus
// correct-answer and distractor pools into multiple-select questions. All
// randomness flows through a seeded generator so the same input and seed
// reproduce the same question on any platform.
package quizgen

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// Rand is a linear-congruential generator with explicit, passable state.
// It deliberately avoids the platform PRNG: the sequence for a given seed
// is part of the question reproducibility contract.
type Rand struct {
	state int64
}

func NewRand(seed int64) *Rand {
	state := seed % lcgModulus
	if state < 0 {
		state += lcgModulus
	}
	return &Rand{state: state}
}

// Next advances the generator and returns a value in [0, 1).
func (r *Rand) Next() float64 {
	r.state = (r.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(r.state) / lcgModulus
}

// Shuffle returns a new slice holding a Fisher-Yates permutation of list.
// The input is never mutated.
func Shuffle[T any](r *Rand, list []T) []T {
	out := make([]T, len(list))
	copy(out, list)
	for i := len(out) - 1; i >= 1; i-- {
		j := int(r.Next() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Sample returns k elements drawn without replacement. k <= 0 yields an
// empty slice and k >= len(list) yields the full shuffled list.
func Sample[T any](r *Rand, list []T, k int) []T {
	shuffled := Shuffle(r, list)
	if k <= 0 {
		return shuffled[:0]
	}
	if k > len(shuffled) {
		k = len(shuffled)
	}
	return shuffled[:k]
}
