package quizgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRand_KnownSequence(t *testing.T) {
	// First three states for seed 42, computed by hand from
	// state = (state*9301 + 49297) mod 233280.
	r := NewRand(42)
	assert.InDelta(t, 206659.0/233280.0, r.Next(), 1e-12)
	assert.InDelta(t, 190736.0/233280.0, r.Next(), 1e-12)
	assert.InDelta(t, 223713.0/233280.0, r.Next(), 1e-12)
}

func TestRand_SameSeedSameSequence(t *testing.T) {
	a := NewRand(12345)
	b := NewRand(12345)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestRand_SeedNormalization(t *testing.T) {
	// Seeds congruent mod 233280 share a sequence.
	a := NewRand(7)
	b := NewRand(7 + lcgModulus)
	assert.Equal(t, a.Next(), b.Next())

	// Negative seeds are folded into [0, modulus).
	neg := NewRand(-1)
	pos := NewRand(lcgModulus - 1)
	assert.Equal(t, neg.Next(), pos.Next())
}

func TestRand_RangeInvariant(t *testing.T) {
	r := NewRand(999)
	for i := 0; i < 1000; i++ {
		v := r.Next()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestShuffle(t *testing.T) {
	input := []int{1, 2, 3, 4, 5, 6, 7, 8}

	first := Shuffle(NewRand(42), input)
	second := Shuffle(NewRand(42), input)
	assert.Equal(t, first, second)

	// Input is untouched and the output is a permutation of it.
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, input)
	assert.ElementsMatch(t, input, first)
}

func TestShuffle_Edges(t *testing.T) {
	r := NewRand(1)
	assert.Empty(t, Shuffle(r, []int{}))
	assert.Equal(t, []int{9}, Shuffle(r, []int{9}))
}

func TestSample(t *testing.T) {
	input := []string{"a", "b", "c", "d"}

	r := NewRand(7)
	picked := Sample(r, input, 2)
	require.Len(t, picked, 2)
	assert.Subset(t, input, picked)
	assert.NotEqual(t, picked[0], picked[1])
}

func TestSample_Edges(t *testing.T) {
	input := []int{1, 2, 3}

	assert.Empty(t, Sample(NewRand(1), input, 0))
	assert.Empty(t, Sample(NewRand(1), input, -4))

	full := Sample(NewRand(1), input, 10)
	assert.ElementsMatch(t, input, full)
}
