package dice_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicetower/dicebox/internal/dice"
)

// TestCryptoSource_InRange verifies every draw lands inside [min, max].
func TestCryptoSource_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.IntN(1, 6)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 6)
	}
}

// TestCryptoSource_SingleValueSpan verifies the degenerate one-sided die.
func TestCryptoSource_SingleValueSpan(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, src.IntN(1, 1))
	}
}

// TestCryptoSource_PanicsOnInvalidBounds verifies the precondition check.
func TestCryptoSource_PanicsOnInvalidBounds(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.IntN(6, 1) })
}

// TestSeededSource_Deterministic verifies two sources with the same seed
// produce identical draw sequences, and different seeds diverge.
func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	c := dice.NewSeededSource(43)

	var seqA, seqB, seqC []int
	for i := 0; i < 200; i++ {
		seqA = append(seqA, a.IntN(1, 20))
		seqB = append(seqB, b.IntN(1, 20))
		seqC = append(seqC, c.IntN(1, 20))
	}
	assert.Equal(t, seqA, seqB, "same seed must reproduce the same sequence")
	assert.NotEqual(t, seqA, seqC, "different seeds must diverge")
}

// TestSeededSource_InRange verifies bounds across a spread of spans,
// including spans that are not powers of two.
func TestSeededSource_InRange(t *testing.T) {
	src := dice.NewSeededSource(7)
	for _, max := range []int{1, 2, 3, 6, 10, 20, 100} {
		for i := 0; i < 500; i++ {
			v := src.IntN(1, max)
			require.GreaterOrEqual(t, v, 1)
			require.LessOrEqual(t, v, max)
		}
	}
}

// TestSeededSource_CoversAllFaces verifies every face of a d6 appears within
// a reasonable number of draws.
func TestSeededSource_CoversAllFaces(t *testing.T) {
	src := dice.NewSeededSource(1)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		seen[src.IntN(1, 6)] = true
	}
	for face := 1; face <= 6; face++ {
		assert.True(t, seen[face], "face %d never rolled", face)
	}
}

// TestSeededSource_ConcurrentDraws verifies the source survives concurrent
// use without racing (run with -race).
func TestSeededSource_ConcurrentDraws(t *testing.T) {
	src := dice.NewSeededSource(99)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				v := src.IntN(1, 6)
				if v < 1 || v > 6 {
					t.Errorf("draw %d out of range", v)
					return
				}
			}
		}()
	}
	wg.Wait()
}
