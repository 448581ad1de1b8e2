// Package prop implements the slice of property-based testing this module
// needs: generate random inputs from a seed, run a predicate against them,
// and shrink the first failure toward a smaller reproducing case. It is not
// a general-purpose quickcheck library — it has exactly one entry point,
// ForAll1, because that is all the virtual-memory test suite calls.
package prop

import (
	"math/rand"
	"time"
)

// Generator produces a value of type T from a PRNG and a size hint.
type Generator[T any] func(r *rand.Rand, size int) T

// Shrinker produces candidate smaller values that aim to preserve failure.
type Shrinker[T any] func(v T) []T

// Property1 is a unary property predicate.
type Property1[A any] func(a A) bool

// Options control property checking. The tests set Trials, Size and
// MaxShrinkRounds; any field left zero takes a default.
type Options struct {
	Trials          int
	Seed            int64
	Size            int
	MaxShrinkRounds int
}

// Result is the outcome of a property check.
type Result struct {
	PassedTrials int
	Failed       bool
	FailingInput any
	ShrunkInput  any
	Seed         int64
}

// ForAll1 runs prop against Trials values drawn from genA. On the first
// failure it stops generating, shrinks the failing input using shrinkA
// (if non-nil), and returns.
func ForAll1[A any](genA Generator[A], shrinkA Shrinker[A], prop Property1[A], opts Options) Result {
	if opts.Trials <= 0 {
		opts.Trials = 200
	}

	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	if opts.Size <= 0 {
		opts.Size = 30
	}

	if opts.MaxShrinkRounds <= 0 {
		opts.MaxShrinkRounds = 200
	}

	r := rand.New(rand.NewSource(opts.Seed))
	res := Result{Seed: opts.Seed}

	for i := 0; i < opts.Trials; i++ {
		a := genA(r, opts.Size)
		if prop(a) {
			res.PassedTrials++
			continue
		}

		res.Failed = true
		res.FailingInput = a
		res.ShrunkInput = shrink(a, shrinkA, prop, opts.MaxShrinkRounds)

		return res
	}

	return res
}

// shrink repeatedly replaces best with the first failing candidate shrinkA
// offers, stopping once no candidate still fails or the round limit is hit.
func shrink[A any](best A, shrinkA Shrinker[A], prop Property1[A], maxRounds int) A {
	if shrinkA == nil {
		return best
	}

	for round := 0; round < maxRounds; round++ {
		progressed := false

		for _, c := range shrinkA(best) {
			if !prop(c) {
				best = c
				progressed = true

				break
			}
		}

		if !progressed {
			break
		}
	}

	return best
}
