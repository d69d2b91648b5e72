// Package proptest provides property-based testing utilities with seeded
// random generation for reproducible tests.
//
// Property-based testing generates random inputs and verifies that certain
// invariants (properties) always hold. When a property fails, the seed is
// reported so the failure can be replayed with PROPTEST_SEED.
//
// Basic usage:
//
//	func TestMyProperty(t *testing.T) {
//	    proptest.QuickCheck(t, "my property", func(g *proptest.Generator) bool {
//	        n := g.IntRange(1, 100)
//	        return n >= 1 && n <= 100
//	    })
//	}
package proptest

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// DefaultIterations is the number of cases QuickCheck runs.
const DefaultIterations = 100

// Generator wraps a seeded random number generator for reproducible
// random value generation.
type Generator struct {
	rng  *rand.Rand
	seed int64
}

// New creates a new Generator with the given seed.
// If seed is 0, uses the current time as the seed.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed used by this generator.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Intn returns a random int in [0, n). Panics if n <= 0.
func (g *Generator) Intn(n int) int {
	return g.rng.Intn(n)
}

// IntRange returns a random int in [lo, hi]. Panics if lo > hi.
func (g *Generator) IntRange(lo, hi int) int {
	if lo > hi {
		panic("proptest: IntRange lo > hi")
	}
	return lo + g.rng.Intn(hi-lo+1)
}

// Int64 returns a random non-negative int64.
func (g *Generator) Int64() int64 {
	return g.rng.Int63()
}

// Bool returns a random boolean with 50% probability for each value.
func (g *Generator) Bool() bool {
	return g.rng.Intn(2) == 1
}

const (
	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	identChars = lowerChars + "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_"
	textChars  = identChars + " '\"-;,.()"
)

// String returns a printable string of up to maxLen bytes, possibly empty.
func (g *Generator) String(maxLen int) string {
	return g.fromAlphabet(textChars, g.IntRange(0, maxLen))
}

// Identifier returns a Go-style identifier of 1 to maxLen bytes that starts
// with a lowercase letter.
func (g *Generator) Identifier(maxLen int) string {
	if maxLen < 1 {
		maxLen = 1
	}
	n := g.IntRange(1, maxLen)
	return g.fromAlphabet(lowerChars, 1) + g.fromAlphabet(identChars, n-1)
}

func (g *Generator) fromAlphabet(alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(b)
}

// Check runs prop iterations times, each with a fresh Generator. A property
// fails by returning a non-nil error; the failing seed is reported.
//
// Setting PROPTEST_SEED runs a single iteration with that seed.
func Check(t testing.TB, name string, iterations int, prop func(g *Generator) error) {
	t.Helper()

	if s := os.Getenv("PROPTEST_SEED"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			t.Fatalf("proptest: invalid PROPTEST_SEED %q: %v", s, err)
		}
		if err := prop(New(seed)); err != nil {
			t.Fatalf("property %q failed (seed %d): %v", name, seed, err)
		}
		return
	}

	base := time.Now().UnixNano()
	for i := 0; i < iterations; i++ {
		g := New(base + int64(i))
		if err := prop(g); err != nil {
			t.Fatalf("property %q failed on iteration %d (PROPTEST_SEED=%d): %v", name, i, g.Seed(), err)
		}
	}
}

// QuickCheck runs a boolean property DefaultIterations times.
func QuickCheck(t testing.TB, name string, prop func(g *Generator) bool) {
	t.Helper()
	Check(t, name, DefaultIterations, func(g *Generator) error {
		if !prop(g) {
			return errPropertyFalse
		}
		return nil
	})
}

type propertyError string

func (e propertyError) Error() string { return string(e) }

const errPropertyFalse = propertyError("property returned false")
