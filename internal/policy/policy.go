// Package policy implements the three external-policy variants the
// DecisionBridge delegates to (spec.md §4.6): a uniform random policy, a
// model-backed policy, and an epsilon-greedy wrapper around either.
package policy

import (
	"math/rand"
	"sync"
)

// Policy is the choice interface the bridge delegates to: given the state
// vector and the options matrix, return an index into [0, validCount).
type Policy interface {
	ChooseOption(state [664]float32, decisionKind int, options [][16]float32, validCount int) int
}

// Random is a thread-safe uniform policy over [0, validCount).
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a Random policy seeded with seed. Use a fixed seed for
// the reproducible end-to-end scenarios spec.md §8 describes.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// ChooseOption implements Policy.
func (r *Random) ChooseOption(_ [664]float32, _ int, _ [][16]float32, validCount int) int {
	if validCount <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(validCount)
}

// EpsilonGreedy wraps another Policy: with probability Epsilon it returns a
// uniformly random legal index, otherwise it delegates.
type EpsilonGreedy struct {
	Epsilon float32
	Wrapped Policy

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEpsilonGreedy wraps wrapped with an epsilon-greedy exploration policy.
func NewEpsilonGreedy(epsilon float32, wrapped Policy, seed int64) *EpsilonGreedy {
	return &EpsilonGreedy{Epsilon: epsilon, Wrapped: wrapped, rng: rand.New(rand.NewSource(seed))}
}

// ChooseOption implements Policy.
func (e *EpsilonGreedy) ChooseOption(state [664]float32, decisionKind int, options [][16]float32, validCount int) int {
	if validCount <= 0 {
		return 0
	}
	e.mu.Lock()
	roll := e.rng.Float32()
	e.mu.Unlock()
	if roll < e.Epsilon {
		e.mu.Lock()
		idx := e.rng.Intn(validCount)
		e.mu.Unlock()
		return idx
	}
	return e.Wrapped.ChooseOption(state, decisionKind, options, validCount)
}
