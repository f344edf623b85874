// Package ttable implements the state hasher, the LRU transposition table,
// and the infinite-loop guard (spec.md §4.2).
package ttable

import (
	"github.com/cardforge/ccgcore/internal/rules"
)

// hashPrime is the multiplier used when folding fields into the running
// hash. 31 is the classic small-prime choice (same idea as java.lang.String
// hashCode, or hiveGo's own position hashing).
const hashPrime = 31

// Hash computes a 64-bit, deliberately lossy hash of game from the
// perspective that only the fields below participate: current turn, current
// phase, each player's (life, hand-size, graveyard-size, library-size,
// poison), each battlefield permanent's (stable id, tapped bit, and if
// creature: sick bit, net power, net toughness), and the current stack
// depth. Two Game states equal under this projection must hash identically
// (spec invariant: state-hash stability).
func Hash(game rules.Game) uint64 {
	var h uint64 = 1469598103934665603 // arbitrary non-zero seed (FNV offset), mixed through below.

	mix := func(v uint64) {
		h = h*hashPrime + v
	}

	mix(uint64(game.Turn()))
	mix(uint64(game.CurrentPhase()))

	for _, p := range []rules.PlayerNum{rules.PlayerA, rules.PlayerB} {
		view := game.Player(p)
		mix(uint64(view.Life))
		mix(uint64(view.HandSize))
		mix(uint64(view.GraveyardSize))
		mix(uint64(view.LibrarySize))
		mix(uint64(view.PoisonCounters))

		for _, c := range view.Battlefield {
			mix(uint64(c.Handle))
			mix(boolToUint64(c.Tapped))
			if c.IsCreature {
				mix(boolToUint64(c.SummoningSick))
				mix(uint64(int64(c.Power)))
				mix(uint64(int64(c.Toughness)))
			}
		}
	}

	mix(uint64(game.StackDepth()))
	return h
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
