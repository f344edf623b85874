package ttable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardforge/ccgcore/internal/rules"
	"github.com/cardforge/ccgcore/internal/rules/rulestest"
)

func TestTableLRUEviction(t *testing.T) {
	tt := New(3)

	tt.Store(1, Entry{Score: 1, Depth: 1, Bound: Exact})
	tt.Store(2, Entry{Score: 2, Depth: 1, Bound: Exact})
	tt.Store(3, Entry{Score: 3, Depth: 1, Bound: Exact})
	require.Equal(t, 3, tt.Len())

	// Touch H1 so it becomes most-recently-used; H2 is now the least
	// recently used entry.
	_, ok := tt.Probe(1, 1)
	require.True(t, ok)

	tt.Store(4, Entry{Score: 4, Depth: 1, Bound: Exact})
	assert.Equal(t, 3, tt.Len())

	_, ok = tt.Probe(2, 1)
	assert.False(t, ok, "H2 should have been evicted as least recently used")

	_, ok = tt.Probe(1, 1)
	assert.True(t, ok, "H1 was touched and should survive")
	_, ok = tt.Probe(3, 1)
	assert.True(t, ok, "H3 should survive")
	_, ok = tt.Probe(4, 1)
	assert.True(t, ok, "H4 was just inserted")
}

func TestTableStats(t *testing.T) {
	tt := New(10)
	tt.Store(1, Entry{Score: 1, Depth: 2, Bound: Exact})

	_, _ = tt.Probe(1, 2)
	_, _ = tt.Probe(99, 2)

	hits, misses := tt.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestLoopGuard(t *testing.T) {
	lg := NewLoopGuard(10)
	assert.False(t, lg.Visit(42))
	assert.True(t, lg.Visit(42), "second visit of the same hash must be reported as a repeat")

	lg.Reset()
	assert.False(t, lg.Visit(42), "after Reset the guard forgets prior visits")
}

func TestHashIsDeterministic(t *testing.T) {
	// Hash must be a pure function of observable state: a snapshot taken
	// before any mutation hashes identically to itself, and differently from
	// the post-mutation game, once the two states actually diverge.
	game := rulestest.NewSimpleMatch()
	snap := game.Snapshot()

	assert.Equal(t, Hash(snap), Hash(game.Snapshot()), "hashing the same snapshot twice must be stable")

	candidates := game.CandidateActions(rules.PlayerA)
	require.NotEmpty(t, candidates)
	require.True(t, game.PlayAction(rules.PlayerA, candidates[0]))

	assert.NotEqual(t, Hash(snap), Hash(game), "hash must change once the battlefield actually diverges")
}
