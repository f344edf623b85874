package rulestest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardforge/ccgcore/internal/rules"
)

func TestNewSimpleMatchStartingHands(t *testing.T) {
	game := NewSimpleMatch()
	assert.Equal(t, 7, game.Player(rules.PlayerA).HandSize)
	assert.Equal(t, 7, game.Player(rules.PlayerB).HandSize)
	assert.False(t, game.IsOver())
}

func TestPlayLandMovesCardFromHandToBattlefield(t *testing.T) {
	game := NewSimpleMatch()
	before := game.Player(rules.PlayerA).HandSize

	candidates := game.CandidateActions(rules.PlayerA)
	require.NotEmpty(t, candidates)
	var landAction rules.Action
	for _, a := range candidates {
		if a.IsLandPlay {
			landAction = a
			break
		}
	}
	require.NotEmpty(t, landAction.Description)

	ok := game.PlayAction(rules.PlayerA, landAction)
	require.True(t, ok)

	after := game.Player(rules.PlayerA)
	assert.Equal(t, before-1, after.HandSize)
	assert.Equal(t, 1, len(after.Battlefield))
	assert.Equal(t, 1, after.UntappedLands)
}

func TestSnapshotIsIndependent(t *testing.T) {
	game := NewSimpleMatch()
	snap := game.Snapshot()

	candidates := game.CandidateActions(rules.PlayerA)
	require.NotEmpty(t, candidates)
	ok := game.PlayAction(rules.PlayerA, candidates[0])
	require.True(t, ok)

	assert.NotEqual(t, game.Player(rules.PlayerA).HandSize, snap.Player(rules.PlayerA).HandSize)
}

func TestCastInstantDealsDamage(t *testing.T) {
	game := NewSimpleMatch()
	lifeBefore := game.Player(rules.PlayerB).Life

	var spell rules.Action
	for _, a := range game.CandidateActions(rules.PlayerA) {
		if a.Kind == rules.ApiKindDamage {
			spell = a
			break
		}
	}
	require.NotEmpty(t, spell.Description)

	require.True(t, game.PlayAction(rules.PlayerA, spell))
	assert.Less(t, game.Player(rules.PlayerB).Life, lifeBefore)
}

func TestEndTurnDrawsAndPassesTurn(t *testing.T) {
	game := NewSimpleMatch()
	handBefore := game.Player(rules.PlayerB).HandSize
	game.EndTurn()
	assert.Equal(t, handBefore+1, game.Player(rules.PlayerB).HandSize)
	assert.True(t, game.IsPlayerTurn(rules.PlayerB))
}
