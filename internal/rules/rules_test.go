package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionRefResolveByIndexHint(t *testing.T) {
	candidates := []Action{
		{Description: "a", HostCardName: "Alpha"},
		{Description: "b", HostCardName: "Beta"},
	}
	ref := RefOf(candidates[1], 1)
	action, idx, ok := ref.Resolve(candidates)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "b", action.Description)
}

func TestActionRefResolveFallsBackWhenIndexShifts(t *testing.T) {
	ref := RefOf(Action{Description: "b", HostCardName: "Beta"}, 1)
	// The candidate at index 1 has changed; Resolve must fall back to a scan.
	candidates := []Action{
		{Description: "b", HostCardName: "Beta"},
		{Description: "a", HostCardName: "Alpha"},
	}
	action, idx, ok := ref.Resolve(candidates)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "Beta", action.HostCardName)
}

func TestActionRefResolveNotFound(t *testing.T) {
	ref := RefOf(Action{Description: "gone", HostCardName: "Ghost"}, 0)
	_, _, ok := ref.Resolve([]Action{{Description: "other", HostCardName: "Other"}})
	assert.False(t, ok)
}

func TestPlayerNumOther(t *testing.T) {
	assert.Equal(t, PlayerB, PlayerA.Other())
	assert.Equal(t, PlayerA, PlayerB.Other())
}

func TestRolloutPolicyPrefersLandPlay(t *testing.T) {
	candidates := []Action{
		{Description: "cast:Big Spell", HostCardName: "Big Spell"},
		{Description: "play:Forest", HostCardName: "Forest", IsLandPlay: true},
	}
	hostLookup := func(name string) Card {
		if name == "Big Spell" {
			return Card{ConvertedCost: 9}
		}
		return Card{}
	}
	chosen := RolloutPolicy(candidates, hostLookup)
	assert.True(t, chosen.IsLandPlay)
}

func TestRolloutPolicyFallsBackToHighestCMC(t *testing.T) {
	candidates := []Action{
		{Description: "cast:Small", HostCardName: "Small"},
		{Description: "cast:Big", HostCardName: "Big"},
	}
	hostLookup := func(name string) Card {
		if name == "Big" {
			return Card{ConvertedCost: 5}
		}
		return Card{ConvertedCost: 1}
	}
	chosen := RolloutPolicy(candidates, hostLookup)
	assert.Equal(t, "Big", chosen.HostCardName)
}
