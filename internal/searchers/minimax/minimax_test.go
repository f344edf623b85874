package minimax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardforge/ccgcore/internal/config"
	"github.com/cardforge/ccgcore/internal/evaluator"
	"github.com/cardforge/ccgcore/internal/rules"
	"github.com/cardforge/ccgcore/internal/rules/rulestest"
	"github.com/cardforge/ccgcore/internal/searchers/minimax"
)

func TestSearchReturnsALegalAction(t *testing.T) {
	cfg := config.Default()
	cfg.SimulationMaxDepth = 2
	s := minimax.New(cfg, evaluator.New(evaluator.DefaultConfig()))

	game := rulestest.NewSimpleMatch()
	action, _, ok, stats := s.Search(game, rules.PlayerA)
	require.True(t, ok)
	assert.Greater(t, stats.Nodes, 0)

	legal := false
	for _, c := range game.CandidateActions(rules.PlayerA) {
		if c.Description == action.Description {
			legal = true
			break
		}
	}
	assert.True(t, legal, "returned action must still be one of the current candidates")
}

func TestSearchReportsNoActionWhenNoneAvailable(t *testing.T) {
	cfg := config.Default()
	s := minimax.New(cfg, evaluator.New(evaluator.DefaultConfig()))

	game := rulestest.NewMatch(nil, nil, 0)
	_, _, ok, _ := s.Search(game, rules.PlayerA)
	assert.False(t, ok)
}
