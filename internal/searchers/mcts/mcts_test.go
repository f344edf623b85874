package mcts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardforge/ccgcore/internal/config"
	"github.com/cardforge/ccgcore/internal/evaluator"
	"github.com/cardforge/ccgcore/internal/rules"
	"github.com/cardforge/ccgcore/internal/rules/rulestest"
	"github.com/cardforge/ccgcore/internal/searchers/mcts"
)

func TestSearchReturnsALegalAction(t *testing.T) {
	cfg := config.Default()
	cfg.MCTSIterations = 100
	cfg.MCTSRolloutDepth = 2
	s := mcts.New(cfg, evaluator.New(evaluator.DefaultConfig()))

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
	cfg.MCTSIterations = 50
	s := mcts.New(cfg, evaluator.New(evaluator.DefaultConfig()))

	game := rulestest.NewMatch(nil, nil, 0)
	_, _, ok, _ := s.Search(game, rules.PlayerA)
	assert.False(t, ok)
}

func TestSearchOnRepeatedSnapshotsReturnsLegalAction(t *testing.T) {
	// A fresh Searcher against the same game state should visit the root at
	// least once per iteration; running two independent searches over two
	// snapshots of the same position must not panic or disagree on legality.
	cfg := config.Default()
	cfg.MCTSIterations = 60
	cfg.MCTSRolloutDepth = 2

	game := rulestest.NewSimpleMatch()
	for i := 0; i < 2; i++ {
		s := mcts.New(cfg, evaluator.New(evaluator.DefaultConfig()))
		action, _, ok, stats := s.Search(game.Snapshot(), rules.PlayerA)
		require.True(t, ok)
		assert.Greater(t, stats.Nodes, 0)
		assert.LessOrEqual(t, stats.Nodes, cfg.MCTSIterations)
		assert.NotEmpty(t, action.Description)
	}
}
