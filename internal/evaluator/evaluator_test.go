package evaluator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardforge/ccgcore/internal/evaluator"
	"github.com/cardforge/ccgcore/internal/rules"
	"github.com/cardforge/ccgcore/internal/rules/rulestest"
)

func TestScoreIsTerminal(t *testing.T) {
	assert.True(t, evaluator.Win.IsTerminal())
	assert.True(t, evaluator.Loss.IsTerminal())
	assert.False(t, evaluator.Score{Value: 12}.IsTerminal())
}

func TestEvaluateReturnsWinLossOnGameOver(t *testing.T) {
	e := evaluator.New(evaluator.DefaultConfig())
	// Player B starts with an empty library and hand, so the first turn
	// handed to them triggers a decking loss (rulestest.Game.EndTurn).
	game := rulestest.NewMatch([]rules.Card{{Name: "Forest", IsLand: true}}, nil, 0)
	game.EndTurn()

	assert.True(t, game.IsOver())
	assert.Equal(t, rules.PlayerA, game.Outcome().WinningPlayer)

	assert.Equal(t, evaluator.Win, e.Evaluate(game, rules.PlayerA))
	assert.Equal(t, evaluator.Loss, e.Evaluate(game, rules.PlayerB))
}

func TestEvaluateIsFiniteOnOngoingGame(t *testing.T) {
	e := evaluator.New(evaluator.DefaultConfig())
	game := rulestest.NewSimpleMatch()
	score := e.Evaluate(game, rules.PlayerA)
	assert.False(t, score.IsTerminal())
}

func TestScoreAddIsComponentwise(t *testing.T) {
	a := evaluator.Score{Value: 1, ValueIfSickFree: 2}
	b := evaluator.Score{Value: 3, ValueIfSickFree: 4}
	assert.Equal(t, evaluator.Score{Value: 4, ValueIfSickFree: 6}, a.Add(b))
}
