// Package controller wires the evaluator, a search core and the decision
// bridge into the single "what do you do next" entry point, the way
// internal/players assembles a scorer and a searcher from a config string.
package controller

import (
	"k8s.io/klog/v2"

	"github.com/cardforge/ccgcore/internal/bridge"
	"github.com/cardforge/ccgcore/internal/config"
	"github.com/cardforge/ccgcore/internal/evaluator"
	"github.com/cardforge/ccgcore/internal/policy"
	"github.com/cardforge/ccgcore/internal/recorder"
	"github.com/cardforge/ccgcore/internal/rules"
	"github.com/cardforge/ccgcore/internal/searchers"
	"github.com/cardforge/ccgcore/internal/searchers/mcts"
	"github.com/cardforge/ccgcore/internal/searchers/minimax"
)

// SearcherKind selects which SearchCore variant the Controller drives.
type SearcherKind int

const (
	SearcherMinimax SearcherKind = iota
	SearcherMCTS
)

// Config configures a Controller. The zero value is usable: it builds a
// default-configured minimax searcher with a random bridge policy and no
// recording.
type Config struct {
	Search      config.Search
	Searcher    SearcherKind
	Evaluator   *evaluator.Config
	BridgeMode  bridge.Mode
	Policy      policy.Policy
	RecorderDir string
}

// Controller is the assembled decision core for one seat at the table. Like
// the per-thread searchers it wraps, a Controller must not be shared
// concurrently across games.
type Controller struct {
	eval     *evaluator.Evaluator
	searcher searchers.Searcher
	bridge   *bridge.Bridge
	recorder *recorder.Recorder
}

// New assembles a Controller from cfg.
func New(cfg Config) *Controller {
	evalCfg := evaluator.DefaultConfig()
	if cfg.Evaluator != nil {
		evalCfg = *cfg.Evaluator
	}
	eval := evaluator.New(evalCfg)

	searchCfg := cfg.Search
	if searchCfg == (config.Search{}) {
		searchCfg = config.Default()
	}

	var searcher searchers.Searcher
	switch cfg.Searcher {
	case SearcherMCTS:
		searcher = mcts.New(searchCfg, eval)
	default:
		searcher = minimax.New(searchCfg, eval)
	}

	var rec *recorder.Recorder
	if cfg.RecorderDir != "" {
		rec = recorder.New(cfg.RecorderDir)
	}

	pol := cfg.Policy
	if pol == nil {
		pol = policy.NewRandom(1)
	}
	br := bridge.New(cfg.BridgeMode, pol, rec)

	return &Controller{eval: eval, searcher: searcher, bridge: br, recorder: rec}
}

// Decide returns the action to play for player in game. It tries the
// configured search core first; if the search declines to act (e.g. MCTS's
// minimum-mean-reward cutoff, or no legal actions scored), it falls back to
// the rollout priority policy over the current candidates (spec.md §4.5
// "falls back to priority").
func (c *Controller) Decide(game rules.Game, player rules.PlayerNum) (rules.Action, bool) {
	action, score, ok, stats := c.searcher.Search(game, player)
	klog.V(3).Infof("controller: search nodes=%d evals=%d prunes=%d score=%v ok=%v",
		stats.Nodes, stats.Evals, stats.Prunes, score, ok)
	if ok {
		return action, true
	}

	candidates := game.CandidateActions(player)
	if len(candidates) == 0 {
		return rules.Action{}, false
	}
	return rules.RolloutPolicy(candidates, func(name string) rules.Card {
		for _, card := range game.Player(player).Hand {
			if card.Name == name {
				return card
			}
		}
		for _, card := range game.Player(player).Battlefield {
			if card.Name == name {
				return card
			}
		}
		return rules.Card{}
	}), true
}

// ChooseBoolean delegates an atomic yes/no decision to the bridge.
func (c *Controller) ChooseBoolean(game rules.Game, player rules.PlayerNum, kind bridge.DecisionKind) bool {
	return c.bridge.ChooseBoolean(game, player, kind)
}

// ChooseNumber delegates an atomic number-range decision to the bridge.
func (c *Controller) ChooseNumber(game rules.Game, player rules.PlayerNum, min, max int) int {
	return c.bridge.ChooseNumber(game, player, min, max)
}

// ChooseCardOption delegates an atomic card-choice decision to the bridge.
func (c *Controller) ChooseCardOption(game rules.Game, player rules.PlayerNum, kind bridge.DecisionKind, cards []rules.Card) int {
	return c.bridge.ChooseCardOption(game, player, kind, cards)
}

// Finalize closes out the recorder for this match, if one is attached.
// Idempotent: safe to call even when RecorderDir was never configured.
func (c *Controller) Finalize(won bool, turns int, reason string) {
	if c.recorder != nil {
		c.recorder.FinishGame(won, turns, reason)
	}
}
