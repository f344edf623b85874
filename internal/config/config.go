// Package config holds the typed Configuration spec.md §6 enumerates,
// built on top of internal/parameters' generic Params map + PopParamOr.
package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/cardforge/ccgcore/internal/parameters"
)

// Search is the enumerated configuration table from spec.md §6.
type Search struct {
	SimulationMaxDepth     int
	SimulationTimeLimit    time.Duration
	UseTranspositionTable  bool
	LoopDetectionEnabled   bool
	AlphaBetaPruning       bool
	FutilityMargin         float32
	ComboStateBonus        float32
	MCTSIterations         int
	MCTSExplorationConstant float32
	MCTSRolloutDepth       int
}

// Default matches the defaults implied by spec.md (FutilityMargin's default
// of 300 is explicit; the rest are conservative, teacher-style defaults).
func Default() Search {
	return Search{
		SimulationMaxDepth:      3,
		SimulationTimeLimit:     2 * time.Second,
		UseTranspositionTable:   true,
		LoopDetectionEnabled:    true,
		AlphaBetaPruning:        true,
		FutilityMargin:          300,
		ComboStateBonus:         50,
		MCTSIterations:          800,
		MCTSExplorationConstant: 1.4,
		MCTSRolloutDepth:        6,
	}
}

// FromParams pops the known keys out of params (same convention as
// internal/parameters.PopParamOr, so it composes with the comma-separated
// config strings parameters.NewFromConfigString parses), laying them over
// base.
func FromParams(params parameters.Params, base Search) (Search, error) {
	cfg := base
	var err error

	cfg.SimulationMaxDepth, err = parameters.PopParamOr(params, "max_depth", cfg.SimulationMaxDepth)
	if err != nil {
		return cfg, errors.Wrap(err, "SIMULATION_MAX_DEPTH")
	}
	timeLimitMs, err := parameters.PopParamOr(params, "time_limit_ms", int(cfg.SimulationTimeLimit/time.Millisecond))
	if err != nil {
		return cfg, errors.Wrap(err, "SIMULATION_TIME_LIMIT_MS")
	}
	cfg.SimulationTimeLimit = time.Duration(timeLimitMs) * time.Millisecond

	cfg.UseTranspositionTable, err = parameters.PopParamOr(params, "use_tt", cfg.UseTranspositionTable)
	if err != nil {
		return cfg, errors.Wrap(err, "USE_TRANSPOSITION_TABLE")
	}
	cfg.LoopDetectionEnabled, err = parameters.PopParamOr(params, "loop_detection", cfg.LoopDetectionEnabled)
	if err != nil {
		return cfg, errors.Wrap(err, "LOOP_DETECTION_ENABLED")
	}
	cfg.AlphaBetaPruning, err = parameters.PopParamOr(params, "ab_pruning", cfg.AlphaBetaPruning)
	if err != nil {
		return cfg, errors.Wrap(err, "ALPHA_BETA_PRUNING")
	}
	cfg.FutilityMargin, err = parameters.PopParamOr(params, "futility", cfg.FutilityMargin)
	if err != nil {
		return cfg, errors.Wrap(err, "FUTILITY_MARGIN")
	}
	cfg.ComboStateBonus, err = parameters.PopParamOr(params, "combo_bonus", cfg.ComboStateBonus)
	if err != nil {
		return cfg, errors.Wrap(err, "COMBO_STATE_BONUS")
	}
	cfg.MCTSIterations, err = parameters.PopParamOr(params, "mcts_iters", cfg.MCTSIterations)
	if err != nil {
		return cfg, errors.Wrap(err, "MCTS_ITERATIONS")
	}
	cfg.MCTSExplorationConstant, err = parameters.PopParamOr(params, "mcts_c", cfg.MCTSExplorationConstant)
	if err != nil {
		return cfg, errors.Wrap(err, "MCTS_EXPLORATION_CONSTANT")
	}
	cfg.MCTSRolloutDepth, err = parameters.PopParamOr(params, "mcts_rollout_depth", cfg.MCTSRolloutDepth)
	if err != nil {
		return cfg, errors.Wrap(err, "MCTS_ROLLOUT_DEPTH")
	}

	return cfg, nil
}
