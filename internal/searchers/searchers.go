// Package searchers defines the common Searcher interface both the
// minimax and MCTS variants implement, plus the Plan/Decision representation
// spec.md §3 and §9 describe for a search's output.
package searchers

import "github.com/cardforge/ccgcore/internal/rules"

// DecisionKind tags what a Decision node actually chose, so a minimax Plan
// can be flattened to one entry per action with ancillary sub-choices
// folded in, per spec.md §9 ("tree of decisions with sub-choices as a flat
// list").
type DecisionKind int

const (
	ActionChoice DecisionKind = iota
	TargetSet
	ModeMask
	CardList
	XValue
)

// Decision is one entry of a Plan: an action plus whatever ancillary
// sub-choice accompanied it. Exactly one of the Target/Mode/Cards/X fields
// is meaningful, selected by Kind; ActionChoice entries use none of them.
type Decision struct {
	Kind DecisionKind

	Action rules.ActionRef

	Targets     []rules.CardHandle
	ModeMask    uint32
	ModeDesc    string
	ChosenCards []rules.CardHandle
	XValue      int
}

// Plan is the root-to-leaf sequence of decisions a minimax search
// recommends for the current priority window.
type Plan struct {
	Decisions []Decision
	Score     float32
}

// BestAction is a convenience accessor returning the first action in the
// plan, the one the caller should actually execute right now; the rest of
// the plan is advisory (it may not survive the opponent's actual reply).
func (p Plan) BestAction() (rules.ActionRef, bool) {
	if len(p.Decisions) == 0 {
		return rules.ActionRef{}, false
	}
	return p.Decisions[0].Action, true
}

// Stats aggregates search telemetry: node/eval counts and transposition
// table hit/miss rates, useful for benchmarking and diagnostics (spec.md
// §4.2 "Tracks hit/miss counts for telemetry").
type Stats struct {
	Nodes      int
	Evals      int
	Prunes     int
	TTHits     int
	TTMisses   int
}

// Searcher is the interface both the minimax and MCTS variants implement.
// It returns the concrete action to play next, plus the search's telemetry.
type Searcher interface {
	// Search returns the chosen action for player in game, or ok=false if
	// the search recommends no action (the caller falls back to priority,
	// per spec.md §4.5 MCTS root action selection).
	Search(game rules.Game, player rules.PlayerNum) (action rules.Action, score float32, ok bool, stats Stats)
}
