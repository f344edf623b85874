// Package ordering implements the MoveOrderer: per-thread killer-move and
// history tables that reorder candidate actions to maximize the
// effectiveness of the search's pruning (spec.md §4.3).
package ordering

import (
	"github.com/cardforge/ccgcore/internal/generics"
	"github.com/cardforge/ccgcore/internal/rules"
)

const (
	maxKillersPerDepth = 2
	killerDepthLimit   = 20
	historyTableLimit  = 10_000
	killerBonus        = 10_000
)

// staticPriority gives a fixed ordering hint by ApiKind, used as a
// tie-breaker before any killer/history signal has accumulated.
func staticPriority(kind rules.ApiKind) int {
	switch kind {
	case rules.ApiKindDestroy:
		return 50
	case rules.ApiKindCounter:
		return 45
	case rules.ApiKindDamage:
		return 40
	case rules.ApiKindToken:
		return 20
	case rules.ApiKindDraw:
		return 15
	case rules.ApiKindMana:
		return 10
	case rules.ApiKindLandPlay:
		return 5
	default:
		return 0
	}
}

// MoveOrderer must be instantiated once per search thread: it is not safe
// for concurrent use (spec.md §4.3, §5 "must be per-thread").
type MoveOrderer struct {
	killerMoves  map[int][]string // depth -> up to maxKillersPerDepth action keys, most recent first
	historyTable map[string]int   // action key -> accumulated score
}

// New returns an empty MoveOrderer.
func New() *MoveOrderer {
	return &MoveOrderer{
		killerMoves:  make(map[int][]string),
		historyTable: make(map[string]int),
	}
}

// OrderMoves returns a permutation of indices into actions, ordered by
// descending priority = 10000*isKiller + historyScore + staticPriority.
func (o *MoveOrderer) OrderMoves(actions []rules.Action, depth int) []int {
	killerSet := generics.SetWith(o.killerMoves[depth]...)
	priority := make([]int, len(actions))
	for i, a := range actions {
		key := a.Key()
		p := o.historyTable[key] + staticPriority(a.Kind)
		if killerSet.Has(key) {
			p += killerBonus
		}
		priority[i] = p
	}

	// SliceOrdering returns indices into priority sorted by value; reverse=true
	// gives descending order (highest priority first).
	return generics.SliceOrdering(priority, true)
}

// RecordKillerMove registers action as having caused a cutoff at depth.
// Ignored at depth >= killerDepthLimit, per spec.md §4.3.
func (o *MoveOrderer) RecordKillerMove(action rules.Action, depth int) {
	if depth >= killerDepthLimit {
		return
	}
	key := action.Key()
	slot := o.killerMoves[depth]

	// De-duplicate by key: drop any existing occurrence before prepending.
	deduped := slot[:0:0]
	for _, k := range slot {
		if k != key {
			deduped = append(deduped, k)
		}
	}
	deduped = append([]string{key}, deduped...)
	if len(deduped) > maxKillersPerDepth {
		deduped = deduped[:maxKillersPerDepth]
	}
	o.killerMoves[depth] = deduped
}

// UpdateHistory adds depth^2 to action's history score, on a best-line
// update. History persists across searches within a game; when the table
// grows past historyTableLimit, all values are halved and zeros dropped to
// bound memory and avoid overflow.
func (o *MoveOrderer) UpdateHistory(action rules.Action, depth int) {
	key := action.Key()
	o.historyTable[key] += depth * depth
	if len(o.historyTable) > historyTableLimit {
		o.decayHistory()
	}
}

func (o *MoveOrderer) decayHistory() {
	for k, v := range o.historyTable {
		v /= 2
		if v == 0 {
			delete(o.historyTable, k)
			continue
		}
		o.historyTable[k] = v
	}
}

// Clear resets the killer-move table only. Call between searches within
// the same game.
func (o *MoveOrderer) Clear() {
	o.killerMoves = make(map[int][]string)
}

// ClearAll resets both killer and history tables. Call between games.
func (o *MoveOrderer) ClearAll() {
	o.Clear()
	o.historyTable = make(map[string]int)
}
