// Package minimax implements the bounded-depth, all-MAX search variant
// (spec.md §4.4). It deliberately does not alternate min/max between
// players: the evaluator already folds the opponent's reply in via a
// fast-forward-to-combat step, so classical alpha-beta would double-count
// that. Pruning instead comes from futility margins and a soft beta cutoff.
// See spec.md §9 "All-MAX search" for why this must not be "fixed" into
// classical alpha-beta.
package minimax

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/cardforge/ccgcore/internal/config"
	"github.com/cardforge/ccgcore/internal/evaluator"
	"github.com/cardforge/ccgcore/internal/ordering"
	"github.com/cardforge/ccgcore/internal/rules"
	"github.com/cardforge/ccgcore/internal/searchers"
	"github.com/cardforge/ccgcore/internal/ttable"
)

// Searcher implements searchers.Searcher with the all-MAX bounded-depth
// algorithm. One Searcher must not be shared across concurrently running
// decisions: the transposition table, loop guard and move orderer are all
// per-thread state (spec.md §5).
type Searcher struct {
	cfg       config.Search
	eval      *evaluator.Evaluator
	tt        *ttable.Table
	loopGuard *ttable.LoopGuard
	orderer   *ordering.MoveOrderer

	effectCache map[effectKey]float32

	stats searchers.Stats

	// path accumulates the current root-to-leaf decisions as the recursion
	// descends, so the winning branch can be materialized into a Plan on
	// unwind.
	path []searchers.Decision

	bestPlan searchers.Plan

	deadline time.Time
}

// New returns a Searcher configured by cfg, scoring with eval.
func New(cfg config.Search, eval *evaluator.Evaluator) *Searcher {
	s := &Searcher{
		cfg:         cfg,
		eval:        eval,
		orderer:     ordering.New(),
		effectCache: make(map[effectKey]float32),
	}
	if cfg.UseTranspositionTable {
		s.tt = ttable.New(ttable.DefaultCapacity)
	}
	if cfg.LoopDetectionEnabled {
		s.loopGuard = ttable.NewLoopGuard(ttable.DefaultLoopGuardCapacity)
	}
	return s
}

var _ searchers.Searcher = (*Searcher)(nil)

// effectKey identifies a cached negative-valued subtree result: "target T
// with action A from host H", per spec.md §4.4 "Effect caching". The
// opaque rules.Action only exposes a textual description (which already
// encodes the target, by construction of the rules engine) and a host card
// name, so those two fields are what key the cache; there is no separate
// target handle to key on from this side of the boundary.
type effectKey struct {
	hostCardName string
	actionDesc   string
}

// Search implements searchers.Searcher.
func (s *Searcher) Search(game rules.Game, player rules.PlayerNum) (rules.Action, float32, bool, searchers.Stats) {
	assertValidPlayer(player)
	start := time.Now()
	if s.cfg.SimulationTimeLimit > 0 {
		s.deadline = start.Add(s.cfg.SimulationTimeLimit)
	} else {
		s.deadline = time.Time{}
	}
	s.stats = searchers.Stats{}
	s.path = nil
	s.bestPlan = searchers.Plan{Score: math32.Inf(-1)}

	baseScore := s.eval.Evaluate(game, player)
	s.recurse(game, player, baseScore.Value, 0, start)

	if len(s.bestPlan.Decisions) == 0 {
		return rules.Action{}, 0, false, s.stats
	}
	ref, _ := s.bestPlan.BestAction()
	candidates := game.CandidateActions(player)
	action, _, ok := ref.Resolve(candidates)
	if !ok {
		// Stale by the time we return (shouldn't happen within one Search
		// call against a stable game, but defend against it per spec.md §7
		// "illegal/stale action").
		klog.V(1).Infof("minimax: best action %q no longer resolvable, abandoning", ref.Description)
		return rules.Action{}, 0, false, s.stats
	}

	if s.tt != nil {
		hits, misses := s.tt.Stats()
		s.stats.TTHits, s.stats.TTMisses = hits, misses
	}
	klog.V(2).Infof("minimax: nodes=%d evals=%d prunes=%d elapsed=%s",
		s.stats.Nodes, s.stats.Evals, s.stats.Prunes, time.Since(start))
	return action, s.bestPlan.Score, true, s.stats
}

// recurse descends depth-first, handing leaves to considerLeaf, which keeps
// the best-scoring path found so far. parentBest is the score of the
// position recurse starts from; depthBest, the best score any sibling at
// this depth has achieved, is compared against it for the soft-beta cutoff.
func (s *Searcher) recurse(game rules.Game, player rules.PlayerNum, parentBest float32, depth int, start time.Time) {
	candidates := game.CandidateActions(player)
	if len(candidates) == 0 {
		return
	}

	order := s.orderer.OrderMoves(candidates, depth)
	depthBest := math32.Inf(-1)

	for i, idx := range order {
		action := candidates[idx]
		ref := rules.RefOf(action, idx)

		if s.bestPlan.Score == math32.Inf(1) {
			// Already found a guaranteed win; no point exploring more.
			return
		}

		copyGame := game.Snapshot()
		ok := copyGame.PlayAction(player, action)
		if !ok {
			// Stale/illegal: abandon this branch (spec.md §7).
			continue
		}
		s.stats.Nodes++

		if cached, hit := s.probeEffectCache(action, copyGame, player); hit {
			candidateScore := parentBest + cached
			s.considerLeaf(ref, candidateScore, depth)
			continue
		}

		if s.loopGuard != nil {
			h := ttable.Hash(copyGame)
			if already := s.loopGuard.Visit(h); already {
				s.stats.Prunes++
				continue
			}
		}

		score := s.eval.Evaluate(copyGame, player)
		s.stats.Evals++

		if score.IsTerminal() {
			s.considerLeaf(ref, score.Value, depth)
			if score.Value == math32.Inf(1) {
				return
			}
			continue
		}

		// Futility pruning: this candidate's immediate score is already
		// far below the best found so far at this depth, skip recursing.
		if i > 0 && depthBest-score.Value >= s.cfg.FutilityMargin && s.cfg.AlphaBetaPruning {
			s.stats.Prunes++
			s.recordNegativeEffect(action, score.Value-parentBest)
			continue
		}

		s.path = append(s.path, searchers.Decision{Kind: searchers.ActionChoice, Action: ref})
		if s.shouldRecurse(depth, start) {
			s.recurse(copyGame, player, score.Value, depth+1, start)
		} else {
			s.considerLeaf(ref, score.Value, depth)
		}
		s.path = s.path[:len(s.path)-1]

		if score.Value > depthBest {
			depthBest = score.Value
			s.orderer.UpdateHistory(action, depth)
		}

		// Soft beta cutoff: at depth >= 2, once this depth's best beats the
		// parent depth's best, the remaining siblings can't change the
		// decision at the parent, so stop here (spec.md §4.4).
		if depth >= 2 && s.cfg.AlphaBetaPruning && depthBest >= parentBest {
			s.orderer.RecordKillerMove(action, depth)
			s.stats.Prunes++
			return
		}
	}
}

// considerLeaf updates s.bestPlan if the path ending in ref (at the given
// depth, appended for this call only) beats the best plan found so far.
func (s *Searcher) considerLeaf(ref rules.ActionRef, score float32, depth int) {
	if score <= s.bestPlan.Score && len(s.bestPlan.Decisions) > 0 {
		return
	}
	plan := make([]searchers.Decision, len(s.path), len(s.path)+1)
	copy(plan, s.path)
	plan = append(plan, searchers.Decision{Kind: searchers.ActionChoice, Action: ref})
	s.bestPlan = searchers.Plan{Decisions: plan, Score: score}
}

// shouldRecurse implements the time/depth gate: stop when already winning,
// depth exceeds SimulationMaxDepth, or the wall-clock budget is spent.
func (s *Searcher) shouldRecurse(depth int, start time.Time) bool {
	if s.bestPlan.Score == math32.Inf(1) {
		return false
	}
	if s.cfg.SimulationMaxDepth > 0 && depth+1 >= s.cfg.SimulationMaxDepth {
		return false
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return false
	}
	return true
}

// probeEffectCache checks whether "action from its host, targeting
// whatever it targeted" has a cached negative delta, looked up by host card
// name and action description. No reverse-mapping of handles is done and
// the target's card score is not compared. Only negative deltas are ever
// cached.
func (s *Searcher) probeEffectCache(action rules.Action, copyGame rules.Game, player rules.PlayerNum) (float32, bool) {
	if s.effectCache == nil {
		return 0, false
	}
	key := effectKey{hostCardName: action.HostCardName, actionDesc: action.Description}
	delta, ok := s.effectCache[key]
	return delta, ok
}

// recordNegativeEffect stores "target T with action A from host H yields
// this delta" when the delta is <= 0, per spec.md §4.4 ("only
// negative-valued effects are cached").
func (s *Searcher) recordNegativeEffect(action rules.Action, delta float32) {
	if delta > 0 {
		return
	}
	key := effectKey{hostCardName: action.HostCardName, actionDesc: action.Description}
	s.effectCache[key] = delta
}

// assertValidPlayer panics, via exceptions.Panicf, on any player number
// other than PlayerA or PlayerB. Search calls it on entry.
func assertValidPlayer(p rules.PlayerNum) {
	if p != rules.PlayerA && p != rules.PlayerB {
		exceptions.Panicf("minimax: invalid player %d", p)
	}
}
