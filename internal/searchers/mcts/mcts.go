// Package mcts implements the Monte Carlo Tree Search variant of SearchCore
// (spec.md §4.5): plain UCB1 selection (no learned policy priors), a
// shallow heuristic rollout, sigmoid reward normalization, and early
// termination once one root child dominates the visit distribution.
package mcts

import (
	"time"

	"github.com/chewxy/math32"
	"k8s.io/klog/v2"

	"github.com/cardforge/ccgcore/internal/config"
	"github.com/cardforge/ccgcore/internal/evaluator"
	"github.com/cardforge/ccgcore/internal/rules"
	"github.com/cardforge/ccgcore/internal/searchers"
)

// rewardScale is the named constant spec.md §4.5 calls for in the
// normalization σ((score - initialScore) / scale).
const rewardScale = 150

// earlyTerminationMinIterations and earlyTerminationShare implement
// "After at least 50 iterations, if the most-visited root child holds >= 80%
// of total visits, stop" (spec.md §4.5).
const (
	earlyTerminationMinIterations = 50
	earlyTerminationShare         = 0.8
)

// passMeanRewardMargin and minimumMeanReward implement root action
// selection's PASS handling (spec.md §4.5).
const (
	passMeanRewardMargin = 0.03
	minimumMeanReward    = 0.35
)

// node is one MCTS tree node. Root has parent == nil and ref is unused.
type node struct {
	parent   *node
	ref      rules.ActionRef // action that led to this node from its parent
	children []*node

	candidates  []rules.Action // legal actions at this node, set on first expansion
	nextUnexp   int            // index into candidates of the next unexpanded child

	n          int
	q          float32
	terminal   bool
	termScore  float32
}

func (nd *node) meanReward() float32 {
	if nd.n == 0 {
		return 0
	}
	return nd.q / float32(nd.n)
}

// Searcher implements searchers.Searcher with UCB1-based MCTS. Single-
// threaded per decision; safe only by instance isolation (spec.md §4.5).
type Searcher struct {
	cfg  config.Search
	eval *evaluator.Evaluator
}

// New returns a Searcher configured by cfg, scoring leaves with eval.
func New(cfg config.Search, eval *evaluator.Evaluator) *Searcher {
	return &Searcher{cfg: cfg, eval: eval}
}

var _ searchers.Searcher = (*Searcher)(nil)

// Search implements searchers.Searcher.
func (s *Searcher) Search(game rules.Game, player rules.PlayerNum) (rules.Action, float32, bool, searchers.Stats) {
	start := time.Now()
	stats := searchers.Stats{}

	root := &node{}
	initialScore := s.eval.Evaluate(game, player).Value

	iterations := s.cfg.MCTSIterations
	if iterations <= 0 {
		iterations = config.Default().MCTSIterations
	}

	explorationConstant := s.cfg.MCTSExplorationConstant
	if explorationConstant <= 0 {
		explorationConstant = config.Default().MCTSExplorationConstant
	}

	for i := 0; i < iterations; i++ {
		s.iterate(root, game, player, initialScore, explorationConstant, &stats)

		if i+1 >= earlyTerminationMinIterations && root.n > 0 {
			_, mostVisits := mostVisitedChild(root)
			if float32(mostVisits)/float32(root.n) >= earlyTerminationShare {
				break
			}
		}
	}

	klog.V(2).Infof("mcts: iterations=%d evals=%d elapsed=%s", root.n, stats.Evals, time.Since(start))

	action, score, ok, _ := s.selectRootAction(root, game, player)
	stats.Nodes = root.n
	return action, score, ok, stats
}

// iterate performs one select/expand/rollout/backpropagate cycle from
// root, replaying the path against a fresh snapshot of game.
func (s *Searcher) iterate(root *node, game rules.Game, player rules.PlayerNum, initialScore, explorationConstant float32, stats *searchers.Stats) {
	path := []*node{root}
	cur := root
	for cur.candidates != nil && cur.nextUnexp >= len(cur.candidates) && !cur.terminal && len(cur.children) > 0 {
		cur = selectUCB1(cur, explorationConstant)
		path = append(path, cur)
	}

	if cur.terminal {
		backpropagate(path, cur.termScore)
		return
	}

	// Replay the path of ActionRefs from root to cur against a fresh
	// snapshot, re-resolving each against that copy's candidate list
	// (spec.md §4.5 step 2). Aborting a replay abandons this iteration,
	// per the illegal/stale-action error policy (spec.md §7).
	copyGame := game.Snapshot()
	ok := replay(copyGame, player, path[1:])
	if !ok {
		backpropagate(path, 0.5)
		return
	}

	if cur.candidates == nil {
		cur.candidates = copyGame.CandidateActions(player)
		cur.children = make([]*node, len(cur.candidates))
		if len(cur.candidates) == 0 {
			// No legal actions: append a synthetic PASS.
			cur.candidates = []rules.Action{{IsPass: true, Description: "PASS"}}
			cur.children = make([]*node, 1)
		}
	}

	if cur.nextUnexp >= len(cur.candidates) {
		// Fully expanded but we fell through (e.g. a terminal leaf with no
		// children yet visited); just re-evaluate.
		score := s.eval.Evaluate(copyGame, player)
		reward := normalize(score, initialScore)
		backpropagate(path, reward)
		return
	}

	expandIdx := cur.nextUnexp
	cur.nextUnexp++
	action := cur.candidates[expandIdx]
	child := &node{parent: cur, ref: rules.RefOf(action, expandIdx)}
	cur.children[expandIdx] = child

	if !action.IsPass {
		childGame := copyGame.Snapshot()
		playOK := childGame.PlayAction(player, action)
		if !playOK {
			backpropagate(append(path, child), 0.5)
			return
		}
		if childGame.IsOver() {
			outcome := childGame.Outcome()
			var sc float32 = 0.5
			if !outcome.IsDraw {
				if outcome.WinningPlayer == player {
					sc = 1.0
				} else {
					sc = 0.0
				}
			}
			child.terminal = true
			child.termScore = sc
			backpropagate(append(path, child), sc)
			return
		}
		copyGame = childGame
	}

	stats.Nodes++
	reward := s.rollout(copyGame, player, initialScore, stats)
	backpropagate(append(path, child), reward)
}

// replay re-applies the actions recorded in path's ActionRefs against
// game, in order, re-resolving each against the current candidate list.
func replay(game rules.Game, player rules.PlayerNum, path []*node) bool {
	for _, nd := range path {
		if nd.parent == nil {
			continue
		}
		candidates := game.CandidateActions(player)
		action, _, found := nd.ref.Resolve(candidates)
		if !found {
			if nd.ref.Description == "PASS" {
				continue
			}
			return false
		}
		if action.IsPass {
			continue
		}
		if !game.PlayAction(player, action) {
			return false
		}
	}
	return true
}

// selectUCB1 descends to the child maximizing UCB1 = Q/N +
// c*sqrt(ln(Nparent)/N); unvisited children return +inf so they are always
// explored first (spec.md §4.5 step 1). c is MCTSExplorationConstant
// (spec.md §6).
func selectUCB1(parent *node, c float32) *node {
	var best *node
	bestScore := math32.Inf(-1)
	for _, child := range parent.children {
		if child == nil {
			continue
		}
		var score float32
		if child.n == 0 {
			score = math32.Inf(1)
		} else {
			exploit := child.q / float32(child.n)
			explore := c * math32.Sqrt(math32.Log(float32(parent.n))/float32(child.n))
			score = exploit + explore
		}
		if score > bestScore {
			bestScore = score
			best = child
		}
	}
	if best == nil {
		return parent
	}
	return best
}

// rollout plays at most RolloutDepth half-turns of a simple playout, then
// evaluates the resulting state (spec.md §4.5 step 3).
func (s *Searcher) rollout(game rules.Game, player rules.PlayerNum, initialScore float32, stats *searchers.Stats) float32 {
	depth := s.cfg.MCTSRolloutDepth
	if depth <= 0 {
		depth = config.Default().MCTSRolloutDepth
	}

	cur := game
	turnPlayer := player
	for i := 0; i < depth; i++ {
		if cur.IsOver() {
			break
		}
		candidates := cur.CandidateActions(turnPlayer)
		if len(candidates) == 0 {
			turnPlayer = turnPlayer.Other()
			continue
		}
		action := rules.RolloutPolicy(candidates, func(name string) rules.Card {
			for _, c := range cur.Player(turnPlayer).Battlefield {
				if c.Name == name {
					return c
				}
			}
			for _, c := range cur.Player(turnPlayer).Hand {
				if c.Name == name {
					return c
				}
			}
			return rules.Card{}
		})
		cur.PlayAction(turnPlayer, action)
		turnPlayer = turnPlayer.Other()
	}

	stats.Evals++
	if cur.IsOver() {
		outcome := cur.Outcome()
		if outcome.IsDraw {
			return 0.5
		}
		if outcome.WinningPlayer == player {
			return 1.0
		}
		return 0.0
	}
	score := s.eval.Evaluate(cur, player)
	return normalize(score, initialScore)
}

// normalize implements the reward normalization: +inf -> 1.0, -inf -> 0.0,
// otherwise sigmoid((score - initialScore) / rewardScale).
func normalize(score evaluator.Score, initialScore float32) float32 {
	if score.Value == math32.Inf(1) {
		return 1.0
	}
	if score.Value == math32.Inf(-1) {
		return 0.0
	}
	x := (score.Value - initialScore) / rewardScale
	return 1 / (1 + math32.Exp(-x))
}

func backpropagate(path []*node, reward float32) {
	for _, nd := range path {
		nd.n++
		nd.q += reward
	}
}

func mostVisitedChild(parent *node) (*node, int) {
	var best *node
	most := -1
	for _, c := range parent.children {
		if c == nil {
			continue
		}
		if c.n > most {
			most = c.n
			best = c
		}
	}
	return best, most
}

// selectRootAction implements root action selection (spec.md §4.5 last
// paragraph): pick the most-visited child; if it is PASS, prefer a
// non-pass child within passMeanRewardMargin of PASS's mean reward; if
// even the best action's mean reward is below minimumMeanReward, or PASS
// remains the choice, report no action so the caller falls back to
// priority.
func (s *Searcher) selectRootAction(root *node, game rules.Game, player rules.PlayerNum) (rules.Action, float32, bool, searchers.Stats) {
	stats := searchers.Stats{Nodes: root.n}
	best, _ := mostVisitedChild(root)
	if best == nil {
		return rules.Action{}, 0, false, stats
	}

	chosen := best
	bestCandidate := root.candidates[indexOfChild(root, best)]
	if bestCandidate.IsPass {
		for idx, child := range root.children {
			if child == nil || child == best {
				continue
			}
			cand := root.candidates[idx]
			if cand.IsPass {
				continue
			}
			if best.meanReward()-child.meanReward() <= passMeanRewardMargin {
				chosen = child
				bestCandidate = cand
				break
			}
		}
	}

	if chosen.meanReward() < minimumMeanReward || bestCandidate.IsPass {
		return rules.Action{}, chosen.meanReward(), false, stats
	}

	candidates := game.CandidateActions(player)
	resolved, _, found := chosen.ref.Resolve(candidates)
	if !found {
		return rules.Action{}, 0, false, stats
	}
	return resolved, chosen.meanReward(), true, stats
}

func indexOfChild(parent *node, child *node) int {
	for idx, c := range parent.children {
		if c == child {
			return idx
		}
	}
	return -1
}
