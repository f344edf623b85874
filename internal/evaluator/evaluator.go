// Package evaluator implements the static position evaluator: it assigns a
// Score to a (Game, Player) pair without searching, folding an optional
// "fast-forward to combat damage" simulation in to approximate the
// opponent's reply.
package evaluator

import (
	"strings"
	"sync"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/cardforge/ccgcore/internal/rules"
)

// Score is the evaluator's output: a primary value and a variant that
// treats the evaluated player's summoning-sick creatures as worth zero
// (used by callers that care about what is actually attackable before
// MAIN2).
type Score struct {
	Value           float32
	ValueIfSickFree float32
}

// Win and Loss are the terminal sentinels. No non-terminal evaluation may
// produce these (spec invariant: score monotonicity of +inf/-inf).
var (
	Win  = Score{math32.Inf(1), math32.Inf(1)}
	Loss = Score{math32.Inf(-1), math32.Inf(-1)}
)

// IsTerminal reports whether s is one of the Win/Loss sentinels.
func (s Score) IsTerminal() bool {
	return math32.IsInf(s.Value, 0)
}

// Add returns the component-wise sum of two scores.
func (s Score) Add(other Score) Score {
	return Score{s.Value + other.Value, s.ValueIfSickFree + other.ValueIfSickFree}
}

// ComboSignal names one heuristic synergy trigger the evaluator scans for.
// The list is configuration, not code: see spec.md §9 "Heuristic synergy
// scoring".
type ComboSignal struct {
	// NameSubstring is matched case-insensitively against permanents and
	// hand cards. Entries with an empty NameSubstring are skipped; the
	// board-state predicates are fixed in comboBonus.
	NameSubstring string
	Bonus         float32
}

// Config holds the tunables spec.md §6 enumerates that bear on the
// evaluator.
type Config struct {
	// ComboStateBonus scales the synergy bonus; 0 disables it entirely.
	ComboStateBonus float32

	// FastForwardToCombat folds "imminent combat" into the position by
	// simulating to the combat-damage step on a scratch copy before
	// scoring permanents.
	FastForwardToCombat bool

	// DeckMaxPip[color] and DeckMaxCost bound the mana-base score so a
	// deck's color requirements, not raw production, set the ceiling.
	DeckMaxPip  [6]int
	DeckMaxCost int

	// MaxHandSize caps how much excess hand size counts toward material.
	MaxHandSize int

	// ComboSignals is the externalized synergy table (spec.md §9).
	ComboSignals []ComboSignal
}

// DefaultConfig mirrors the fixed table the source evaluator hard-codes,
// expressed as data.
func DefaultConfig() Config {
	return Config{
		ComboStateBonus: 50,
		MaxHandSize:     7,
		DeckMaxCost:     10,
		DeckMaxPip:      [6]int{3, 3, 3, 3, 3, 0},
		ComboSignals: []ComboSignal{
			{NameSubstring: "sacrifice", Bonus: 1},
			{NameSubstring: "counter", Bonus: 1},
			{NameSubstring: "tribal", Bonus: 1},
			{NameSubstring: "doubler", Bonus: 1},
		},
	}
}

// cacheKey identifies a non-creature permanent's evaluation: card identity
// plus the mutable attributes that matter for non-creature scoring
// (tapped). Creature evaluation is never cached since board context
// (blockers, density) changes every call.
type cacheKey struct {
	handle rules.CardHandle
	tapped bool
}

// Evaluator is deterministic and pure apart from an owned cache for
// non-creature card evaluations. It is safe for concurrent use by distinct
// decisions over distinct Game copies; the cache itself is mutex-guarded so
// one Evaluator may still be shared if desired.
type Evaluator struct {
	config Config

	mu    sync.Mutex
	cache map[cacheKey]float32
}

// New returns an Evaluator configured with cfg.
func New(cfg Config) *Evaluator {
	return &Evaluator{
		config: cfg,
		cache:  make(map[cacheKey]float32),
	}
}

// Evaluate scores game from player's perspective. It never fails: if the
// rules engine panics during the optional fast-forward to combat, the panic
// is recovered and logged at the diagnostic level and the un-forwarded
// position is scored instead (spec.md §4.1 "Failure: never").
func (e *Evaluator) Evaluate(game rules.Game, player rules.PlayerNum) Score {
	if game.IsOver() {
		outcome := game.Outcome()
		if outcome.IsDraw {
			return Score{}
		}
		if outcome.WinningPlayer == player {
			return Win
		}
		return Loss
	}

	g := game
	if e.config.FastForwardToCombat {
		g = safeFastForward(game)
	}

	me := g.Player(player)
	var oppLifeSum, oppCount int
	for _, opp := range g.Opponents(player) {
		oppLifeSum += g.Player(opp).Life
		oppCount++
	}
	avgOppLife := float32(0)
	if oppCount > 0 {
		avgOppLife = float32(oppLifeSum) / float32(oppCount)
	}

	handBonus := e.handMaterial(g, player)
	lifeBonus := 2 * (float32(me.Life) - avgOppLife)
	comboBonus := e.comboBonus(g, player)
	manaBonus := e.manaBaseScore(me)

	permScore, permScoreSickFree := e.permanentsScore(g, player)

	base := handBonus + lifeBonus + comboBonus + manaBonus
	return Score{
		Value:           base + permScore,
		ValueIfSickFree: base + permScoreSickFree,
	}
}

// handMaterial implements "5*myHand - 4*oppHand, clamped so excess over
// max-hand-size counts only 1x".
func (e *Evaluator) handMaterial(g rules.Game, player rules.PlayerNum) float32 {
	me := g.Player(player)
	myHand := clampedHand(me.HandSize, e.config.MaxHandSize, 5)
	var oppHand float32
	opps := g.Opponents(player)
	for _, opp := range opps {
		oppHand += clampedHand(g.Player(opp).HandSize, e.config.MaxHandSize, 4)
	}
	if len(opps) > 0 {
		oppHand /= float32(len(opps))
	}
	return myHand - oppHand
}

// clampedHand weighs a hand of size cards: cards up to max count weight
// each, cards beyond max count 1 each.
func clampedHand(size, max int, weight float32) float32 {
	if max <= 0 || size <= max {
		return weight * float32(size)
	}
	return weight*float32(max) + float32(size-max)
}

// comboBonus scans battlefield and hand cards for the configured synergy
// signals and opponent/board-state predicates, summing configured bonuses.
func (e *Evaluator) comboBonus(g rules.Game, player rules.PlayerNum) float32 {
	if e.config.ComboStateBonus == 0 {
		return 0
	}
	me := g.Player(player)
	var total float32

	// Board-state predicates.
	for _, opp := range g.Opponents(player) {
		oppLife := g.Player(opp).Life
		if oppLife <= 3 {
			total++
		} else if oppLife <= 5 {
			total += 0.5
		}
	}
	if me.UntappedLands >= 7 {
		total++
	}
	if me.HandSize >= 7 {
		total++
	}

	// Name-substring signals, scanned over battlefield + hand.
	for _, sig := range e.config.ComboSignals {
		if sig.NameSubstring == "" {
			continue
		}
		needle := strings.ToLower(sig.NameSubstring)
		for _, c := range me.Battlefield {
			if strings.Contains(strings.ToLower(c.Name), needle) {
				total += sig.Bonus
			}
		}
		for _, c := range me.Hand {
			if strings.Contains(strings.ToLower(c.Name), needle) {
				total += sig.Bonus
			}
		}
	}

	return total * e.config.ComboStateBonus / 10
}

// manaBaseScore implements the per-color pip/producible scoring. Pip count
// is approximated by the colors required by hand cards still to be cast
// (the rules engine does not expose per-symbol cost breakdowns to the
// core, so color-identity flags stand in for pip counts).
func (e *Evaluator) manaBaseScore(me rules.PlayerView) float32 {
	var total float32
	var maxProducible, pipCount [6]int
	for _, c := range me.Battlefield {
		if !c.IsLand {
			continue
		}
		for color := 0; color < 6; color++ {
			if c.ManaProduced[color] > maxProducible[color] {
				maxProducible[color] = c.ManaProduced[color]
			}
		}
	}
	for _, c := range me.Hand {
		for color, present := range colorFlags(c) {
			if present {
				pipCount[color]++
			}
		}
	}
	for color := 0; color < 6; color++ {
		cap := e.config.DeckMaxPip[color]
		total += 100 * float32(minInt(pipCount[color], cap))
	}
	totalProducible := sumInts(maxProducible[:])
	total += 100 * float32(minInt(totalProducible, e.config.DeckMaxCost))
	if totalProducible > e.config.DeckMaxCost {
		total += 5 * float32(totalProducible-e.config.DeckMaxCost)
	}
	return total
}

// permanentsScore sums evalCard over the battlefield, returning both the
// normal total and the summoning-sick-is-free variant.
func (e *Evaluator) permanentsScore(g rules.Game, player rules.PlayerNum) (normal, sickFree float32) {
	me := g.Player(player)
	var opposingNonEvasiveBlockers int
	for _, opp := range g.Opponents(player) {
		opposingNonEvasiveBlockers += countNonEvasiveBlockers(g.Player(opp).Battlefield)
	}
	density := len(me.Battlefield)

	for _, c := range me.Battlefield {
		v := e.evalCard(c, opposingNonEvasiveBlockers, density)
		normal += v
		if c.IsCreature && c.SummoningSick {
			sickFree += 0 // a freshly summoned sick creature counts as 0 in the variant
		} else {
			sickFree += v
		}
	}
	return
}

func countNonEvasiveBlockers(battlefield []rules.Card) int {
	count := 0
	for _, c := range battlefield {
		if !c.IsCreature {
			continue
		}
		k := c.Keywords
		if k.Flying || k.Horsemanship || k.Shadow || k.Fear || k.Intimidate {
			continue
		}
		count++
	}
	return count
}

// evalCard dispatches by permanent kind, using the non-creature cache for
// everything but creatures.
func (e *Evaluator) evalCard(c rules.Card, opposingNonEvasiveBlockers, boardDensity int) float32 {
	if c.IsCreature {
		return e.evalCreature(c, opposingNonEvasiveBlockers, boardDensity)
	}

	key := cacheKey{handle: c.Handle, tapped: c.Tapped}
	e.mu.Lock()
	if v, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return v
	}
	e.mu.Unlock()

	var v float32
	switch {
	case c.IsLand:
		v = e.evalLand(c)
	case c.IsPlaneswalker:
		v = 50 + 30*float32(c.ConvertedCost) + 2*float32(c.Loyalty)
	default:
		// Any other non-land, non-creature permanent (artifact/enchantment;
		// auras are not told apart from other enchantments).
		v = 50 + 30*float32(c.ConvertedCost)
	}

	e.mu.Lock()
	e.cache[key] = v
	e.mu.Unlock()
	return v
}

func (e *Evaluator) evalLand(c rules.Card) float32 {
	maxProduced := maxInt(c.ManaProduced[:]...)
	v := float32(3) + 100*float32(maxProduced) + 3*float32(c.DistinctColors)
	switch {
	case c.NonManaAbilities >= 2:
		v += 50
	case c.NonManaAbilities == 1:
		v += 25
	}
	v += 6 * float32(c.StaticAbilities)
	return v
}

// evalCreature scores power/toughness plus the board-context modifiers:
// blocker-availability and board-density, plus a flat bonus for deathtouch.
// The creature is not compared against individual opposing creatures, so
// there is no kills-or-survives threat-sizing bonus.
func (e *Evaluator) evalCreature(c rules.Card, opposingNonEvasiveBlockers, boardDensity int) float32 {
	v := float32(c.Power) + float32(c.Toughness)

	if opposingNonEvasiveBlockers == 0 {
		v += 30
	} else if opposingNonEvasiveBlockers <= 2 {
		v += 10
	}

	if boardDensity <= 2 {
		v += 10
	}

	if c.Keywords.Deathtouch {
		v += 5
	}

	return v
}

// safeFastForward simulates to the combat-damage step on a scratch copy.
// Any panic from the rules engine during this purely advisory step is
// recovered and logged; the evaluator falls back to the un-forwarded
// game rather than letting a rules-engine exception escape the evaluator.
func safeFastForward(g rules.Game) (result rules.Game) {
	result = g
	defer func() {
		if r := recover(); r != nil {
			klog.V(2).Infof("evaluator: fast-forward to combat failed, scoring pre-combat position: %v",
				errors.Errorf("%v", r))
			result = g
		}
	}()
	copy := g.Snapshot()
	copy.AdvanceTo(rules.PhaseCombatDamage, nil)
	return copy
}

// colorFlags returns the WUBRG + colorless presence flags for a card,
// matching the six mana-base positions.
func colorFlags(c rules.Card) [6]bool {
	return [6]bool{c.ColorW, c.ColorU, c.ColorB, c.ColorR, c.ColorG, false}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(values ...int) int {
	m := 0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func sumInts(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
