// Package rulestest is a minimal in-memory implementation of rules.Game and
// rules.Combat, grounded loosely on the teacher's internal/state/statetest
// fake board: just enough rules to drive a real end-to-end match (and the
// package's own tests) without a real rules engine behind this module's
// boundary.
package rulestest

import (
	"github.com/cardforge/ccgcore/internal/rules"
)

// Game is the in-memory fake rules.Game.
type Game struct {
	turn       int
	phase      rules.Phase
	stackDepth int
	turnPlayer rules.PlayerNum

	players [2]*playerState

	over    bool
	outcome rules.Outcome

	nextHandle rules.CardHandle
	combat     *Combat
}

type playerState struct {
	life          int
	poison        int
	untappedLands int
	library       []rules.Card
	hand          []rules.Card
	battlefield   []rules.Card
	graveyard     []rules.Card
}

func (p *playerState) clone() *playerState {
	c := &playerState{life: p.life, poison: p.poison, untappedLands: p.untappedLands}
	c.library = append([]rules.Card(nil), p.library...)
	c.hand = append([]rules.Card(nil), p.hand...)
	c.battlefield = append([]rules.Card(nil), p.battlefield...)
	c.graveyard = append([]rules.Card(nil), p.graveyard...)
	return c
}

// NewMatch builds a fresh Game with deckA/deckB as the two players' opening
// libraries; the first startingHand cards of each deck are drawn into hand.
func NewMatch(deckA, deckB []rules.Card, startingHand int) *Game {
	g := &Game{turnPlayer: rules.PlayerA, phase: rules.PhaseMain1}
	g.players[rules.PlayerA] = newPlayerState(deckA, startingHand)
	g.players[rules.PlayerB] = newPlayerState(deckB, startingHand)
	g.nextHandle = rules.CardHandle(len(deckA) + len(deckB) + 1)
	g.combat = &Combat{}
	return g
}

func newPlayerState(deck []rules.Card, startingHand int) *playerState {
	ps := &playerState{life: 20}
	ps.library = append([]rules.Card(nil), deck...)
	if startingHand > len(ps.library) {
		startingHand = len(ps.library)
	}
	ps.hand = append(ps.hand, ps.library[:startingHand]...)
	ps.library = ps.library[startingHand:]
	return ps
}

// NewSimpleMatch builds a small symmetric deck of lands, vanilla creatures
// and a damage spell for both seats, enough to drive cmd/matchdemo and
// package tests end to end.
func NewSimpleMatch() *Game {
	deck := func() []rules.Card {
		var cards []rules.Card
		h := rules.CardHandle(0)
		next := func() rules.CardHandle { h++; return h }
		lands, creatures, spells := 0, 0, 0
		// Interleave lands/creatures/spells round-robin so a 7-card opening
		// hand isn't all lands: a real deck isn't built in clumps like this.
		for lands < 8 || creatures < 4 || spells < 4 {
			if lands < 8 {
				cards = append(cards, rules.Card{Handle: next(), Name: "Forest", IsLand: true, ManaProduced: [6]int{0, 0, 0, 0, 1, 0}, ColorG: true})
				lands++
			}
			if creatures < 4 {
				cards = append(cards, rules.Card{Handle: next(), Name: "Grizzly Bears", IsCreature: true, ConvertedCost: 2, Power: 2, Toughness: 2, ColorG: true})
				creatures++
			}
			if spells < 4 {
				cards = append(cards, rules.Card{Handle: next(), Name: "Giant Growth Spell", IsInstantSorcery: true, ConvertedCost: 1, Power: 3, ColorG: true})
				spells++
			}
		}
		return cards
	}
	return NewMatch(deck(), deck(), 7)
}

var _ rules.Game = (*Game)(nil)

// Snapshot implements rules.Game.
func (g *Game) Snapshot() rules.Game {
	c := &Game{
		turn: g.turn, phase: g.phase, stackDepth: g.stackDepth, turnPlayer: g.turnPlayer,
		over: g.over, outcome: g.outcome, nextHandle: g.nextHandle,
	}
	c.players[0] = g.players[0].clone()
	c.players[1] = g.players[1].clone()
	c.combat = g.combat.clone()
	return c
}

// ReverseMap implements rules.Game. Handles are stamped once and never
// renumbered across snapshots, so the identity map is correct as long as the
// handle still exists somewhere in the original.
func (g *Game) ReverseMap(copyHandle rules.CardHandle) (rules.CardHandle, bool) {
	for _, p := range g.players {
		for _, c := range p.battlefield {
			if c.Handle == copyHandle {
				return copyHandle, true
			}
		}
		for _, c := range p.hand {
			if c.Handle == copyHandle {
				return copyHandle, true
			}
		}
	}
	return 0, false
}

// CandidateActions implements rules.Game: one action per card in hand (a
// land play for lands, a damage spell for instants/sorceries, a cast for
// creatures), plus an attack declaration per eligible creature during the
// declare-attackers phase.
func (g *Game) CandidateActions(player rules.PlayerNum) []rules.Action {
	p := g.players[player]
	var actions []rules.Action
	for _, c := range p.hand {
		switch {
		case c.IsLand:
			actions = append(actions, rules.Action{
				Description: "play:" + c.Name, HostCardName: c.Name,
				Kind: rules.ApiKindLandPlay, IsLandPlay: true,
			})
		case c.IsInstantSorcery:
			actions = append(actions, rules.Action{
				Description: "cast:" + c.Name, HostCardName: c.Name, Kind: rules.ApiKindDamage,
			})
		default:
			actions = append(actions, rules.Action{
				Description: "cast:" + c.Name, HostCardName: c.Name, Kind: rules.ApiKindOther,
			})
		}
	}
	if g.phase == rules.PhaseDeclareAttackers {
		for _, c := range p.battlefield {
			if c.IsCreature && !c.Tapped && !c.SummoningSick {
				actions = append(actions, rules.Action{
					Description: "attack:" + c.Name, HostCardName: c.Name, Kind: rules.ApiKindOther,
				})
			}
		}
	}
	return actions
}

// AdvanceTo implements rules.Game. The fake's stack is always empty, so
// onStackEmpty fires exactly once, immediately.
func (g *Game) AdvanceTo(phase rules.Phase, onStackEmpty func()) {
	g.phase = phase
	if onStackEmpty != nil {
		onStackEmpty()
	}
}

// PlayAction implements rules.Game.
func (g *Game) PlayAction(player rules.PlayerNum, action rules.Action) bool {
	p := g.players[player]
	opp := g.players[player.Other()]

	idx := -1
	for i, c := range p.hand {
		if c.Name == action.HostCardName {
			idx = i
			break
		}
	}
	if idx == -1 && !action.IsLandPlay {
		return g.resolveAttack(player, action)
	}
	if idx == -1 {
		return false
	}
	card := p.hand[idx]

	switch {
	case action.IsLandPlay:
		p.hand = removeAt(p.hand, idx)
		card.Tapped = false
		p.battlefield = append(p.battlefield, card)
		p.untappedLands++
	case card.IsInstantSorcery:
		p.hand = removeAt(p.hand, idx)
		p.graveyard = append(p.graveyard, card)
		dmg := card.Power
		if dmg <= 0 {
			dmg = 1
		}
		opp.life -= dmg
	default:
		p.hand = removeAt(p.hand, idx)
		card.SummoningSick = true
		p.battlefield = append(p.battlefield, card)
	}

	g.checkWin()
	return true
}

func (g *Game) resolveAttack(player rules.PlayerNum, action rules.Action) bool {
	p := g.players[player]
	opp := g.players[player.Other()]
	for i, c := range p.battlefield {
		if c.Name == action.HostCardName && c.IsCreature && !c.Tapped {
			p.battlefield[i].Tapped = true
			opp.life -= c.Power
			g.checkWin()
			return true
		}
	}
	return false
}

func (g *Game) checkWin() {
	for num, p := range g.players {
		if p.life <= 0 {
			g.over = true
			g.outcome = rules.Outcome{WinningPlayer: rules.PlayerNum(num).Other(), WinConditionTag: rules.WinConditionDamage}
			return
		}
	}
}

func removeAt(cards []rules.Card, idx int) []rules.Card {
	out := make([]rules.Card, 0, len(cards)-1)
	out = append(out, cards[:idx]...)
	out = append(out, cards[idx+1:]...)
	return out
}

// Turn implements rules.Game.
func (g *Game) Turn() int { return g.turn }

// CurrentPhase implements rules.Game.
func (g *Game) CurrentPhase() rules.Phase { return g.phase }

// StackDepth implements rules.Game.
func (g *Game) StackDepth() int { return g.stackDepth }

// NextPlayer implements rules.Game: the player to act next, which is
// whoever's turn it currently is.
func (g *Game) NextPlayer() rules.PlayerNum { return g.turnPlayer }

// IsPlayerTurn implements rules.Game.
func (g *Game) IsPlayerTurn(p rules.PlayerNum) bool { return g.turnPlayer == p }

// Player implements rules.Game.
func (g *Game) Player(p rules.PlayerNum) rules.PlayerView {
	ps := g.players[p]
	return rules.PlayerView{
		Num: p, Life: ps.life, HandSize: len(ps.hand), LibrarySize: len(ps.library),
		GraveyardSize: len(ps.graveyard), PoisonCounters: ps.poison, UntappedLands: ps.untappedLands,
		Battlefield: append([]rules.Card(nil), ps.battlefield...),
		Hand:        append([]rules.Card(nil), ps.hand...),
	}
}

// Opponents implements rules.Game.
func (g *Game) Opponents(p rules.PlayerNum) []rules.PlayerNum {
	return []rules.PlayerNum{p.Other()}
}

// IsOver implements rules.Game.
func (g *Game) IsOver() bool { return g.over }

// Outcome implements rules.Game.
func (g *Game) Outcome() rules.Outcome { return g.outcome }

// CombatState implements rules.Game.
func (g *Game) CombatState() rules.Combat { return g.combat }

// EndTurn advances the turn counter and untaps the next player's permanents;
// not part of rules.Game, used directly by cmd/matchdemo to drive a match.
func (g *Game) EndTurn() {
	g.turn++
	g.turnPlayer = g.turnPlayer.Other()
	next := g.players[g.turnPlayer]
	for i := range next.battlefield {
		next.battlefield[i].Tapped = false
		next.battlefield[i].SummoningSick = false
	}
	if len(next.library) > 0 {
		next.hand = append(next.hand, next.library[0])
		next.library = next.library[1:]
	} else if len(next.hand) == 0 {
		g.over = true
		g.outcome = rules.Outcome{WinningPlayer: g.turnPlayer.Other(), WinConditionTag: rules.WinConditionDecking}
	}
	g.phase = rules.PhaseMain1
	g.combat.ClearAttackers()
}

// Combat is the fake's rules.Combat implementation: a flat attacker set and
// an attacker-to-blockers map.
type Combat struct {
	attackers map[rules.CardHandle]bool
	blockers  map[rules.CardHandle][]rules.CardHandle
}

var _ rules.Combat = (*Combat)(nil)

func (c *Combat) clone() *Combat {
	nc := &Combat{attackers: map[rules.CardHandle]bool{}, blockers: map[rules.CardHandle][]rules.CardHandle{}}
	for k, v := range c.attackers {
		nc.attackers[k] = v
	}
	for k, v := range c.blockers {
		nc.blockers[k] = append([]rules.CardHandle(nil), v...)
	}
	return nc
}

// CanAttack implements rules.Combat.
func (c *Combat) CanAttack(h rules.CardHandle) bool { return true }

// CanBlock implements rules.Combat.
func (c *Combat) CanBlock(attacker, blocker rules.CardHandle) bool { return true }

// ValidateAttackers implements rules.Combat.
func (c *Combat) ValidateAttackers(attackers []rules.CardHandle) error { return nil }

// AddAttacker implements rules.Combat.
func (c *Combat) AddAttacker(h rules.CardHandle) error {
	if c.attackers == nil {
		c.attackers = map[rules.CardHandle]bool{}
	}
	c.attackers[h] = true
	return nil
}

// AddBlocker implements rules.Combat.
func (c *Combat) AddBlocker(attacker, blocker rules.CardHandle) error {
	if c.blockers == nil {
		c.blockers = map[rules.CardHandle][]rules.CardHandle{}
	}
	c.blockers[attacker] = append(c.blockers[attacker], blocker)
	return nil
}

// ClearAttackers implements rules.Combat.
func (c *Combat) ClearAttackers() {
	c.attackers = map[rules.CardHandle]bool{}
	c.blockers = map[rules.CardHandle][]rules.CardHandle{}
}

// Defenders implements rules.Combat.
func (c *Combat) Defenders(attacker rules.CardHandle) []rules.CardHandle {
	return c.blockers[attacker]
}
