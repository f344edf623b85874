// Package rules declares the boundary between the decision core and the
// rules engine. The rules engine itself (card rules, phase/priority
// machinery, stack resolution) lives outside this module; this package only
// names the operations the core needs from it.
package rules

// PlayerNum identifies one of the two seats in a match.
type PlayerNum int

const (
	PlayerA PlayerNum = 0
	PlayerB PlayerNum = 1
)

// Other returns the opposing seat.
func (p PlayerNum) Other() PlayerNum {
	if p == PlayerA {
		return PlayerB
	}
	return PlayerA
}

// Phase enumerates the priority-window phases the evaluator and feature
// encoder one-hot over. Order matches the 13-wide phase block in the state
// vector (§4.6).
type Phase int

const (
	PhaseUntap Phase = iota
	PhaseUpkeep
	PhaseDraw
	PhaseMain1
	PhaseBeginCombat
	PhaseDeclareAttackers
	PhaseDeclareBlockers
	PhaseCombatDamage
	PhaseEndCombat
	PhaseMain2
	PhaseEnd
	PhaseCleanup
	PhaseOther
	NumPhases
)

// WinCondition names how a match ended, for outcome bookkeeping.
type WinCondition string

const (
	WinConditionDamage    WinCondition = "damage"
	WinConditionDecking   WinCondition = "decking"
	WinConditionPoison    WinCondition = "poison"
	WinConditionMill      WinCondition = "mill"
	WinConditionConcede   WinCondition = "concede"
	WinConditionAlternate WinCondition = "alternate"
)

// Outcome reports the terminal state of a Game, once IsOver is true.
type Outcome struct {
	IsDraw          bool
	WinningTeam     int
	WinningPlayer   PlayerNum
	WinConditionTag WinCondition
}

// ApiKind enumerates the static-priority bucket an Action falls into. Used
// by the MoveOrderer's staticPriority and as half of Action.Key.
type ApiKind int

const (
	ApiKindOther ApiKind = iota
	ApiKindDestroy
	ApiKindDraw
	ApiKindDamage
	ApiKindToken
	ApiKindMana
	ApiKindCounter
	ApiKindLandPlay
)

// Zone names a card collection a player owns.
type Zone int

const (
	ZoneBattlefield Zone = iota
	ZoneHand
	ZoneGraveyard
	ZoneLibrary
	ZoneExile
	ZoneStack
)

// CardHandle is a stable reference to a Card entity across Game copies.
// Implementations stamp an integer id on creation and preserve it across
// Snapshot; the core never dereferences it directly, it only passes it back
// through the interfaces below.
type CardHandle int

// Card is the 16-feature projection of an entity the evaluator and the
// feature encoder operate on. Values mirror the card-feature schema in
// spec.md §4.6.
type Card struct {
	Handle            CardHandle
	Name              string
	ConvertedCost     int
	Power             int
	Toughness         int
	IsCreature        bool
	IsLand            bool
	IsInstantSorcery  bool
	IsEnchantment     bool
	IsArtifact        bool
	IsPlaneswalker    bool
	ColorW, ColorU    bool
	ColorB, ColorR    bool
	ColorG            bool
	Tapped            bool
	SummoningSick     bool
	Loyalty           int
	ManaProduced      [6]int // WUBRG + colorless, max producible per symbol
	DistinctColors    int
	NonManaAbilities  int // count of non-mana activated abilities
	StaticAbilities   int
	Keywords          CardKeywords
}

// CardKeywords tracks the evasion/defensive keywords the evaluator's
// blocker-availability and threat-sizing heuristics read.
type CardKeywords struct {
	Flying, Horsemanship bool
	Shadow, Fear         bool
	Intimidate           bool
	Deathtouch           bool
}

// PlayerView is the subset of player state the evaluator and the feature
// encoder's global block consume.
type PlayerView struct {
	Num              PlayerNum
	Life             int
	HandSize         int
	LibrarySize      int
	GraveyardSize    int
	PoisonCounters   int
	UntappedLands    int
	Battlefield      []Card
	Hand             []Card
}

// Action is a candidate move. The core treats it as opaque except for the
// fields below (spec.md §3, "Action (SpellAbility)").
type Action struct {
	// Description is a textual identifier, stable within a Game, used for
	// ActionRef resolution.
	Description string
	// HostCardName names the card this action originates from, if any; it
	// is half of the MoveOrderer history key (see Key).
	HostCardName string
	Kind         ApiKind
	IsLandPlay   bool
	IsPass       bool // synthetic PASS pseudo-action, added by MCTS expansion
}

// Key returns the stable MoveOrderer history-table key: cardName + ":" +
// apiKind, per spec.md §4.3 (object identity does not survive game copies).
func (a Action) Key() string {
	return a.HostCardName + ":" + apiKindName(a.Kind)
}

func apiKindName(k ApiKind) string {
	switch k {
	case ApiKindDestroy:
		return "destroy"
	case ApiKindDraw:
		return "draw"
	case ApiKindDamage:
		return "damage"
	case ApiKindToken:
		return "token"
	case ApiKindMana:
		return "mana"
	case ApiKindCounter:
		return "counter"
	case ApiKindLandPlay:
		return "landplay"
	default:
		return "other"
	}
}

// ActionRef is a serializable handle used to re-identify an Action across
// Game copies (spec.md §3). candidateIndex is a hint only; the lookup
// policy in Resolve is authoritative.
type ActionRef struct {
	CandidateIndex int
	Description    string
	HostCardName   string
}

// Resolve implements the ActionRef lookup policy: try candidateIndex first
// if the candidate there matches Description; otherwise fall back to the
// first candidate whose Description matches; otherwise report not found.
func (r ActionRef) Resolve(candidates []Action) (Action, int, bool) {
	if r.CandidateIndex >= 0 && r.CandidateIndex < len(candidates) {
		if candidates[r.CandidateIndex].Description == r.Description {
			return candidates[r.CandidateIndex], r.CandidateIndex, true
		}
	}
	for idx, a := range candidates {
		if a.Description == r.Description {
			return a, idx, true
		}
	}
	return Action{}, -1, false
}

// RefOf builds an ActionRef for an action found at index idx in a candidate
// list, for later re-resolution against a Game copy.
func RefOf(a Action, idx int) ActionRef {
	return ActionRef{CandidateIndex: idx, Description: a.Description, HostCardName: a.HostCardName}
}

// Combat is the per-turn attacker/blocker assignment the rules engine
// tracks; the core only reads and mutates it through these operations.
type Combat interface {
	CanAttack(c CardHandle) bool
	CanBlock(attacker, blocker CardHandle) bool
	ValidateAttackers(attackers []CardHandle) error
	AddAttacker(c CardHandle) error
	AddBlocker(attacker, blocker CardHandle) error
	ClearAttackers()
	Defenders(attacker CardHandle) []CardHandle
}

// Game is the opaque match-state value the core consumes. The core never
// mutates it directly, only through these operations (spec.md §6).
type Game interface {
	// Snapshot produces an independent deep copy; mutating the copy must
	// never affect the receiver.
	Snapshot() Game

	// ReverseMap returns, for a CardHandle valid in a copy produced by
	// Snapshot, the corresponding handle in this (the original) Game, or
	// false if it has no antecedent (e.g. a token created after the copy).
	ReverseMap(copyHandle CardHandle) (CardHandle, bool)

	// CandidateActions lists legal spell/ability activations in the
	// current priority window for player.
	CandidateActions(player PlayerNum) []Action

	// AdvanceTo deterministically fast-forwards to phase, invoking
	// onStackEmpty whenever the stack empties along the way.
	AdvanceTo(phase Phase, onStackEmpty func())

	// PlayAction applies action on behalf of player and resolves the
	// stack. Returns false if the action failed (stale ActionRef, illegal
	// at this point).
	PlayAction(player PlayerNum, action Action) bool

	// Turn, CurrentPhase and StackDepth participate in the state hash
	// (spec.md §4.2) and the feature encoding (spec.md §4.6).
	Turn() int
	CurrentPhase() Phase
	StackDepth() int
	NextPlayer() PlayerNum
	IsPlayerTurn(p PlayerNum) bool

	// Player returns the view of p's public state.
	Player(p PlayerNum) PlayerView
	Opponents(p PlayerNum) []PlayerNum

	// IsOver and Outcome report terminal status.
	IsOver() bool
	Outcome() Outcome

	// CombatState exposes the current Combat value, valid during the
	// combat phases.
	CombatState() Combat
}

// RolloutPolicy picks a candidate action for MCTS's shallow playout
// (spec.md §4.5 step 3): "for each side in turn, pick the first land-play
// available, else the candidate with the highest CMC."
func RolloutPolicy(candidates []Action, hostLookup func(name string) Card) Action {
	for _, a := range candidates {
		if a.IsLandPlay {
			return a
		}
	}
	best := -1
	bestCMC := -1
	for idx, a := range candidates {
		cmc := 0
		if hostLookup != nil {
			cmc = hostLookup(a.HostCardName).ConvertedCost
		}
		if cmc > bestCMC {
			bestCMC = cmc
			best = idx
		}
	}
	if best < 0 {
		return candidates[0]
	}
	return candidates[best]
}
