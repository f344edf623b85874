// Package bridge implements the DecisionBridge: it encodes game state and
// discrete choices into a fixed-size feature tensor and delegates the
// actual choice to an external policy (spec.md §4.6).
package bridge

import (
	"github.com/cardforge/ccgcore/internal/rules"
)

// Layout widths, fixed per spec.md §4.6 and §3.
const (
	StateWidth       = 664
	DecisionKindWidth = 8
	MaxOptions       = 64
	CardFeatureWidth = 16
	OptionsWidth     = MaxOptions * CardFeatureWidth
	TensorWidth      = StateWidth + DecisionKindWidth + OptionsWidth + MaxOptions

	globalBlockWidth     = 24
	myBattlefieldOffset  = 24
	myBattlefieldWidth   = 256
	oppBattlefieldOffset = 280
	oppBattlefieldWidth  = 256
	myHandOffset         = 536
	myHandWidth          = 128

	battlefieldSlots = 16
	handSlots        = 8
	numPhases        = 13
)

// DecisionKind enumerates the one-hot decision kinds the bridge encodes,
// per the GLOSSARY entry in spec.md.
type DecisionKind int

const (
	DecisionSpellSelection DecisionKind = iota
	DecisionMulligan
	DecisionAttack
	DecisionBlock
	DecisionCardChoice
	DecisionBoolean
	DecisionNumber
	DecisionGeneric
	numDecisionKinds
)

// CardFeatures returns the 16-wide card-feature schema for c:
// [present, CMC/10, power/20, toughness/20, isCreature, isLand,
// isInstantOrSorcery, isEnchantment, isArtifact, colorW, colorU, colorB,
// colorR, colorG, tapped, sick]. A zero Card (present=false) yields all
// zeros.
func CardFeatures(c rules.Card, present bool) [CardFeatureWidth]float32 {
	var f [CardFeatureWidth]float32
	if !present {
		return f
	}
	power, toughness := float32(0), float32(0)
	if c.IsCreature {
		power = float32(c.Power) / 20
		toughness = float32(c.Toughness) / 20
	}
	f[0] = 1
	f[1] = float32(c.ConvertedCost) / 10
	f[2] = power
	f[3] = toughness
	f[4] = boolF(c.IsCreature)
	f[5] = boolF(c.IsLand)
	f[6] = boolF(c.IsInstantSorcery)
	f[7] = boolF(c.IsEnchantment)
	f[8] = boolF(c.IsArtifact)
	f[9] = boolF(c.ColorW)
	f[10] = boolF(c.ColorU)
	f[11] = boolF(c.ColorB)
	f[12] = boolF(c.ColorR)
	f[13] = boolF(c.ColorG)
	f[14] = boolF(c.Tapped)
	f[15] = boolF(c.SummoningSick)
	return f
}

func boolF(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// StateVector builds the 664-float state block from (player, game)
// (spec.md §4.6).
func StateVector(game rules.Game, player rules.PlayerNum) [StateWidth]float32 {
	var v [StateWidth]float32

	me := game.Player(player)
	opps := game.Opponents(player)
	var avgOppLife, avgOppHand, avgOppGrave, avgOppLib float32
	if len(opps) > 0 {
		var life, hand, grave, lib int
		for _, opp := range opps {
			pv := game.Player(opp)
			life += pv.Life
			hand += pv.HandSize
			grave += pv.GraveyardSize
			lib += pv.LibrarySize
		}
		n := float32(len(opps))
		avgOppLife, avgOppHand, avgOppGrave, avgOppLib = float32(life)/n, float32(hand)/n, float32(grave)/n, float32(lib)/n
	}

	v[0] = float32(me.Life) / 20
	v[1] = avgOppLife / 20
	v[2] = float32(me.HandSize) / 7
	v[3] = avgOppHand / 7
	v[4] = float32(me.GraveyardSize) / 20
	v[5] = avgOppGrave / 20
	v[6] = float32(me.LibrarySize) / 60
	v[7] = avgOppLib / 60
	v[8] = capAt1(float32(game.Turn()) / 20)
	v[9] = boolF(game.IsPlayerTurn(player))

	phase := int(game.CurrentPhase())
	if phase >= 0 && phase < numPhases {
		v[10+phase] = 1
	}
	v[23] = float32(me.UntappedLands) / 10

	writeBattlefield(v[myBattlefieldOffset:myBattlefieldOffset+myBattlefieldWidth], me.Battlefield)
	if len(opps) > 0 {
		// Only the first opponent's battlefield is encoded; two-player
		// matches are the only case spec.md's state layout needs to cover.
		writeBattlefield(v[oppBattlefieldOffset:oppBattlefieldOffset+oppBattlefieldWidth], game.Player(opps[0]).Battlefield)
	}
	writeHand(v[myHandOffset:myHandOffset+myHandWidth], me.Hand)

	return v
}

func capAt1(x float32) float32 {
	if x > 1 {
		return 1
	}
	return x
}

// writeBattlefield fills a 256-wide slot block: 16 slots x 16 features,
// sorted creatures-first then by converted cost descending; overflow
// discarded.
func writeBattlefield(dst []float32, cards []rules.Card) {
	sorted := sortedBattlefield(cards)
	for slot := 0; slot < battlefieldSlots; slot++ {
		off := slot * CardFeatureWidth
		if slot < len(sorted) {
			f := CardFeatures(sorted[slot], true)
			copy(dst[off:off+CardFeatureWidth], f[:])
		}
	}
}

// writeHand fills an 8-wide slot block: 8 slots x 16 features.
func writeHand(dst []float32, cards []rules.Card) {
	for slot := 0; slot < handSlots; slot++ {
		off := slot * CardFeatureWidth
		if slot < len(cards) {
			f := CardFeatures(cards[slot], true)
			copy(dst[off:off+CardFeatureWidth], f[:])
		}
	}
}

func sortedBattlefield(cards []rules.Card) []rules.Card {
	out := make([]rules.Card, len(cards))
	copy(out, cards)
	// Simple stable insertion sort: creatures first, then by CMC descending.
	// The battlefield is small (well under MaxOptions) so this is cheap and
	// keeps the ordering easy to audit against the spec.
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && less(out[j], out[j-1]) {
			out[j], out[j-1] = out[j-1], out[j]
			j--
		}
	}
	return out
}

func less(a, b rules.Card) bool {
	if a.IsCreature != b.IsCreature {
		return a.IsCreature
	}
	return a.ConvertedCost > b.ConvertedCost
}
