package bridge

import (
	"github.com/cardforge/ccgcore/internal/policy"
	"github.com/cardforge/ccgcore/internal/recorder"
	"github.com/cardforge/ccgcore/internal/rules"
)

// Mode names how much of the surrounding engine's decision surface the
// bridge takes over, per spec.md §4.6. Bridge stores the mode but none of
// its Choose methods read it: they behave the same in either mode.
type Mode int

const (
	// Hybrid overrides only the six atomic decision methods; everything
	// else stays with the heuristic controller.
	Hybrid Mode = iota
	// Full routes every discrete choice through the bridge, except the
	// informational/mana-payment/combat-damage/opening-hand/sideboard
	// calls that remain heuristic regardless of mode.
	Full
)

// OptionKind distinguishes how a row of the options matrix was built, for
// callers constructing the N-option list the bridge encodes.
type OptionKind int

const (
	OptionCard OptionKind = iota
	OptionAbility
	OptionEntity
	OptionBoolean
	OptionNumberRange
)

// Bridge resolves atomic choices that are not worth a tree search,
// delegating to an external policy after encoding state + options into the
// fixed-size feature tensor (spec.md §4.6).
type Bridge struct {
	Mode     Mode
	Policy   policy.Policy
	Recorder *recorder.Recorder
}

// New returns a Bridge in the given mode, using p to resolve choices.
// Recording is optional; pass nil to disable it.
func New(mode Mode, p policy.Policy, rec *recorder.Recorder) *Bridge {
	return &Bridge{Mode: mode, Policy: p, Recorder: rec}
}

// EncodedOptions is the bridge's N x 16 options matrix plus bookkeeping
// needed to resolve the chosen index back to a domain value.
type EncodedOptions struct {
	Rows      [][CardFeatureWidth]float32
	ValidCount int
}

// EncodeCardOptions builds the options matrix for a list of cards, clamped
// to MaxOptions (spec.md §4.6 "Safety clamps").
func EncodeCardOptions(cards []rules.Card) EncodedOptions {
	n := len(cards)
	if n > MaxOptions {
		n = MaxOptions
	}
	rows := make([][CardFeatureWidth]float32, n)
	for i := 0; i < n; i++ {
		rows[i] = CardFeatures(cards[i], true)
	}
	return EncodedOptions{Rows: rows, ValidCount: n}
}

// EncodeBooleanChoice returns the fixed 2x16 matrix for a yes/no choice:
// row 0 is [1,0,...], row 1 is [0,1,...] (spec.md §4.6, testable property
// "Boolean encoding").
func EncodeBooleanChoice() EncodedOptions {
	rows := make([][CardFeatureWidth]float32, 2)
	rows[0][0] = 1
	rows[1][1] = 1
	return EncodedOptions{Rows: rows, ValidCount: 2}
}

// EncodeNumberRange returns the encoding for choosing a number in [a, b]:
// row i (for value a+i) has present = i/(b-a), or 1 if a == b (spec.md
// §4.6, testable property "Number-range encoding").
func EncodeNumberRange(a, b int) EncodedOptions {
	if a == b {
		rows := make([][CardFeatureWidth]float32, 1)
		rows[0][0] = 1
		return EncodedOptions{Rows: rows, ValidCount: 1}
	}
	width := b - a
	n := width + 1
	rows := make([][CardFeatureWidth]float32, n)
	for i := 0; i < n; i++ {
		rows[i][0] = float32(i) / float32(width)
	}
	return EncodedOptions{Rows: rows, ValidCount: n}
}

// EncodeEntityOptions encodes a heterogeneous "choose one entity" list: if
// the entity is a card, use the card schema; otherwise present = (i+1)/N.
func EncodeEntityOptions(cards []rules.Card, isCard []bool) EncodedOptions {
	n := len(cards)
	if n > MaxOptions {
		n = MaxOptions
	}
	rows := make([][CardFeatureWidth]float32, n)
	for i := 0; i < n; i++ {
		if i < len(isCard) && isCard[i] {
			rows[i] = CardFeatures(cards[i], true)
		} else {
			rows[i][0] = float32(i+1) / float32(n)
		}
	}
	return EncodedOptions{Rows: rows, ValidCount: n}
}

// flatten assembles the full 1760-wide tensor from a state vector, decision
// kind, and an already-clamped options matrix, padding options to
// MaxOptions rows and building the legality mask (1 for i < validCount).
func flatten(state [StateWidth]float32, kind DecisionKind, opts EncodedOptions) [TensorWidth]float32 {
	var t [TensorWidth]float32
	copy(t[0:StateWidth], state[:])

	kindOffset := StateWidth
	if int(kind) >= 0 && int(kind) < DecisionKindWidth {
		t[kindOffset+int(kind)] = 1
	}

	optsOffset := StateWidth + DecisionKindWidth
	for i, row := range opts.Rows {
		if i >= MaxOptions {
			break
		}
		off := optsOffset + i*CardFeatureWidth
		copy(t[off:off+CardFeatureWidth], row[:])
	}

	maskOffset := optsOffset + OptionsWidth
	for i := 0; i < MaxOptions; i++ {
		if i < opts.ValidCount {
			t[maskOffset+i] = 1
		}
	}
	return t
}

// choose builds the tensor, delegates to the policy, clamps the result into
// [0, clampBound), and records the call if a Recorder is attached.
// clampBound is normally opts.ValidCount; callers that reserve a trailing
// "choose nothing" index (spec.md §8) pass opts.ValidCount+1 instead, so
// that reserved index survives the clamp and can be reported as "none"
// rather than being silently folded back into a real option.
func (b *Bridge) choose(game rules.Game, player rules.PlayerNum, kind DecisionKind, opts EncodedOptions, clampBound int) int {
	state := StateVector(game, player)
	idx := b.Policy.ChooseOption(state, int(kind), opts.Rows, clampBound)
	if idx < 0 {
		idx = 0
	}
	if clampBound > 0 && idx >= clampBound {
		idx = clampBound - 1
	}
	if b.Recorder != nil {
		b.Recorder.RecordDecision(recorder.DecisionRecord{
			Turn:         game.Turn(),
			Phase:        int(game.CurrentPhase()),
			DecisionKind: int(kind),
			State:        state,
			Options:      opts.Rows,
			NumOptions:   opts.ValidCount,
			ChosenIndex:  idx,
		})
	}
	return idx
}

// ChooseBoolean resolves a yes/no decision (e.g. mulligan keep).
func (b *Bridge) ChooseBoolean(game rules.Game, player rules.PlayerNum, kind DecisionKind) bool {
	opts := EncodeBooleanChoice()
	idx := b.choose(game, player, kind, opts, opts.ValidCount)
	return idx == 0
}

// ChooseNumber resolves a "choose a number in [min,max]" decision. Per
// spec.md §8's boundary behavior, min == max returns min without
// consulting the policy.
func (b *Bridge) ChooseNumber(game rules.Game, player rules.PlayerNum, min, max int) int {
	if min == max {
		return min
	}
	opts := EncodeNumberRange(min, max)
	idx := b.choose(game, player, DecisionNumber, opts, opts.ValidCount)
	return min + idx
}

// ChooseCardOption resolves a choice among a list of cards (spell
// selection, card-list picks). Returns the chosen index into cards. Only
// the first MaxOptions cards are encoded, so the index is always below
// MaxOptions.
func (b *Bridge) ChooseCardOption(game rules.Game, player rules.PlayerNum, kind DecisionKind, cards []rules.Card) int {
	opts := EncodeCardOptions(cards)
	return b.choose(game, player, kind, opts, opts.ValidCount)
}

// ChooseSingleEntity resolves "choose one entity" (optional). With exactly
// one option it returns it, unless isOptional, in which case the policy
// may still decline (signaled by returning the reserved "none" slot index,
// one past the real options) per spec.md §8. The clamp bound passed to
// choose is deliberately one wider than opts.ValidCount so that reserved
// index survives the clamp instead of being folded back into a real
// option.
func (b *Bridge) ChooseSingleEntity(game rules.Game, player rules.PlayerNum, cards []rules.Card, isCard []bool, isOptional bool) (int, bool) {
	if len(cards) == 1 && !isOptional {
		return 0, true
	}
	opts := EncodeEntityOptions(cards, isCard)
	if !isOptional {
		idx := b.choose(game, player, DecisionGeneric, opts, opts.ValidCount)
		return idx, true
	}

	noneIndex := opts.ValidCount
	if opts.ValidCount == MaxOptions {
		// The last slot is reserved for "choose nothing" (spec.md §4.6);
		// the 64th candidate becomes unreachable so the none index fits
		// within the fixed-width options matrix.
		opts.ValidCount--
		noneIndex = opts.ValidCount
	}
	idx := b.choose(game, player, DecisionGeneric, opts, noneIndex+1)
	if idx >= noneIndex {
		return 0, false
	}
	return idx, true
}
