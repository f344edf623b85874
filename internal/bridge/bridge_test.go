package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardforge/ccgcore/internal/rules"
	"github.com/cardforge/ccgcore/internal/rules/rulestest"
)

func TestBooleanEncodingExactValues(t *testing.T) {
	opts := EncodeBooleanChoice()
	require.Equal(t, 2, opts.ValidCount)
	assert.Equal(t, float32(1), opts.Rows[0][0])
	assert.Equal(t, float32(0), opts.Rows[0][1])
	assert.Equal(t, float32(1), opts.Rows[1][1])
	assert.Equal(t, float32(0), opts.Rows[1][0])
}

func TestNumberRangeEncodingExactValues(t *testing.T) {
	single := EncodeNumberRange(3, 3)
	require.Equal(t, 1, single.ValidCount)
	assert.Equal(t, float32(1), single.Rows[0][0])

	ranged := EncodeNumberRange(0, 4)
	require.Equal(t, 5, ranged.ValidCount)
	assert.Equal(t, float32(0), ranged.Rows[0][0])
	assert.Equal(t, float32(0.5), ranged.Rows[2][0])
	assert.Equal(t, float32(1), ranged.Rows[4][0])
}

func TestCardOptionsClampToMaxOptions(t *testing.T) {
	cards := make([]rules.Card, MaxOptions+10)
	for i := range cards {
		cards[i] = rules.Card{Name: "filler", ConvertedCost: i}
	}
	opts := EncodeCardOptions(cards)
	assert.Equal(t, MaxOptions, opts.ValidCount)
	assert.Len(t, opts.Rows, MaxOptions)
}

func TestFlattenLegalityMask(t *testing.T) {
	var state [StateWidth]float32
	opts := EncodeNumberRange(0, 3)
	tensor := flatten(state, DecisionNumber, opts)

	maskOffset := StateWidth + DecisionKindWidth + OptionsWidth
	for i := 0; i < MaxOptions; i++ {
		want := float32(0)
		if i < opts.ValidCount {
			want = 1
		}
		assert.Equalf(t, want, tensor[maskOffset+i], "mask bit %d", i)
	}
	assert.Equal(t, float32(1), tensor[StateWidth+int(DecisionNumber)])
}

func TestChooseNumberSkipsPolicyWhenMinEqualsMax(t *testing.T) {
	b := New(Hybrid, fixedPolicy{idx: 99}, nil)
	got := b.ChooseNumber(nil, rules.PlayerA, 5, 5)
	assert.Equal(t, 5, got, "min==max must short-circuit without consulting the policy")
}

func TestChooseSingleEntitySingleOptionShortcut(t *testing.T) {
	b := New(Hybrid, fixedPolicy{idx: 99}, nil)
	idx, ok := b.ChooseSingleEntity(nil, rules.PlayerA, []rules.Card{{Name: "Only"}}, []bool{true}, false)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestChooseSingleEntityOptionalNoneIsReachable(t *testing.T) {
	game := rulestest.NewSimpleMatch()
	cards := []rules.Card{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	isCard := []bool{true, true, true}

	// The policy picks index == len(cards), the reserved "none" slot;
	// the bridge must surface that as ok=false rather than clamping it
	// back down into a real option (spec.md §8).
	b := New(Hybrid, fixedPolicy{idx: len(cards)}, nil)
	idx, ok := b.ChooseSingleEntity(game, rules.PlayerA, cards, isCard, true)
	assert.False(t, ok, "policy choosing the reserved none index must be reported as no choice")
	assert.Equal(t, 0, idx)
}

func TestChooseSingleEntityOptionalValidIndexStillWorks(t *testing.T) {
	game := rulestest.NewSimpleMatch()
	cards := []rules.Card{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	isCard := []bool{true, true, true}

	b := New(Hybrid, fixedPolicy{idx: 1}, nil)
	idx, ok := b.ChooseSingleEntity(game, rules.PlayerA, cards, isCard, true)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestChooseSingleEntityOptionalAtMaxOptionsReservesLastSlot(t *testing.T) {
	game := rulestest.NewSimpleMatch()
	cards := make([]rules.Card, MaxOptions)
	isCard := make([]bool, MaxOptions)
	for i := range cards {
		cards[i] = rules.Card{Name: "filler", ConvertedCost: i}
		isCard[i] = true
	}

	// With exactly MaxOptions candidates the none slot must displace the
	// last one (spec.md §4.6 "Safety clamps"); the policy picking that
	// reserved index (MaxOptions-1) must report no choice.
	b := New(Hybrid, fixedPolicy{idx: MaxOptions - 1}, nil)
	idx, ok := b.ChooseSingleEntity(game, rules.PlayerA, cards, isCard, true)
	assert.False(t, ok, "reserved none index at the MaxOptions boundary must be reachable")
	assert.Equal(t, 0, idx)
}

// fixedPolicy always returns the configured index, to prove a shortcut path
// never calls into the policy at all (a policy returning an out-of-range
// index would otherwise get clamped and falsely look correct).
type fixedPolicy struct{ idx int }

func (f fixedPolicy) ChooseOption(_ [StateWidth]float32, _ int, _ [][CardFeatureWidth]float32, _ int) int {
	return f.idx
}
