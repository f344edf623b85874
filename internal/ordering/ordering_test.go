package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardforge/ccgcore/internal/rules"
)

func TestKillerMoveIsOrderedFirst(t *testing.T) {
	o := New()
	actions := []rules.Action{
		{Description: "a", HostCardName: "Alpha", Kind: rules.ApiKindOther},
		{Description: "b", HostCardName: "Beta", Kind: rules.ApiKindOther},
	}
	o.RecordKillerMove(actions[1], 3)

	order := o.OrderMoves(actions, 3)
	assert.Equal(t, 1, order[0], "the recorded killer move should sort first")
}

func TestKillerMovesCapAtTwoPerDepth(t *testing.T) {
	o := New()
	a := rules.Action{Description: "a", HostCardName: "A"}
	b := rules.Action{Description: "b", HostCardName: "B"}
	c := rules.Action{Description: "c", HostCardName: "C"}

	o.RecordKillerMove(a, 1)
	o.RecordKillerMove(b, 1)
	o.RecordKillerMove(c, 1)

	assert.LessOrEqual(t, len(o.killerMoves[1]), maxKillersPerDepth)
}

func TestHistoryTableBiasesActionAheadOfLandPlayAfterRepeatedSuccess(t *testing.T) {
	o := New()
	land := rules.Action{Description: "play:Forest", HostCardName: "Forest", Kind: rules.ApiKindLandPlay, IsLandPlay: true}
	other := rules.Action{Description: "cast:Spell", HostCardName: "Spell", Kind: rules.ApiKindOther}

	for i := 0; i < 5; i++ {
		o.UpdateHistory(other, 4)
	}
	order := o.OrderMoves([]rules.Action{land, other}, 4)
	assert.Equal(t, 1, order[0], "history-boosted action should now sort ahead of the untouched land play")
}

func TestClearResetsKillersButNotHistory(t *testing.T) {
	o := New()
	a := rules.Action{Description: "a", HostCardName: "A"}
	o.RecordKillerMove(a, 2)
	o.UpdateHistory(a, 2)

	o.Clear()
	assert.Empty(t, o.killerMoves)
	assert.NotEmpty(t, o.historyTable)
}
