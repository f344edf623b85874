package recorder

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyCreation(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file should be created before the first decision is recorded")

	r.RecordDecision(DecisionRecord{Turn: 1})
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the game's file is created lazily on first write")
}

func TestFileNaming(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	r.RecordDecision(DecisionRecord{Turn: 1})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.True(t, len(name) > len("game__.ndjson"))
	assert.Equal(t, "game_", name[:5], "file name must start with game_<UUID>_<epoch-ms>")
	assert.Equal(t, ".ndjson", filepath.Ext(name))
}

func TestRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	want := DecisionRecord{
		Turn:         3,
		Phase:        2,
		DecisionKind: 1,
		NumOptions:   2,
		ChosenIndex:  1,
	}
	want.Options = [][16]float32{{1}, {0, 1}}
	want.State[0] = 0.5
	r.RecordDecision(want)
	r.FinishGame(true, 10, "damage")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var got DecisionRecord
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
	assert.Equal(t, "decision", got.Type)
	assert.Equal(t, want.Turn, got.Turn)
	assert.Equal(t, want.State, got.State)
	assert.Equal(t, want.Options, got.Options)
	assert.Equal(t, want.ChosenIndex, got.ChosenIndex)

	require.True(t, scanner.Scan())
	var outcome map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &outcome))
	assert.Equal(t, "outcome", outcome["type"])
	assert.Equal(t, float64(1.0), outcome["result"])
	assert.Equal(t, float64(10), outcome["turns"])
	assert.Equal(t, "damage", outcome["reason"])

	assert.False(t, scanner.Scan(), "outcome record must be the last line")
}

func TestWritesDroppedAfterFinish(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	r.RecordDecision(DecisionRecord{Turn: 1})
	r.FinishGame(false, 5, "max_turns")

	// Further writes must be silently dropped, never panic or reopen the file.
	assert.NotPanics(t, func() {
		r.RecordDecision(DecisionRecord{Turn: 2})
		r.FinishGame(true, 99, "should-be-ignored")
	})
}

func TestScratchControllerNeverOpensFile(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	r.FinishGame(false, 0, "")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "finishing a game that never recorded a decision must not create a file")
}
