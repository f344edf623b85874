// Package recorder implements the training-data recorder the DecisionBridge
// optionally writes to (spec.md §4.6, §4.7): one newline-delimited JSON file
// per game, named lazily on first write so games that never reach a recorded
// decision don't leave an empty file behind.
package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// DecisionRecord is one line of the recorded game log: the bridge's state
// and options encoding plus the index the policy chose. Field names and the
// "type" discriminator match spec.md §6's wire format bit-exactly, since
// external policies consume these files directly.
type DecisionRecord struct {
	Type         string        `json:"type"`
	Turn         int           `json:"turn"`
	Phase        int           `json:"phase"`
	DecisionKind int           `json:"decisionType"`
	State        [664]float32  `json:"state"`
	Options      [][16]float32 `json:"options"`
	NumOptions   int           `json:"numOptions"`
	ChosenIndex  int           `json:"chosenIndex"`
}

// outcomeRecord closes out a game's log with its final result. Always the
// last line written (spec.md §6 "Outcome record (always last)").
type outcomeRecord struct {
	Type   string  `json:"type"`
	Result float32 `json:"result"`
	Turns  int     `json:"turns"`
	Reason string  `json:"reason"`
}

// Recorder lazily creates one file per game under Dir and appends
// newline-delimited JSON records to it. Safe for concurrent use by a single
// game's decision-making goroutines; a Recorder is not meant to be shared
// across games.
type Recorder struct {
	Dir string

	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	closed bool
}

// New returns a Recorder that will lazily create files under dir.
func New(dir string) *Recorder {
	return &Recorder{Dir: dir}
}

// RecordDecision appends one decision record, creating the game's file on
// first use. IO errors are logged and otherwise swallowed: a failed write
// must never abort the match it is observing (spec.md §7).
func (r *Recorder) RecordDecision(rec DecisionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.file == nil {
		if err := r.open(); err != nil {
			klog.Warningf("recorder: failed to create game log: %v", err)
			r.closed = true
			return
		}
	}
	rec.Type = "decision"
	if err := r.enc.Encode(rec); err != nil {
		klog.Warningf("recorder: failed to write decision record: %v", err)
	}
}

// FinishGame appends the game's outcome record and closes the file. Once
// called, further RecordDecision calls are silently dropped. result is
// 1.0 for a win, 0.0 otherwise, per spec.md §6's outcome record.
func (r *Recorder) FinishGame(won bool, turns int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.file != nil {
		result := float32(0.0)
		if won {
			result = 1.0
		}
		if err := r.enc.Encode(outcomeRecord{Type: "outcome", Result: result, Turns: turns, Reason: reason}); err != nil {
			klog.Warningf("recorder: failed to write outcome record: %v", err)
		}
		if err := r.file.Close(); err != nil {
			klog.Warningf("recorder: failed to close game log: %v", err)
		}
	}
	r.closed = true
}

// open creates the per-game file, named game_<UUID>_<epoch-ms>.<ext> per
// spec.md §4.7.
func (r *Recorder) open() error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("game_%s_%d.ndjson", uuid.NewString(), time.Now().UnixMilli())
	f, err := os.Create(filepath.Join(r.Dir, name))
	if err != nil {
		return err
	}
	r.file = f
	r.enc = json.NewEncoder(f)
	return nil
}
