package policy

import (
	"sync"

	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/context/checkpoints"
	"github.com/gomlx/gomlx/ml/layers/activations"
	"github.com/gomlx/gomlx/ml/layers/fnn"
	"github.com/gomlx/gomlx/types/dtypes"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Tensor layout, duplicated from internal/bridge rather than imported: bridge
// depends on this package for the Policy interface, so importing bridge here
// would cycle. These must stay in lockstep with bridge's StateWidth,
// DecisionKindWidth, MaxOptions, CardFeatureWidth and TensorWidth.
const (
	stateWidth        = 664
	decisionKindWidth = 8
	maxOptions        = 64
	cardFeatureWidth  = 16
	optionsWidth      = maxOptions * cardFeatureWidth
	tensorWidth       = stateWidth + decisionKindWidth + optionsWidth + maxOptions
)

var backend = sync.OnceValue(func() backends.Backend { return backends.New() })

// session bundles the inference state for one loaded checkpoint: the
// parameter context and the compiled executor built over it. A hot-reload
// replaces the whole session atomically so no in-flight inference ever sees
// a half-swapped context/executor pair.
type session struct {
	ctx        *context.Context
	exec       *context.Exec
	checkpoint *checkpoints.Handler
}

func newSession(dir string) (*session, error) {
	s := &session{ctx: createContext()}

	if dir != "" {
		checkpoint, err := checkpoints.Build(s.ctx).Immediate().Keep(10).Dir(dir).Done()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build checkpoint at %s", dir)
		}
		s.checkpoint = checkpoint
	}

	_ = backend()
	s.exec = context.NewExec(backend(), s.ctx, func(ctx *context.Context, inputs []*graph.Node) *graph.Node {
		ctx = ctx.Checked(false)
		return forwardGraph(ctx, inputs[0])
	})
	return s, nil
}

func (s *session) forward(tensor [tensorWidth]float32) []float32 {
	input := tensors.FromShape(shapes.Make(dtypes.Float32, 1, tensorWidth))
	tensors.MutableFlatData(input, func(flat []float32) {
		copy(flat, tensor[:])
	})
	out := s.exec.Call(input)[0]
	return out.Value().([][]float32)[0]
}

// Model is the NN-backed Policy: a small feed-forward network over the
// 1760-wide decision tensor, producing one logit per option slot. It mirrors
// the board scorer's checkpoint/executor wiring, but scores option logits
// instead of a single board value.
type Model struct {
	// muLearning guards swapping the active session out from under a live
	// ChooseOption call, the same role BoardScorer.muLearning plays. Reload
	// builds the replacement session before taking the lock, so the swap
	// itself is the only section held under the write lock (spec.md §4.6
	// "a new session is constructed before the old one is closed; swap is
	// atomic under a lock").
	muLearning sync.RWMutex
	sess       *session
}

// NewModel creates (or loads, if dir is non-empty and already populated) a
// Model policy checkpointed at dir. An empty dir means the model is
// in-memory only and never persisted.
func NewModel(dir string) (*Model, error) {
	sess, err := newSession(dir)
	if err != nil {
		return nil, err
	}
	m := &Model{sess: sess}

	// Force variable creation now, outside of any ChooseOption call.
	var warm [tensorWidth]float32
	_ = m.forward(warm)

	return m, nil
}

// Reload hot-swaps the active session for one checkpointed at dir. The new
// session is fully constructed (and warmed up) before the swap, so a
// concurrent ChooseOption call either runs entirely against the old session
// or entirely against the new one, never a mix. A failed Reload leaves the
// previous session in place (spec.md §7 "Hot-reload failures leave the
// previous session in place").
func (m *Model) Reload(dir string) error {
	next, err := newSession(dir)
	if err != nil {
		return errors.Wrapf(err, "policy: hot-reload from %s failed", dir)
	}
	var warm [tensorWidth]float32
	_ = next.forward(warm)

	m.muLearning.Lock()
	m.sess = next
	m.muLearning.Unlock()

	klog.V(1).Infof("policy: hot-swapped model from %s", dir)
	return nil
}

// createContext sets the default hyperparameters for the policy network:
// one hidden layer, sigmoid activations, mirroring the board scorer's FNN.
func createContext() *context.Context {
	ctx := context.New()
	ctx.RngStateReset()
	ctx.SetParams(map[string]any{
		fnn.ParamNumHiddenLayers:    1,
		fnn.ParamNumHiddenNodes:     64,
		fnn.ParamResidual:          false,
		activations.ParamActivation: "sigmoid",
	})
	return ctx
}

// forwardGraph builds the policy network: input -> hidden FNN layer ->
// maxOptions logits, one per option slot.
func forwardGraph(ctx *context.Context, input *graph.Node) *graph.Node {
	return fnn.New(ctx, input, maxOptions).Done()
}

// forward runs the network on one tensor against the currently active
// session, returning maxOptions logits.
func (m *Model) forward(tensor [tensorWidth]float32) []float32 {
	m.muLearning.RLock()
	sess := m.sess
	m.muLearning.RUnlock()
	return sess.forward(tensor)
}

// Save persists the active session's checkpoint, if one was configured. No-op otherwise.
func (m *Model) Save() error {
	m.muLearning.RLock()
	sess := m.sess
	m.muLearning.RUnlock()
	if sess.checkpoint == nil {
		klog.Warning("policy: Model has no checkpoint directory, not saving")
		return nil
	}
	return sess.checkpoint.Save()
}

// flatten assembles the tensor locally, mirroring bridge.flatten exactly
// (state block, one-hot decision kind, option rows, legality mask).
func flatten(state [stateWidth]float32, decisionKind int, options [][cardFeatureWidth]float32, validCount int) [tensorWidth]float32 {
	var t [tensorWidth]float32
	copy(t[0:stateWidth], state[:])

	kindOffset := stateWidth
	if decisionKind >= 0 && decisionKind < decisionKindWidth {
		t[kindOffset+decisionKind] = 1
	}

	optsOffset := stateWidth + decisionKindWidth
	for i, row := range options {
		if i >= maxOptions {
			break
		}
		off := optsOffset + i*cardFeatureWidth
		copy(t[off:off+cardFeatureWidth], row[:])
	}

	maskOffset := optsOffset + optionsWidth
	for i := 0; i < maxOptions; i++ {
		if i < validCount {
			t[maskOffset+i] = 1
		}
	}
	return t
}

// ChooseOption implements Policy: it flattens (state, decisionKind, options)
// into the fixed tensor, runs the forward pass, masks out slots >=
// validCount, and returns the argmax legal index.
func (m *Model) ChooseOption(state [stateWidth]float32, decisionKind int, options [][cardFeatureWidth]float32, validCount int) int {
	if validCount <= 0 {
		return 0
	}
	tensor := flatten(state, decisionKind, options, validCount)
	logits := m.forward(tensor)

	best := 0
	var bestLogit float32 = -1e30
	for i := 0; i < validCount && i < len(logits); i++ {
		if logits[i] > bestLogit {
			bestLogit = logits[i]
			best = i
		}
	}
	return best
}

var _ Policy = (*Model)(nil)
