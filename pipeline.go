package liquidglass

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a Pipeline.
type State int32

const (
	// StateUninitialized is the state before Init succeeds.
	StateUninitialized State = iota

	// StateReady means resources are live and frames can be processed.
	StateReady

	// StateDisposed means resources were released; the instance is
	// permanently out of service.
	StateDisposed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Pipeline owns the rendering resources for the liquid-glass effect and
// exposes the frame-processing operations. Construct one with New,
// initialize it with Init, and release it with Dispose. Instances are
// independent; multiple pipelines can coexist in one process.
//
// Thread safety: all methods are safe for concurrent use. At most one
// frame is in flight per instance: ProcessFrame blocks until the slot
// is free, ProcessFrameAsync rejects with ErrBusy instead.
type Pipeline struct {
	cfg config

	// initMu serializes Init and Dispose.
	initMu sync.Mutex

	// renderMu is the single in-flight frame slot.
	renderMu sync.Mutex

	state      atomic.Int32
	params     atomic.Pointer[Params]
	continuous atomic.Bool

	renderer Renderer
}

// New constructs a pipeline with default parameters. No GPU work
// happens until Init.
func New(opts ...Option) *Pipeline {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Pipeline{cfg: cfg}
	defaults := DefaultParams()
	p.params.Store(&defaults)
	return p
}

// Init acquires the rendering backend and compiles the distortion
// pipeline. Idempotent: calling Init on a ready pipeline is a no-op.
// On failure the pipeline stays uninitialized with no resources held.
//
// Errors: ErrNoGPU when BackendGPU is requested and no adapter opens;
// ErrShaderCompile when the shader fails to build.
func (p *Pipeline) Init() error {
	p.initMu.Lock()
	defer p.initMu.Unlock()

	switch State(p.state.Load()) {
	case StateReady:
		return nil
	case StateDisposed:
		return fmt.Errorf("%w: pipeline disposed", ErrNotInitialized)
	}

	r, err := p.buildRenderer()
	if err != nil {
		return err
	}
	p.renderer = r
	p.state.Store(int32(StateReady))
	return nil
}

func (p *Pipeline) buildRenderer() (Renderer, error) {
	if p.cfg.renderer != nil {
		return p.cfg.renderer, nil
	}

	cfg := RendererConfig{DeviceProvider: p.cfg.provider}
	switch p.cfg.backend {
	case BackendSoftware:
		return newSoftwareRenderer(), nil

	case BackendGPU:
		f := GPURendererFactory()
		if f == nil {
			return nil, fmt.Errorf("%w: no GPU renderer registered (import liquidglass/gpu)", ErrNoGPU)
		}
		return f(cfg)

	default: // BackendAuto
		if f := GPURendererFactory(); f != nil {
			r, err := f(cfg)
			if err == nil {
				return r, nil
			}
			Logger().Warn("GPU renderer unavailable, falling back to software", "err", err)
		}
		return newSoftwareRenderer(), nil
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Params returns the current parameter snapshot.
func (p *Pipeline) Params() Params {
	return *p.params.Load()
}

// UpdateParams merges the partial update into the parameter model and
// reports whether any field changed. Lock-free and last-writer-wins;
// the new values take effect on the next processed frame. Updates are
// valid in any lifecycle state.
func (p *Pipeline) UpdateParams(u ParamUpdate) bool {
	for {
		old := p.params.Load()
		next, changed := old.apply(u)
		if !changed {
			return false
		}
		if p.params.CompareAndSwap(old, &next) {
			return true
		}
	}
}

// ProcessFrame runs one distortion pass over the request's pixels and
// returns a freshly allocated RGBA8 output buffer of the same size.
// The parameter snapshot is taken once, at submission; a concurrent
// UpdateParams has no effect on an in-flight frame. Blocks while
// another frame is in flight on this instance.
func (p *Pipeline) ProcessFrame(req FrameRequest) ([]byte, error) {
	snapshot, err := p.admit(req)
	if err != nil {
		return nil, err
	}

	p.renderMu.Lock()
	defer p.renderMu.Unlock()
	return p.renderLocked(req, snapshot)
}

// ProcessFrameAsync submits one frame without blocking and returns a
// future for its result. If another frame is already in flight the
// request is rejected with ErrBusy; callers should drop or retry the
// frame rather than queue.
func (p *Pipeline) ProcessFrameAsync(req FrameRequest) (*FrameFuture, error) {
	snapshot, err := p.admit(req)
	if err != nil {
		return nil, err
	}

	if !p.renderMu.TryLock() {
		return nil, ErrBusy
	}

	f := &FrameFuture{done: make(chan struct{})}
	go func() {
		defer p.renderMu.Unlock()
		f.pixels, f.err = p.renderLocked(req, snapshot)
		close(f.done)
	}()
	return f, nil
}

// admit performs the state check, input validation, and parameter
// snapshot shared by the blocking and async paths.
func (p *Pipeline) admit(req FrameRequest) (Params, error) {
	if State(p.state.Load()) != StateReady {
		return Params{}, fmt.Errorf("%w: state is %v", ErrNotInitialized, p.State())
	}
	if err := req.validate(); err != nil {
		return Params{}, err
	}
	if req.Update != nil {
		p.UpdateParams(*req.Update)
	}
	return *p.params.Load(), nil
}

// renderLocked runs the pass while holding the in-flight slot.
func (p *Pipeline) renderLocked(req FrameRequest, snapshot Params) ([]byte, error) {
	// Dispose may have drained the slot while we waited for it.
	if State(p.state.Load()) != StateReady {
		return nil, fmt.Errorf("%w: state is %v", ErrNotInitialized, p.State())
	}
	dst := make([]byte, len(req.Pixels))
	if err := p.renderer.Render(req.Pixels, req.Width, req.Height, snapshot, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// StartContinuous marks continuous processing active. The pipeline does
// not own a timer; the caller drives ProcessFrame per display refresh
// and uses ContinuousActive to gate the loop.
func (p *Pipeline) StartContinuous() {
	p.continuous.Store(true)
}

// StopContinuous clears the continuous-processing flag.
func (p *Pipeline) StopContinuous() {
	p.continuous.Store(false)
}

// ContinuousActive reports whether continuous processing is active.
func (p *Pipeline) ContinuousActive() bool {
	return p.continuous.Load()
}

// Dispose waits for any in-flight frame, releases the renderer, and
// permanently retires the instance. Safe to call from any state and
// idempotent; a disposed pipeline cannot be re-initialized.
func (p *Pipeline) Dispose() error {
	p.initMu.Lock()
	defer p.initMu.Unlock()

	if State(p.state.Load()) != StateReady {
		p.state.Store(int32(StateDisposed))
		return nil
	}

	// Drain the in-flight slot so no render touches freed resources.
	p.renderMu.Lock()
	p.state.Store(int32(StateDisposed))
	p.renderMu.Unlock()

	p.continuous.Store(false)
	err := p.renderer.Close()
	p.renderer = nil
	if err != nil {
		Logger().Warn("renderer close failed", "err", err)
		return fmt.Errorf("%w: close: %v", ErrResource, err)
	}
	return nil
}

// FrameFuture is the pending result of ProcessFrameAsync.
type FrameFuture struct {
	done   chan struct{}
	pixels []byte
	err    error
}

// Done returns a channel closed when the frame completes.
func (f *FrameFuture) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the frame completes and returns its result.
func (f *FrameFuture) Wait() ([]byte, error) {
	<-f.done
	return f.pixels, f.err
}
