package liquidglass

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func whiteFrame(w, h int) FrameRequest {
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = 255
	}
	return FrameRequest{Pixels: pix, Width: w, Height: h}
}

// blockingRenderer lets tests hold a frame in flight.
type blockingRenderer struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingRenderer() *blockingRenderer {
	return &blockingRenderer{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (r *blockingRenderer) Render(src []byte, _, _ int, _ Params, dst []byte) error {
	close(r.entered)
	<-r.release
	copy(dst, src)
	return nil
}

func (r *blockingRenderer) Close() error { return nil }

// failingRenderer fails every frame with a fixed error.
type failingRenderer struct{ err error }

func (r *failingRenderer) Render([]byte, int, int, Params, []byte) error { return r.err }
func (r *failingRenderer) Close() error                                  { return nil }

// recordingRenderer captures the parameter snapshot of each frame.
type recordingRenderer struct {
	mu    sync.Mutex
	seen  []Params
	inner Renderer
}

func (r *recordingRenderer) Render(src []byte, w, h int, p Params, dst []byte) error {
	r.mu.Lock()
	r.seen = append(r.seen, p)
	r.mu.Unlock()
	return r.inner.Render(src, w, h, p, dst)
}

func (r *recordingRenderer) Close() error { return r.inner.Close() }

func newReadyPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	if len(opts) == 0 {
		opts = []Option{WithBackend(BackendSoftware)}
	}
	p := New(opts...)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = p.Dispose() })
	return p
}

func TestInitIdempotent(t *testing.T) {
	p := newReadyPipeline(t)
	if err := p.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if p.State() != StateReady {
		t.Errorf("state = %v, want ready", p.State())
	}
}

func TestProcessFrameBeforeInit(t *testing.T) {
	p := New(WithBackend(BackendSoftware))
	_, err := p.ProcessFrame(whiteFrame(4, 4))
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("error = %v, want ErrNotInitialized", err)
	}
}

func TestProcessFrameInvalidInput(t *testing.T) {
	p := newReadyPipeline(t)

	tests := []struct {
		name string
		req  FrameRequest
	}{
		{"zero width", FrameRequest{Pixels: make([]byte, 16), Width: 0, Height: 4}},
		{"negative height", FrameRequest{Pixels: make([]byte, 16), Width: 4, Height: -1}},
		{"short buffer", FrameRequest{Pixels: make([]byte, 10), Width: 4, Height: 4}},
		{"long buffer", FrameRequest{Pixels: make([]byte, 100), Width: 4, Height: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.ProcessFrame(tt.req); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestProcessFrameWhiteStaysWhite(t *testing.T) {
	// A flat white field has no detail to distort, and the additive
	// lighting terms saturate at the clamp.
	p := newReadyPipeline(t)
	p.UpdateParams(ParamUpdate{
		FocalX:             F32(2),
		FocalY:             F32(2),
		EffectSize:         F32(2.0),
		BlurIntensity:      F32(0),
		DispersionStrength: F32(0),
		GlassIntensity:     F32(0.3),
	})

	req := whiteFrame(4, 4)
	out, err := p.ProcessFrame(req)
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if len(out) != len(req.Pixels) {
		t.Fatalf("output is %d bytes, want %d", len(out), len(req.Pixels))
	}
	for i, v := range out {
		if v != 255 {
			t.Fatalf("out[%d] = %d, want 255", i, v)
		}
	}
}

func TestProcessFrameDeterministic(t *testing.T) {
	p := newReadyPipeline(t)
	p.UpdateParams(ParamUpdate{FocalX: F32(16), FocalY: F32(16), BlurIntensity: F32(2)})

	req := whiteFrame(32, 32)
	for i := range req.Pixels {
		req.Pixels[i] = byte(i % 251)
	}

	a, err := p.ProcessFrame(req)
	if err != nil {
		t.Fatalf("first ProcessFrame: %v", err)
	}
	b, err := p.ProcessFrame(req)
	if err != nil {
		t.Fatalf("second ProcessFrame: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical input produced different output")
	}
}

func TestUpdateParamsTakesEffectNextFrame(t *testing.T) {
	rec := &recordingRenderer{inner: newSoftwareRenderer()}
	p := newReadyPipeline(t, WithRenderer(rec))

	if !p.UpdateParams(ParamUpdate{EffectSize: F32(5.0)}) {
		t.Fatal("UpdateParams reported no change")
	}
	if _, err := p.ProcessFrame(whiteFrame(4, 4)); err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.seen) != 1 || rec.seen[0].EffectSize != 5.0 {
		t.Errorf("frame saw EffectSize %v, want 5.0", rec.seen[0].EffectSize)
	}
}

func TestUpdateParamsNoChange(t *testing.T) {
	p := newReadyPipeline(t)
	cur := p.Params()
	if p.UpdateParams(ParamUpdate{EffectSize: &cur.EffectSize}) {
		t.Error("UpdateParams reported change for identical value")
	}
	if p.UpdateParams(ParamUpdate{}) {
		t.Error("empty update reported change")
	}
}

func TestInFlightFrameKeepsSnapshot(t *testing.T) {
	br := newBlockingRenderer()
	rec := &recordingRenderer{inner: br}
	p := newReadyPipeline(t, WithRenderer(rec))

	p.UpdateParams(ParamUpdate{EffectSize: F32(2.0)})
	f, err := p.ProcessFrameAsync(whiteFrame(4, 4))
	if err != nil {
		t.Fatalf("ProcessFrameAsync: %v", err)
	}
	<-br.entered

	// Update lands while the frame is in flight.
	p.UpdateParams(ParamUpdate{EffectSize: F32(9.0)})
	close(br.release)
	if _, err := f.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.seen[0].EffectSize != 2.0 {
		t.Errorf("in-flight frame saw EffectSize %v, want snapshot 2.0", rec.seen[0].EffectSize)
	}
	if p.Params().EffectSize != 9.0 {
		t.Errorf("model EffectSize = %v, want 9.0", p.Params().EffectSize)
	}
}

func TestAsyncRejectsWhileBusy(t *testing.T) {
	br := newBlockingRenderer()
	p := newReadyPipeline(t, WithRenderer(br))

	f, err := p.ProcessFrameAsync(whiteFrame(4, 4))
	if err != nil {
		t.Fatalf("ProcessFrameAsync: %v", err)
	}
	<-br.entered

	if _, err := p.ProcessFrameAsync(whiteFrame(4, 4)); !errors.Is(err, ErrBusy) {
		t.Errorf("error = %v, want ErrBusy", err)
	}

	close(br.release)
	out, err := f.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(out) != 4*4*4 {
		t.Errorf("output is %d bytes, want 64", len(out))
	}
}

func TestFrameRequestUpdateAppliedBeforeSnapshot(t *testing.T) {
	rec := &recordingRenderer{inner: newSoftwareRenderer()}
	p := newReadyPipeline(t, WithRenderer(rec))

	req := whiteFrame(4, 4)
	req.Update = &ParamUpdate{BlurIntensity: F32(3.0)}
	if _, err := p.ProcessFrame(req); err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.seen[0].BlurIntensity != 3.0 {
		t.Errorf("frame saw BlurIntensity %v, want 3.0", rec.seen[0].BlurIntensity)
	}
	if p.Params().BlurIntensity != 3.0 {
		t.Errorf("model BlurIntensity = %v, want 3.0", p.Params().BlurIntensity)
	}
}

func TestRenderErrorPropagatesAndPipelineStaysReady(t *testing.T) {
	fr := &failingRenderer{err: fmt.Errorf("%w: out of memory", ErrResource)}
	p := newReadyPipeline(t, WithRenderer(fr))

	if _, err := p.ProcessFrame(whiteFrame(4, 4)); !errors.Is(err, ErrResource) {
		t.Errorf("error = %v, want ErrResource", err)
	}
	if p.State() != StateReady {
		t.Errorf("state = %v, want ready after transient failure", p.State())
	}
}

func TestContinuousFlags(t *testing.T) {
	p := New(WithBackend(BackendSoftware))
	if p.ContinuousActive() {
		t.Error("continuous should start inactive")
	}
	p.StartContinuous()
	if !p.ContinuousActive() {
		t.Error("StartContinuous did not set the flag")
	}
	p.StopContinuous()
	if p.ContinuousActive() {
		t.Error("StopContinuous did not clear the flag")
	}
}

func TestDispose(t *testing.T) {
	p := New(WithBackend(BackendSoftware))
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := p.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if p.State() != StateDisposed {
		t.Errorf("state = %v, want disposed", p.State())
	}
	if _, err := p.ProcessFrame(whiteFrame(4, 4)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("error = %v, want ErrNotInitialized", err)
	}
	if err := p.Init(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("re-Init error = %v, want ErrNotInitialized", err)
	}
	if err := p.Dispose(); err != nil {
		t.Errorf("second Dispose: %v", err)
	}
}

func TestDisposeDrainsInFlightFrame(t *testing.T) {
	br := newBlockingRenderer()
	p := New(WithRenderer(br))
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	f, err := p.ProcessFrameAsync(whiteFrame(4, 4))
	if err != nil {
		t.Fatalf("ProcessFrameAsync: %v", err)
	}
	<-br.entered

	disposed := make(chan error, 1)
	go func() { disposed <- p.Dispose() }()

	// Dispose must wait for the in-flight frame.
	select {
	case <-disposed:
		t.Fatal("Dispose returned while a frame was in flight")
	default:
	}

	close(br.release)
	if _, err := f.Wait(); err != nil {
		t.Fatalf("in-flight frame failed: %v", err)
	}
	if err := <-disposed; err != nil {
		t.Fatalf("Dispose: %v", err)
	}
}

func TestDisposeUninitialized(t *testing.T) {
	p := New(WithBackend(BackendSoftware))
	if err := p.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if p.State() != StateDisposed {
		t.Errorf("state = %v, want disposed", p.State())
	}
}

func TestBackendGPUWithoutRegistration(t *testing.T) {
	// The root package never registers a GPU factory itself.
	if GPURendererFactory() != nil {
		t.Skip("GPU factory registered by another test import")
	}
	p := New(WithBackend(BackendGPU))
	if err := p.Init(); !errors.Is(err, ErrNoGPU) {
		t.Errorf("Init error = %v, want ErrNoGPU", err)
	}
	if p.State() != StateUninitialized {
		t.Errorf("state = %v, want uninitialized after failed Init", p.State())
	}
}

func TestAutoFallsBackToSoftware(t *testing.T) {
	if GPURendererFactory() != nil {
		t.Skip("GPU factory registered by another test import")
	}
	p := newReadyPipeline(t, WithBackend(BackendAuto))
	if _, err := p.ProcessFrame(whiteFrame(4, 4)); err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
}

func TestMultipleInstancesAreIsolated(t *testing.T) {
	a := newReadyPipeline(t)
	b := newReadyPipeline(t)

	a.UpdateParams(ParamUpdate{EffectSize: F32(7)})
	if b.Params().EffectSize == 7 {
		t.Error("parameter update leaked across instances")
	}
	if err := a.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if _, err := b.ProcessFrame(whiteFrame(4, 4)); err != nil {
		t.Errorf("second instance broken by first's Dispose: %v", err)
	}
}

func TestConcurrentProcessFrameSerializes(t *testing.T) {
	p := newReadyPipeline(t)
	req := whiteFrame(16, 16)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.ProcessFrame(req); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent ProcessFrame: %v", err)
	}
}
