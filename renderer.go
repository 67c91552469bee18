package liquidglass

import (
	"errors"
	"sync"

	"github.com/gogpu/liquidglass/internal/glass"
	"github.com/gogpu/liquidglass/internal/software"
)

// Renderer executes one distortion pass. src and dst are tightly packed
// RGBA8 buffers of width*height*4 bytes; p is the parameter snapshot
// for this frame.
//
// Implementations are owned by a single Pipeline, which guarantees at
// most one Render call is in flight at a time.
type Renderer interface {
	Render(src []byte, width, height int, p Params, dst []byte) error
	Close() error
}

// RendererConfig carries construction options for a GPU renderer.
type RendererConfig struct {
	// DeviceProvider optionally shares an externally owned GPU device
	// instead of opening a new adapter. When set, the renderer borrows
	// the device and must not destroy it on Close.
	DeviceProvider any
}

// RendererFactory constructs a GPU renderer for one pipeline instance.
// Registered by the liquidglass/gpu package; each pipeline gets its own
// renderer so multiple instances stay isolated.
type RendererFactory func(cfg RendererConfig) (Renderer, error)

var (
	factoryMu  sync.RWMutex
	gpuFactory RendererFactory
)

// RegisterGPURenderer registers the factory used to build GPU renderers.
// Typically called from an init function via blank import:
//
//	import _ "github.com/gogpu/liquidglass/gpu" // enable GPU rendering
func RegisterGPURenderer(f RendererFactory) error {
	if f == nil {
		return errors.New("liquidglass: renderer factory must not be nil")
	}
	factoryMu.Lock()
	gpuFactory = f
	factoryMu.Unlock()
	return nil
}

// GPURendererFactory returns the registered factory, or nil if no GPU
// backend package has been imported.
func GPURendererFactory() RendererFactory {
	factoryMu.RLock()
	f := gpuFactory
	factoryMu.RUnlock()
	return f
}

// uniformsFor builds the per-frame uniform block from a parameter
// snapshot and the frame dimensions.
func uniformsFor(p Params, width, height int) glass.Uniforms {
	return glass.Uniforms{
		ResolutionX:        float32(width),
		ResolutionY:        float32(height),
		FocalX:             p.FocalX,
		FocalY:             p.FocalY,
		EffectSize:         p.EffectSize,
		BlurIntensity:      p.BlurIntensity,
		DispersionStrength: p.DispersionStrength,
		GlassIntensity:     p.GlassIntensity,
	}
}

// softwareRenderer adapts the CPU implementation to the Renderer
// interface.
type softwareRenderer struct {
	impl *software.Renderer
}

func newSoftwareRenderer() Renderer {
	return &softwareRenderer{impl: software.New()}
}

func (r *softwareRenderer) Render(src []byte, width, height int, p Params, dst []byte) error {
	return r.impl.Render(src, width, height, uniformsFor(p, width, height), dst)
}

func (r *softwareRenderer) Close() error {
	return r.impl.Close()
}
