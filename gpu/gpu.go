//go:build !nogpu

// Package gpu registers the hardware renderer for liquid-glass
// processing.
//
// Import this package to let pipelines render on the GPU via wgpu/hal.
// Device acquisition is deferred until Pipeline.Init, so importing this
// package on a machine without a GPU is harmless: BackendAuto falls
// back to software, BackendGPU reports ErrNoGPU.
//
// Usage:
//
//	import _ "github.com/gogpu/liquidglass/gpu" // enable GPU rendering
package gpu

import (
	"github.com/gogpu/liquidglass"
	gpuimpl "github.com/gogpu/liquidglass/internal/gpu"
)

func init() {
	err := liquidglass.RegisterGPURenderer(func(cfg liquidglass.RendererConfig) (liquidglass.Renderer, error) {
		return gpuimpl.New(cfg)
	})
	if err != nil {
		liquidglass.Logger().Warn("GPU renderer registration failed", "err", err)
	}
}
