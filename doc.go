// Package liquidglass renders a real-time "liquid glass" distortion
// over raster images: a superellipse lens centered on a movable focal
// point, chromatic dispersion at the lens edge, an optional box blur,
// and a lighting gradient, composited in a single pass.
//
// A Pipeline owns the rendering resources. The default build renders on
// the CPU; importing the gpu sub-package enables hardware rendering via
// wgpu/hal:
//
//	import (
//	    "github.com/gogpu/liquidglass"
//	    _ "github.com/gogpu/liquidglass/gpu" // enable GPU rendering
//	)
//
//	p := liquidglass.New()
//	if err := p.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Dispose()
//
//	p.UpdateParams(liquidglass.ParamUpdate{
//	    FocalX: liquidglass.F32(320),
//	    FocalY: liquidglass.F32(240),
//	})
//	out, err := p.ProcessFrame(liquidglass.FrameRequest{
//	    Pixels: pixels, Width: 640, Height: 480,
//	})
//
// Frames are tightly packed RGBA8. Parameter updates are lock-free and
// take effect on the next processed frame.
package liquidglass
