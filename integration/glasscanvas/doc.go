// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package glasscanvas provides seamless integration between the
// liquidglass distortion pipeline and gogpu GPU-accelerated windows.
//
// This package lets applications show the liquid-glass lens effect in a
// GPU-accelerated window by managing the frame-to-texture pipeline
// automatically. The data flow is:
//
//	source frame (RGBA8) -> liquidglass.Pipeline -> GPU Texture -> Window
//
// # Architecture
//
// Canvas wraps a liquidglass.Pipeline and manages the texture upload
// pipeline:
//
//   - SetFrame / SetFrameImage provide the source image
//   - SetFocalPoint moves the lens, typically on pointer motion
//   - Flush() processes the frame and uploads it to a GPU texture
//   - RenderTo() draws the texture to a gogpu window
//
// # Usage
//
// Basic usage with gogpu:
//
//	canvas, err := glasscanvas.New(app.GPUContextProvider(), 800, 600)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer canvas.Close()
//
//	_ = canvas.SetFrameImage(photo)
//
//	app.EventSource().OnMouseMove(func(x, y float32) {
//	    canvas.SetFocalPoint(x, y)
//	})
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
//
// # Thread Safety
//
// Canvas is NOT safe for concurrent use. Create one Canvas per
// goroutine, or use external synchronization. The underlying pipeline
// serializes frames on its own, but the Canvas bookkeeping (dirty
// flags, texture handles) is unsynchronized.
//
// # Performance Notes
//
//   - Texture is created lazily on first Flush()
//   - Dirty tracking avoids reprocessing when nothing changed
//   - Resize drops the stored frames; set a new frame afterwards
//
// # Integration Without Circular Imports
//
// This package uses interfaces to avoid importing gogpu directly:
//
//   - gpucontext.DeviceProvider for device access
//   - gpucontext.TextureDrawer and TextureCreator for drawing
//
// This allows liquidglass to provide integration without creating
// circular dependencies.
package glasscanvas
