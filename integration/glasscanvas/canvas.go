// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glasscanvas

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/liquidglass"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("glasscanvas: canvas is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("glasscanvas: invalid dimensions")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("glasscanvas: nil DeviceProvider")

	// ErrNoFrame is returned when Flush runs before any source frame was set.
	ErrNoFrame = errors.New("glasscanvas: no source frame set")
)

// textureDestroyer matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// Canvas owns a liquidglass pipeline and presents its output through
// gogpu. Feed it a source frame, move the focal point as the pointer
// moves, and call RenderTo once per draw callback; the distortion pass
// runs only when something changed.
//
// Canvas is NOT safe for concurrent use. Create one Canvas per
// goroutine, or use external synchronization.
type Canvas struct {
	pipe     *liquidglass.Pipeline
	provider gpucontext.DeviceProvider

	src       []byte // latest source frame, RGBA8
	processed []byte // latest distorted output

	texture     any   // Lazy-created texture (*gogpu.Texture)
	retired     []any // Textures parked by Resize, awaiting deferred destruction
	dirty       bool  // Needs reprocess + GPU upload
	sizeChanged bool // Resize pending, texture must be recreated
	width       int
	height      int
	closed      bool
}

// New creates a Canvas backed by its own pipeline. The provider should
// come from gogpu.App.GPUContextProvider(); it is forwarded to the
// pipeline so the distortion pass can share the window's GPU device.
// Extra options are passed through to liquidglass.New.
func New(provider gpucontext.DeviceProvider, width, height int, opts ...liquidglass.Option) (*Canvas, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}

	opts = append([]liquidglass.Option{liquidglass.WithDeviceProvider(provider)}, opts...)
	pipe := liquidglass.New(opts...)
	if err := pipe.Init(); err != nil {
		return nil, err
	}

	return &Canvas{
		pipe:     pipe,
		provider: provider,
		width:    width,
		height:   height,
	}, nil
}

// Pipeline returns the underlying pipeline for direct parameter access.
// Returns nil if the canvas is closed.
func (c *Canvas) Pipeline() *liquidglass.Pipeline {
	if c.closed {
		return nil
	}
	return c.pipe
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// Size returns width and height as a convenience.
func (c *Canvas) Size() (width, height int) { return c.width, c.height }

// IsDirty reports whether the next Flush will reprocess and upload.
func (c *Canvas) IsDirty() bool { return c.dirty }

// SetFrame replaces the source frame. The pixels must be tightly packed
// RGBA8 matching the canvas dimensions; the slice is copied.
func (c *Canvas) SetFrame(pixels []byte) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if want := c.width * c.height * 4; len(pixels) != want {
		return fmt.Errorf("%w: frame is %d bytes, want %d", liquidglass.ErrInvalidInput, len(pixels), want)
	}
	if c.src == nil {
		c.src = make([]byte, len(pixels))
	}
	copy(c.src, pixels)
	c.dirty = true
	return nil
}

// SetFrameImage converts img and stores it as the source frame,
// resizing the canvas to the image dimensions if needed.
func (c *Canvas) SetFrameImage(img image.Image) error {
	if c.closed {
		return ErrCanvasClosed
	}
	req := liquidglass.FrameFromImage(img)
	if err := c.Resize(req.Width, req.Height); err != nil {
		return err
	}
	return c.SetFrame(req.Pixels)
}

// SetFocalPoint moves the distortion center, typically on pointer
// motion. Marks the canvas dirty so the next Flush reprocesses.
func (c *Canvas) SetFocalPoint(x, y float32) {
	if c.closed {
		return
	}
	c.pipe.UpdateParams(liquidglass.ParamUpdate{
		FocalX: liquidglass.F32(x),
		FocalY: liquidglass.F32(y),
	})
	c.dirty = true
}

// UpdateParams forwards a partial parameter update to the pipeline and
// marks the canvas dirty when anything changed.
func (c *Canvas) UpdateParams(u liquidglass.ParamUpdate) bool {
	if c.closed {
		return false
	}
	changed := c.pipe.UpdateParams(u)
	if changed {
		c.dirty = true
	}
	return changed
}

// Resize changes canvas dimensions and drops the stored frames.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if c.width == width && c.height == height {
		return nil
	}
	c.width = width
	c.height = height
	c.src = nil
	c.processed = nil
	c.sizeChanged = true
	c.dirty = true
	return nil
}

// Flush runs the distortion pass if the canvas is dirty and returns the
// texture holding the processed output. The texture is created lazily;
// until RenderTo has access to a texture creator it is a placeholder.
func (c *Canvas) Flush() (any, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}
	if c.src == nil {
		return nil, ErrNoFrame
	}

	// Park rather than destroy: in-flight command buffers may still
	// reference the texture, even across several rapid resizes. The
	// parked textures are destroyed in renderTo, after the next
	// texture creation's internal GPU wait.
	if c.sizeChanged {
		if c.texture != nil {
			c.retired = append(c.retired, c.texture)
			c.texture = nil
		}
		c.sizeChanged = false
	}

	if !c.dirty && c.texture != nil {
		return c.texture, nil
	}

	out, err := c.pipe.ProcessFrame(liquidglass.FrameRequest{
		Pixels: c.src,
		Width:  c.width,
		Height: c.height,
	})
	if err != nil {
		return nil, err
	}
	c.processed = out

	if c.texture == nil {
		c.texture = &pendingTexture{width: c.width, height: c.height, data: out}
		c.dirty = false
		return c.texture, nil
	}

	if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(out); err != nil {
			return nil, fmt.Errorf("glasscanvas: texture update failed: %w", err)
		}
	}
	c.dirty = false
	return c.texture, nil
}

// Processed returns the most recent distorted output, or nil before the
// first Flush.
func (c *Canvas) Processed() []byte { return c.processed }

// Texture returns the current GPU texture without flushing.
// Returns nil if the texture hasn't been created yet.
func (c *Canvas) Texture() any { return c.texture }

// Provider returns the DeviceProvider associated with this canvas.
// Returns nil if the canvas is closed.
func (c *Canvas) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}

// Close disposes the pipeline and releases textures. Idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.destroyRetired()
	if c.texture != nil {
		if destroyer, ok := c.texture.(textureDestroyer); ok {
			destroyer.Destroy()
		}
		c.texture = nil
	}

	err := c.pipe.Dispose()
	c.provider = nil
	c.src = nil
	c.processed = nil
	return err
}

// destroyRetired releases every texture parked by Resize. Callers must
// ensure the GPU no longer references them.
func (c *Canvas) destroyRetired() {
	for _, t := range c.retired {
		if destroyer, ok := t.(textureDestroyer); ok {
			destroyer.Destroy()
		}
	}
	c.retired = nil
}

// pendingTexture is a placeholder holding the data needed to create a
// real texture once a gpucontext.TextureCreator is available (during
// RenderTo).
type pendingTexture struct {
	width  int
	height int
	data   []byte
}
