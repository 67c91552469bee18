// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glasscanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Rendering errors.
var (
	// ErrInvalidDrawContext is returned when the drawn texture is not a
	// gpucontext.Texture.
	ErrInvalidDrawContext = errors.New("glasscanvas: texture does not implement gpucontext.Texture")

	// ErrInvalidRenderer is returned when the draw context has no
	// gpucontext.TextureCreator.
	ErrInvalidRenderer = errors.New("glasscanvas: draw context has no TextureCreator")
)

// renderSink abstracts texture realization and drawing so the flush,
// realization, and deferred-destruction flow can be exercised without a
// live window.
type renderSink interface {
	createTexture(width, height int, data []byte) (any, error)
	drawTexture(tex any, x, y float32) error
}

// RenderTo processes the canvas if dirty and draws the result at the
// origin of the given draw context.
//
// The dc parameter should be obtained from gogpu.Context.AsTextureDrawer().
//
// Example:
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.renderTo(gpuSink{dc: dc}, 0, 0)
}

// RenderToPosition draws the processed output at (x, y).
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	return c.renderTo(gpuSink{dc: dc}, x, y)
}

func (c *Canvas) renderTo(sink renderSink, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}

	tex, err := c.Flush()
	if err != nil {
		return err
	}

	// First draw after creation or resize: materialize the texture now
	// that a creator is reachable.
	if pending, isPending := tex.(*pendingTexture); isPending {
		realTex, err := sink.createTexture(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("glasscanvas: texture creation failed: %w", err)
		}
		c.texture = realTex
		tex = realTex

		// Texture creation waits for the GPU internally, so textures
		// parked by Resize are no longer referenced by in-flight work
		// and can finally be destroyed.
		c.destroyRetired()
	}

	return sink.drawTexture(tex, x, y)
}

// gpuSink adapts a gpucontext.TextureDrawer to the renderSink seam.
type gpuSink struct {
	dc gpucontext.TextureDrawer
}

func (s gpuSink) createTexture(width, height int, data []byte) (any, error) {
	creator := s.dc.TextureCreator()
	if creator == nil {
		return nil, ErrInvalidRenderer
	}
	return creator.NewTextureFromRGBA(width, height, data)
}

func (s gpuSink) drawTexture(tex any, x, y float32) error {
	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidDrawContext
	}
	return s.dc.DrawTexture(gpuTex, x, y)
}
