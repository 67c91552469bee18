// Package software provides a CPU fallback for the liquid-glass
// distortion pass. It evaluates the same per-pixel function as the GPU
// fragment shader, split into row bands across a worker pool.
package software

import (
	"fmt"

	"github.com/gogpu/liquidglass/internal/glass"
	"github.com/gogpu/liquidglass/internal/parallel"
)

// Renderer runs the distortion pass on the CPU.
//
// Thread safety: Render is safe for concurrent use; the callers of a
// single pipeline instance already serialize frames, so the pool is
// only shared, never contended per band.
type Renderer struct {
	pool *parallel.WorkerPool
}

// New creates a software renderer with a pool sized to GOMAXPROCS.
func New() *Renderer {
	return &Renderer{pool: parallel.NewWorkerPool(0)}
}

// Render evaluates the distortion for every output pixel and writes
// tightly packed RGBA8 into dst. src and dst must both hold
// width*height*4 bytes.
func (r *Renderer) Render(src []byte, width, height int, u glass.Uniforms, dst []byte) error {
	if len(src) != width*height*4 {
		return fmt.Errorf("software: src length %d does not match %dx%d RGBA8", len(src), width, height)
	}
	if len(dst) != len(src) {
		return fmt.Errorf("software: dst length %d does not match %dx%d RGBA8", len(dst), width, height)
	}

	tex := &glass.Texture{Pix: src, W: width, H: height}

	bands := r.pool.Workers() * 4
	if bands > height {
		bands = height
	}
	if bands <= 1 {
		glass.Render(tex, u, dst, 0, height)
		return nil
	}

	rowsPerBand := (height + bands - 1) / bands
	work := make([]func(), 0, bands)
	for y0 := 0; y0 < height; y0 += rowsPerBand {
		y1 := y0 + rowsPerBand
		if y1 > height {
			y1 = height
		}
		start, end := y0, y1
		work = append(work, func() {
			glass.Render(tex, u, dst, start, end)
		})
	}
	r.pool.ExecuteAll(work)
	return nil
}

// Close releases the worker pool. Safe to call multiple times.
func (r *Renderer) Close() error {
	r.pool.Close()
	return nil
}
