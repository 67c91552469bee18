package liquidglass

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// FrameRequest describes one frame to process. Pixels is tightly packed
// RGBA8, row-major, stride = Width*4, no color-space conversion.
type FrameRequest struct {
	Pixels []byte
	Width  int
	Height int

	// Update, when non-nil, is applied to the pipeline's parameter
	// model before this frame's snapshot is taken. Equivalent to
	// calling UpdateParams immediately before ProcessFrame.
	Update *ParamUpdate
}

// validate rejects inconsistent buffers before any processing starts.
func (r FrameRequest) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, r.Width, r.Height)
	}
	if want := r.Width * r.Height * 4; len(r.Pixels) != want {
		return fmt.Errorf("%w: pixel buffer is %d bytes, want %d for %dx%d RGBA8",
			ErrInvalidInput, len(r.Pixels), want, r.Width, r.Height)
	}
	return nil
}

// FrameFromImage converts any image.Image into a FrameRequest,
// re-encoding to non-premultiplied RGBA8 where needed.
func FrameFromImage(img image.Image) FrameRequest {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != w*4 || !b.Min.Eq(image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	}
	return FrameRequest{Pixels: rgba.Pix, Width: w, Height: h}
}

// FrameToImage wraps processed output pixels in an *image.RGBA without
// copying. The slice must hold width*height*4 bytes.
func FrameToImage(pixels []byte, width, height int) *image.RGBA {
	return &image.RGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
}
