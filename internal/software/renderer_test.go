package software

import (
	"bytes"
	"testing"

	"github.com/gogpu/liquidglass/internal/glass"
)

func checkerFrame(w, h int) []byte {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			v := byte(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			pix[i] = v
			pix[i+1] = v
			pix[i+2] = v
			pix[i+3] = 255
		}
	}
	return pix
}

func testUniforms(w, h int) glass.Uniforms {
	return glass.Uniforms{
		ResolutionX: float32(w), ResolutionY: float32(h),
		FocalX: float32(w) / 2, FocalY: float32(h) / 2,
		EffectSize: 1.5, GlassIntensity: 0.3,
	}
}

func TestRender_MatchesSingleBand(t *testing.T) {
	r := New()
	defer r.Close()

	const w, h = 33, 47 // odd sizes stress the band split
	src := checkerFrame(w, h)
	u := testUniforms(w, h)

	got := make([]byte, len(src))
	if err := r.Render(src, w, h, u, got); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := make([]byte, len(src))
	glass.Render(&glass.Texture{Pix: src, W: w, H: h}, u, want, 0, h)
	if !bytes.Equal(got, want) {
		t.Error("parallel render differs from sequential reference")
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := New()
	defer r.Close()

	const w, h = 40, 40
	src := checkerFrame(w, h)
	u := testUniforms(w, h)
	u.BlurIntensity = 2
	u.DispersionStrength = 0.4

	a := make([]byte, len(src))
	b := make([]byte, len(src))
	if err := r.Render(src, w, h, u, a); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := r.Render(src, w, h, u, b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two renders with identical input differ")
	}
}

func TestRender_SizeMismatch(t *testing.T) {
	r := New()
	defer r.Close()

	u := testUniforms(4, 4)
	dst := make([]byte, 4*4*4)

	if err := r.Render(make([]byte, 10), 4, 4, u, dst); err == nil {
		t.Error("expected error for short src buffer")
	}
	if err := r.Render(make([]byte, 4*4*4), 4, 4, u, dst[:8]); err == nil {
		t.Error("expected error for short dst buffer")
	}
}

func TestRender_TinyFrame(t *testing.T) {
	r := New()
	defer r.Close()

	src := checkerFrame(1, 1)
	dst := make([]byte, 4)
	if err := r.Render(src, 1, 1, testUniforms(1, 1), dst); err != nil {
		t.Fatalf("Render 1x1: %v", err)
	}
	if dst[3] == 0 {
		t.Error("alpha should be set")
	}
}
