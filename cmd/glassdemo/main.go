// Command glassdemo applies the liquid glass distortion to an image.
//
// With no -input, it renders a synthetic test card so the effect is
// visible without any assets.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"

	"github.com/gogpu/liquidglass"
	_ "github.com/gogpu/liquidglass/gpu"
)

func main() {
	var (
		input      = flag.String("input", "", "input PNG (empty: synthetic test card)")
		output     = flag.String("output", "glass.png", "output file")
		width      = flag.Int("width", 800, "test card width (ignored with -input)")
		height     = flag.Int("height", 600, "test card height (ignored with -input)")
		focalX     = flag.Float64("focal-x", -1, "lens center X in pixels (-1: image center)")
		focalY     = flag.Float64("focal-y", -1, "lens center Y in pixels (-1: image center)")
		size       = flag.Float64("size", 2.0, "effect size")
		blur       = flag.Float64("blur", 0, "blur intensity (0: off)")
		dispersion = flag.Float64("dispersion", 0.5, "chromatic dispersion strength")
		intensity  = flag.Float64("intensity", 0.3, "glass intensity")
		software   = flag.Bool("software", false, "force the software renderer")
	)
	flag.Parse()

	src := loadOrGenerate(*input, *width, *height)
	req := liquidglass.FrameFromImage(src)

	backend := liquidglass.BackendAuto
	if *software {
		backend = liquidglass.BackendSoftware
	}

	pipe := liquidglass.New(liquidglass.WithBackend(backend))
	if err := pipe.Init(); err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}
	defer pipe.Dispose()

	fx := float32(*focalX)
	fy := float32(*focalY)
	if fx < 0 {
		fx = float32(req.Width) / 2
	}
	if fy < 0 {
		fy = float32(req.Height) / 2
	}

	req.Update = &liquidglass.ParamUpdate{
		FocalX:             liquidglass.F32(fx),
		FocalY:             liquidglass.F32(fy),
		EffectSize:         liquidglass.F32(float32(*size)),
		BlurIntensity:      liquidglass.F32(float32(*blur)),
		DispersionStrength: liquidglass.F32(float32(*dispersion)),
		GlassIntensity:     liquidglass.F32(float32(*intensity)),
	}

	out, err := pipe.ProcessFrame(req)
	if err != nil {
		log.Fatalf("Failed to process frame: %v", err)
	}

	if err := savePNG(*output, liquidglass.FrameToImage(out, req.Width, req.Height)); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Saved to %s (%dx%d, lens at %.0f,%.0f)\n", *output, req.Width, req.Height, fx, fy)
}

func loadOrGenerate(path string, w, h int) image.Image {
	if path == "" {
		return testCard(w, h)
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		log.Fatalf("Failed to decode input: %v", err)
	}
	return img
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// testCard draws a gradient with a checker overlay. Straight edges make
// the lens warp and dispersion fringes easy to see.
func testCard(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := uint8(40 + 180*x/w)
			g := uint8(60 + 120*y/h)
			b := uint8(200 - 140*x/w)
			if (x/40+y/40)%2 == 0 {
				r = r/2 + 96
				g = g/2 + 96
				b = b/2 + 96
			}
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
