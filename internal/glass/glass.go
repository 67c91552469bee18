// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package glass implements the liquid-glass distortion function: a
// superellipse lens mask around a focal point, a lens warp with
// chromatic dispersion, an optional 5x5 box blur, and a lighting
// gradient composited over the source image. The same math runs in the
// WGSL fragment shader; this package is the reference used by the
// software renderer and the tests.
package glass

import "math"

// Texture is a tightly packed RGBA8 image, row-major, stride = W*4.
// Sampling is bilinear with clamp-to-edge addressing, matching the
// GPU sampler configuration.
type Texture struct {
	Pix []byte
	W   int
	H   int
}

// texel returns the normalized RGBA value at integer coordinates,
// clamped to the image bounds.
func (t *Texture) texel(x, y int) (r, g, b, a float32) {
	x = clampi(x, 0, t.W-1)
	y = clampi(y, 0, t.H-1)
	i := (y*t.W + x) * 4
	const inv = 1.0 / 255.0
	return float32(t.Pix[i]) * inv, float32(t.Pix[i+1]) * inv,
		float32(t.Pix[i+2]) * inv, float32(t.Pix[i+3]) * inv
}

// Sample performs bilinear sampling at normalized coordinates (u, v),
// where (0,0) is the top-left corner and (1,1) the bottom-right.
func (t *Texture) Sample(u, v float32) (r, g, b, a float32) {
	fx := u*float32(t.W) - 0.5
	fy := v*float32(t.H) - 0.5

	// Clamp before the int conversion: converting non-finite or huge
	// float32 values to int is implementation-defined. Clamp-to-edge
	// maps anything outside the image to a border texel anyway; the
	// negated comparisons also route NaN to the border.
	if !(fx > -1) {
		fx = -1
	} else if fx > float32(t.W) {
		fx = float32(t.W)
	}
	if !(fy > -1) {
		fy = -1
	} else if fy > float32(t.H) {
		fy = float32(t.H)
	}

	x0 := int(floorf(fx))
	y0 := int(floorf(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	r00, g00, b00, a00 := t.texel(x0, y0)
	r10, g10, b10, a10 := t.texel(x0+1, y0)
	r01, g01, b01, a01 := t.texel(x0, y0+1)
	r11, g11, b11, a11 := t.texel(x0+1, y0+1)

	r = mix(mix(r00, r10, tx), mix(r01, r11, tx), ty)
	g = mix(mix(g00, g10, tx), mix(g01, g11, tx), ty)
	b = mix(mix(b00, b10, tx), mix(b01, b11, tx), ty)
	a = mix(mix(a00, a10, tx), mix(a01, a11, tx), ty)
	return r, g, b, a
}

// Shade evaluates the distortion for the output pixel whose center is
// at (fragX, fragY) and returns the composited RGBA color, each channel
// clamped to [0,1]. Alpha of distorted samples is forced to 1; outside
// the effect region the source alpha passes through unchanged.
func Shade(src *Texture, fragX, fragY float32, u Uniforms) (r, g, b, a float32) {
	uvx := fragX / u.ResolutionX
	uvy := fragY / u.ResolutionY
	cx := u.FocalX / u.ResolutionX
	cy := u.FocalY / u.ResolutionY
	m2x := uvx - cx
	m2y := uvy - cy
	aspect := u.ResolutionX / u.ResolutionY

	effectRadius := u.EffectSize * 0.5
	sizeMultiplier := 1.0 / (effectRadius * effectRadius)

	// Superellipse distance field: |x*aspect|^4 + |y|^4.
	roundedBox := pow4(m2x*aspect) + pow4(m2y)

	baseIntensity := 100.0 * sizeMultiplier
	rb1 := clamp((1.0-roundedBox*baseIntensity)*8.0, 0.0, 1.0)
	rb2 := clamp((0.95-roundedBox*baseIntensity*0.95)*16.0, 0.0, 1.0) -
		clamp((0.9-roundedBox*baseIntensity*0.95)*16.0, 0.0, 1.0)
	rb3 := clamp((1.5-roundedBox*baseIntensity*1.1)*2.0, 0.0, 1.0) -
		clamp((1.0-roundedBox*baseIntensity*1.1)*2.0, 0.0, 1.0)

	if rb1+rb2 <= 0.0 {
		return src.Sample(uvx, uvy)
	}

	distortionStrength := 50.0 * sizeMultiplier
	lensX := (uvx-0.5)*(1.0-roundedBox*distortionStrength) + 0.5
	lensY := (uvy-0.5)*(1.0-roundedBox*distortionStrength) + 0.5

	// Dispersion direction; degenerate exactly at the focal point.
	var dirX, dirY float32
	if l := sqrtf(m2x*m2x + m2y*m2y); l > 0.0 {
		dirX = m2x / l
		dirY = m2y / l
	}
	dispersionMask := smoothstep(0.3, 0.7, roundedBox*baseIntensity)
	disp := u.DispersionStrength * 0.05 * dispersionMask

	rOffX, rOffY := dirX*disp*2.0, dirY*disp*2.0
	gOffX, gOffY := dirX*disp*1.0, dirY*disp*1.0
	bOffX, bOffY := dirX*disp*-1.5, dirY*disp*-1.5

	var dr, dg, db float32
	if u.BlurIntensity > 0.0 {
		step := u.BlurIntensity / maxf(u.ResolutionX, u.ResolutionY)
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				ox := float32(dx) * step
				oy := float32(dy) * step
				sr, _, _, _ := src.Sample(lensX+rOffX+ox, lensY+rOffY+oy)
				_, sg, _, _ := src.Sample(lensX+gOffX+ox, lensY+gOffY+oy)
				_, _, sb, _ := src.Sample(lensX+bOffX+ox, lensY+bOffY+oy)
				dr += sr
				dg += sg
				db += sb
			}
		}
		dr /= 25.0
		dg /= 25.0
		db /= 25.0
	} else {
		dr, _, _, _ = src.Sample(lensX+rOffX, lensY+rOffY)
		_, dg, _, _ = src.Sample(lensX+gOffX, lensY+gOffY)
		_, _, db, _ = src.Sample(lensX+bOffX, lensY+bOffY)
	}

	// Lighting gradient: a vertical ramp plus the outer ring's
	// mirrored ramp below the focal point.
	gradient := clamp((clamp(m2y, 0.0, 0.2)+0.1)/2.0, 0.0, 1.0) +
		clamp((clamp(-m2y, -1000.0, 0.2)*rb3+0.1)/2.0, 0.0, 1.0)

	br, bg, bb, ba := src.Sample(uvx, uvy)
	light := rb2*0.3 + gradient*0.2

	r = clamp(mix(br, dr, rb1)+light, 0.0, 1.0)
	g = clamp(mix(bg, dg, rb1)+light, 0.0, 1.0)
	b = clamp(mix(bb, db, rb1)+light, 0.0, 1.0)
	a = clamp(mix(ba, 1.0, rb1)+light, 0.0, 1.0)
	return r, g, b, a
}

// Render evaluates Shade for every pixel of the rows [y0, y1) and
// writes the RGBA8 result into dst, which must share src's dimensions.
func Render(src *Texture, u Uniforms, dst []byte, y0, y1 int) {
	for y := y0; y < y1; y++ {
		fy := float32(y) + 0.5
		row := y * src.W * 4
		for x := 0; x < src.W; x++ {
			fx := float32(x) + 0.5
			r, g, b, a := Shade(src, fx, fy, u)
			i := row + x*4
			dst[i] = byte(r*255.0 + 0.5)
			dst[i+1] = byte(g*255.0 + 0.5)
			dst[i+2] = byte(b*255.0 + 0.5)
			dst[i+3] = byte(a*255.0 + 0.5)
		}
	}
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mix(a, b, t float32) float32 {
	return a*(1.0-t) + b*t
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := clamp((x-edge0)/(edge1-edge0), 0.0, 1.0)
	return t * t * (3.0 - 2.0*t)
}

func pow4(v float32) float32 {
	v = v * v
	return v * v
}

func floorf(v float32) float32 {
	return float32(math.Floor(float64(v)))
}

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
