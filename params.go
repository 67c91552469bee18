package liquidglass

// Params is the full set of distortion controls consumed by a frame.
// All fields are caller-mutable; values are stored as provided and any
// clamping happens inside the shader's use of them.
type Params struct {
	// FocalX, FocalY is the pixel-space coordinate the distortion is
	// centered on, typically a pointer or touch position.
	FocalX float32
	FocalY float32

	// EffectSize scales the radius of the distortion lens (>0).
	EffectSize float32

	// BlurIntensity selects the blur kernel radius. Zero disables
	// blur sampling entirely; any positive value enables the fixed
	// 5x5 box kernel.
	BlurIntensity float32

	// DispersionStrength scales the per-channel chromatic offset.
	DispersionStrength float32

	// GlassIntensity is a reserved multiplier for the lighting blend.
	// It is carried through the uniform block but not consumed by the
	// core formula beyond storage.
	GlassIntensity float32
}

// DefaultParams returns the parameter set a new pipeline starts with:
// a medium lens, no blur, mild dispersion, focal point at the origin.
func DefaultParams() Params {
	return Params{
		EffectSize:         2.0,
		DispersionStrength: 0.5,
		GlassIntensity:     0.3,
	}
}

// ParamUpdate is a partial parameter update. Nil fields retain the
// previous value. Build pointer fields with [F32].
type ParamUpdate struct {
	FocalX             *float32
	FocalY             *float32
	EffectSize         *float32
	BlurIntensity      *float32
	DispersionStrength *float32
	GlassIntensity     *float32
}

// F32 returns a pointer to v, for building a ParamUpdate literal.
func F32(v float32) *float32 { return &v }

// apply merges the update into a copy of p and reports whether any
// field changed.
func (p Params) apply(u ParamUpdate) (Params, bool) {
	changed := false
	set := func(dst *float32, src *float32) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	set(&p.FocalX, u.FocalX)
	set(&p.FocalY, u.FocalY)
	set(&p.EffectSize, u.EffectSize)
	set(&p.BlurIntensity, u.BlurIntensity)
	set(&p.DispersionStrength, u.DispersionStrength)
	set(&p.GlassIntensity, u.GlassIntensity)
	return p, changed
}
