// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glass

import (
	"encoding/binary"
	"math"
)

// UniformsSize is the byte size of the packed uniform block.
const UniformsSize = 32

// Uniforms is the per-frame parameter block consumed by the distortion
// shader. Field order matches the WGSL GlassUniforms struct; all fields
// are 4-byte scalars, so the std140 layout has no internal padding.
type Uniforms struct {
	ResolutionX        float32
	ResolutionY        float32
	FocalX             float32
	FocalY             float32
	EffectSize         float32
	BlurIntensity      float32
	DispersionStrength float32
	GlassIntensity     float32
}

// Bytes packs the block in little-endian IEEE 754 order for upload
// into a GPU uniform buffer.
func (u Uniforms) Bytes() []byte {
	buf := make([]byte, UniformsSize)
	fields := [8]float32{
		u.ResolutionX, u.ResolutionY,
		u.FocalX, u.FocalY,
		u.EffectSize, u.BlurIntensity,
		u.DispersionStrength, u.GlassIntensity,
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
