package liquidglass

import "testing"

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.EffectSize <= 0 {
		t.Errorf("EffectSize = %v, want > 0", p.EffectSize)
	}
	if p.BlurIntensity != 0 {
		t.Errorf("BlurIntensity = %v, want 0 (blur disabled by default)", p.BlurIntensity)
	}
}

func TestParamUpdateApply(t *testing.T) {
	base := Params{EffectSize: 2, BlurIntensity: 1, FocalX: 10}

	got, changed := base.apply(ParamUpdate{EffectSize: F32(3), FocalY: F32(5)})
	if !changed {
		t.Fatal("apply reported no change")
	}
	want := Params{EffectSize: 3, BlurIntensity: 1, FocalX: 10, FocalY: 5}
	if got != want {
		t.Errorf("apply = %+v, want %+v", got, want)
	}

	// Absent fields retain previous values.
	if got.BlurIntensity != 1 {
		t.Errorf("BlurIntensity = %v, want retained 1", got.BlurIntensity)
	}
}

func TestParamUpdateApplyNoop(t *testing.T) {
	base := Params{EffectSize: 2}
	if _, changed := base.apply(ParamUpdate{}); changed {
		t.Error("empty update reported change")
	}
	if _, changed := base.apply(ParamUpdate{EffectSize: F32(2)}); changed {
		t.Error("same-value update reported change")
	}
}
