package control

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestClampOffset_OutsideRadius(t *testing.T) {
	const r = 60.0
	tests := []Vec{
		{DX: 100, DY: 0},
		{DX: 0, DY: -250},
		{DX: 90, DY: 90},
		{DX: -61, DY: 0.5},
		{DX: -1e6, DY: 3e5},
	}

	for _, v := range tests {
		got := ClampOffset(v, r)
		if !floatEquals(got.Len(), r) {
			t.Errorf("ClampOffset(%v) has length %f, want %f", v, got.Len(), r)
		}
		wantAngle := math.Atan2(v.DY, v.DX)
		gotAngle := math.Atan2(got.DY, got.DX)
		if !floatEquals(wantAngle, gotAngle) {
			t.Errorf("ClampOffset(%v) angle = %f, want %f", v, gotAngle, wantAngle)
		}
	}
}

func TestClampOffset_InsideRadiusUnchanged(t *testing.T) {
	v := Vec{DX: 10, DY: -20}
	if got := ClampOffset(v, 60); got != v {
		t.Errorf("ClampOffset(%v) = %v, want unchanged", v, got)
	}

	edge := Vec{DX: 60, DY: 0}
	if got := ClampOffset(edge, 60); got != edge {
		t.Errorf("ClampOffset(%v) = %v, want unchanged", edge, got)
	}
}

func TestAxisAngle(t *testing.T) {
	tests := []struct {
		d        float64
		inverted bool
		expected int
	}{
		{0, false, 90},
		{60, false, 180},
		{-60, false, 0},
		{30, false, 135},
		{60, true, 0},   // pointer below center lowers the joint
		{-60, true, 180}, // pointer above center raises it
		{-30, true, 135},
		{0.2, false, 90}, // rounds to nearest degree
		{1e-12 - 60, false, 0},
	}

	for _, tt := range tests {
		got := AxisAngle(tt.d, 60, tt.inverted)
		if got != tt.expected {
			t.Errorf("AxisAngle(%f, inverted=%v) = %d, want %d", tt.d, tt.inverted, got, tt.expected)
		}
	}
}

func TestSurface_MaxRadius(t *testing.T) {
	s := Surface{Bounds: Rect{W: 200, H: 200}, Margin: DefaultMargin}
	if got := s.MaxRadius(); got != 60 {
		t.Errorf("MaxRadius() = %f, want 60", got)
	}

	small := Surface{Bounds: Rect{W: 60, H: 60}, Margin: DefaultMargin}
	if _, ok := small.sample(10, 10); ok {
		t.Error("sample should fail on a surface without usable radius")
	}
}
