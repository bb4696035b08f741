package main

import (
	"testing"

	"github.com/gwillem/jojo/pkg/control"
)

func TestStickBox_Geometry(t *testing.T) {
	boxes := layoutSticks()
	left, right := boxes[0], boxes[1]

	if !left.contains(0, stickTop) || left.contains(0, stickTop-1) {
		t.Error("left box bounds wrong at top-left corner")
	}
	if left.contains(right.col, stickTop+1) || !right.contains(right.col, stickTop+1) {
		t.Error("boxes overlap")
	}
	if left.token() != control.TokenLeftStick || right.token() != control.TokenRightStick {
		t.Error("wrong tokens")
	}

	// The center cell of the box maps to the surface center.
	b := left.bounds()
	cx, cy := b.Center()
	x, y := cellToSurface(left.col+(stickInnerW+2)/2, left.row+(stickInnerH+2)/2)
	if x-cx != 0.5 || y != cy {
		t.Errorf("center cell maps to (%v,%v), surface center (%v,%v)", x, y, cx, cy)
	}

	s := control.Surface{Bounds: b, Margin: stickMargin}
	if r := s.MaxRadius(); r != 11 {
		t.Errorf("MaxRadius = %v, want 11", r)
	}
}

func TestKnobCell(t *testing.T) {
	tests := []struct {
		off      control.Vec
		col, row int
	}{
		{control.Vec{}, 14, 5},
		{control.Vec{DX: 11}, 25, 5},
		{control.Vec{DX: -11}, 3, 5},
		{control.Vec{DY: -11}, 14, 0},
		{control.Vec{DY: 11}, 14, 11 - 1},
		{control.Vec{DX: 500, DY: 500}, stickInnerW - 1, stickInnerH - 1},
	}
	for _, tt := range tests {
		col, row := knobCell(tt.off)
		if col != tt.col || row != tt.row {
			t.Errorf("knobCell(%v) = (%d,%d), want (%d,%d)", tt.off, col, row, tt.col, tt.row)
		}
	}
}
