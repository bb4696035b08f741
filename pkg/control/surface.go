package control

import (
	"math"

	"github.com/gwillem/jojo/pkg/robot"
)

// Side names one of the two gesture surfaces.
type Side string

const (
	LeftSurface  Side = "left"
	RightSurface Side = "right"
)

// DefaultMargin keeps the stick knob inside the surface border, in pixels.
const DefaultMargin = 40

// Rect is an axis-aligned box in client coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Center returns the visual center of the box.
func (r Rect) Center() (cx, cy float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Vec is a 2D offset in pixels.
type Vec struct {
	DX, DY float64
}

// Len returns the magnitude of v.
func (v Vec) Len() float64 {
	return math.Hypot(v.DX, v.DY)
}

// Surface is one virtual joystick.
type Surface struct {
	Side   Side
	Bounds Rect
	Margin float64

	active bool
	offset Vec
}

// MaxRadius is how far the knob may travel from the center.
func (s Surface) MaxRadius() float64 {
	return s.Bounds.W/2 - s.Margin
}

// Active reports whether a gesture is in progress on the surface.
func (s Surface) Active() bool {
	return s.active
}

// Offset returns the knob's displacement from the center.
func (s Surface) Offset() Vec {
	return s.offset
}

// sample moves the knob toward the pointer at (x, y) and returns the clamped
// offset. ok is false when the surface has no usable radius.
func (s *Surface) sample(x, y float64) (Vec, bool) {
	r := s.MaxRadius()
	if r <= 0 {
		return Vec{}, false
	}
	cx, cy := s.Bounds.Center()
	s.offset = ClampOffset(Vec{DX: x - cx, DY: y - cy}, r)
	return s.offset, true
}

func (s *Surface) release() {
	s.active = false
	s.offset = Vec{}
}

// ClampOffset limits v to maxRadius, keeping its angle.
func ClampOffset(v Vec, maxRadius float64) Vec {
	if v.Len() <= maxRadius {
		return v
	}
	angle := math.Atan2(v.DY, v.DX)
	return Vec{
		DX: math.Cos(angle) * maxRadius,
		DY: math.Sin(angle) * maxRadius,
	}
}

// AxisAngle maps an offset along one axis onto the joint range. The center
// maps to 90 degrees and the rim to 0 or 180. Screen Y grows downward, so
// vertical axes pass inverted=true to make "up" increase the angle.
func AxisAngle(d, maxRadius float64, inverted bool) int {
	if inverted {
		d = -d
	}
	deg := math.Round(robot.CenterAngle + d/maxRadius*robot.CenterAngle)
	return robot.ClampAngle(int(deg))
}
