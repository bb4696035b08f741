package control

import (
	"math"
	"testing"

	"github.com/gwillem/jojo/pkg/robot"
)

// Both surfaces are 200x200 with a 40px margin: radius 60.
var (
	leftBounds  = Rect{X: 0, Y: 0, W: 200, H: 200}
	rightBounds = Rect{X: 300, Y: 0, W: 200, H: 200}
)

func newTestArm(t *testing.T, selected bool) *ArmMapper {
	t.Helper()
	sel := robot.NewSelector()
	if selected {
		sel.Select(robot.Selection{ID: "R1", Name: "Robot One", Address: "10.0.0.2"})
	}
	m := NewArmMapper(sel, DefaultMargin)
	m.Layout(LeftSurface, leftBounds)
	m.Layout(RightSurface, rightBounds)
	return m
}

func commandValues(cmds []Command) map[string]int {
	out := make(map[string]int, len(cmds))
	for _, c := range cmds {
		if c.Value != nil {
			out[c.Target] = *c.Value
		}
	}
	return out
}

func TestArmMapper_DragLeftToRim(t *testing.T) {
	m := newTestArm(t, true)

	m.Press(LeftSurface)
	cmds := m.Move(100+60, 100) // (maxRadius, 0) from center

	if len(cmds) != 2 {
		t.Fatalf("Move emitted %d commands, want 2", len(cmds))
	}
	vals := commandValues(cmds)
	if vals["base"] != 180 {
		t.Errorf("base = %d, want 180", vals["base"])
	}
	if vals["shoulder"] != 90 {
		t.Errorf("shoulder = %d, want 90", vals["shoulder"])
	}
	for _, c := range cmds {
		if c.RobotID != "R1" || c.Address != "10.0.0.2" || c.Channel != ChannelArm {
			t.Errorf("unexpected command addressing: %+v", c)
		}
	}

	m.Release(LeftSurface)
	s := m.Surface(LeftSurface)
	if s.Active() {
		t.Error("surface still active after release")
	}
	if s.Offset() != (Vec{}) {
		t.Errorf("offset after release = %v, want (0,0)", s.Offset())
	}

	angles := m.Angles()
	if angles[robot.Base] != 180 || angles[robot.Shoulder] != 90 {
		t.Errorf("angles changed on release: %v", angles)
	}
}

func TestArmMapper_RightSurfaceMapsElbowWrist(t *testing.T) {
	m := newTestArm(t, true)

	m.Press(RightSurface)
	cmds := m.Move(400, 100-30) // 30px up from center

	vals := commandValues(cmds)
	if vals["elbow"] != 90 || vals["wrist"] != 135 {
		t.Errorf("got %v, want elbow=90 wrist=135", vals)
	}
	if _, ok := vals["base"]; ok {
		t.Error("right surface must not command base")
	}
}

func TestArmMapper_AnglesStayInRange(t *testing.T) {
	m := newTestArm(t, true)
	m.Press(LeftSurface)
	m.Press(RightSurface)

	for x := -1000.0; x <= 1500; x += 37 {
		for y := -800.0; y <= 900; y += 41 {
			for _, c := range m.Move(x, y) {
				if *c.Value < 0 || *c.Value > 180 {
					t.Fatalf("Move(%f, %f) produced %s", x, y, c)
				}
			}
		}
	}

	for _, side := range []Side{LeftSurface, RightSurface} {
		s := m.Surface(side)
		if s.Offset().Len() > s.MaxRadius()+floatTolerance {
			t.Errorf("%s knob left its surface: %v", side, s.Offset())
		}
	}
}

func TestArmMapper_ClampsFarExcursion(t *testing.T) {
	m := newTestArm(t, true)
	m.Press(LeftSurface)
	m.Move(100+600, 100-600)

	off := m.Surface(LeftSurface).Offset()
	if math.Abs(off.Len()-60) > 1e-9 {
		t.Errorf("offset length = %f, want 60", off.Len())
	}
	angles := m.Angles()
	// 45 degrees up-right: both axes at cos(45)*90 from center.
	if angles[robot.Base] != 154 || angles[robot.Shoulder] != 154 {
		t.Errorf("angles = %v, want base=154 shoulder=154", angles)
	}
}

func TestArmMapper_IgnoresInactiveAndUnselected(t *testing.T) {
	m := newTestArm(t, true)
	if cmds := m.Move(160, 100); len(cmds) != 0 {
		t.Errorf("inactive surface emitted %d commands", len(cmds))
	}

	u := newTestArm(t, false)
	u.Press(LeftSurface)
	if u.Surface(LeftSurface).Active() {
		t.Error("press must be ignored without a selected robot")
	}
	if cmds := u.Move(160, 100); len(cmds) != 0 {
		t.Errorf("unselected mapper emitted %d commands", len(cmds))
	}
	if cmds := u.Reset(); cmds != nil {
		t.Error("reset must be a no-op without a selected robot")
	}
	if cmds := u.ToggleGripper(); cmds != nil {
		t.Error("gripper toggle must be a no-op without a selected robot")
	}
}

func TestArmMapper_PoseChangesWithoutSelection(t *testing.T) {
	m := newTestArm(t, false)

	if cmds := m.ToggleGripper(); cmds != nil {
		t.Errorf("toggle without a robot sent %v", cmds)
	}
	if !m.GripperClosed() {
		t.Error("gripper state should flip without a selected robot")
	}

	m.ToggleGripper()
	m.ToggleGripper()
	if cmds := m.Reset(); cmds != nil {
		t.Errorf("reset without a robot sent %v", cmds)
	}
	want := robot.DefaultAngles()
	for j, v := range m.Angles() {
		if v != want[j] {
			t.Errorf("state %s = %d, want %d after reset", j, v, want[j])
		}
	}
}

func TestArmMapper_RedundantSamplesReemit(t *testing.T) {
	m := newTestArm(t, true)
	m.Press(LeftSurface)

	first := m.Move(120, 100)
	second := m.Move(120, 100)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("got %d and %d commands, want 2 each", len(first), len(second))
	}
}

func TestArmMapper_ToggleGripper(t *testing.T) {
	m := newTestArm(t, true)

	cmds := m.ToggleGripper()
	if len(cmds) != 1 || cmds[0].Target != "gripper" || *cmds[0].Value != robot.GripperClosed {
		t.Fatalf("first toggle = %v, want gripper=180", cmds)
	}
	if !m.GripperClosed() {
		t.Error("gripper should be closed")
	}

	cmds = m.ToggleGripper()
	if len(cmds) != 1 || *cmds[0].Value != robot.GripperOpen {
		t.Fatalf("second toggle = %v, want gripper=0", cmds)
	}
	if m.Angles()[robot.Gripper] != robot.GripperOpen {
		t.Error("two toggles should return to open")
	}
}

func TestArmMapper_Reset(t *testing.T) {
	m := newTestArm(t, true)
	m.Press(LeftSurface)
	m.Move(0, 0)
	m.Press(RightSurface)
	m.Move(500, 200)
	m.ToggleGripper()

	cmds := m.Reset()
	if len(cmds) != 5 {
		t.Fatalf("Reset emitted %d commands, want 5", len(cmds))
	}

	want := robot.DefaultAngles()
	got := commandValues(cmds)
	for j, v := range want {
		if got[string(j)] != v {
			t.Errorf("reset command %s = %d, want %d", j, got[string(j)], v)
		}
	}
	for j, v := range m.Angles() {
		if v != want[j] {
			t.Errorf("state %s = %d, want %d", j, v, want[j])
		}
	}

	// Reset from the rest pose still commands every joint.
	if cmds := m.Reset(); len(cmds) != 5 {
		t.Errorf("second Reset emitted %d commands, want 5", len(cmds))
	}
}
