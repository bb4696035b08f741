package control

import (
	"github.com/gwillem/jojo/pkg/robot"
)

// axisJoints assigns each surface's horizontal and vertical axis to a joint.
var axisJoints = map[Side][2]robot.JointName{
	LeftSurface:  {robot.Base, robot.Shoulder},
	RightSurface: {robot.Elbow, robot.Wrist},
}

// ArmMapper owns the commanded arm pose. It turns samples from the two
// gesture surfaces into joint angles and emits one command per mapped joint.
//
// Every sample re-emits both joints of its surface even when the angle did not
// change; the relay must tolerate redundant commands.
type ArmMapper struct {
	sel      *robot.Selector
	angles   robot.JointAngles
	surfaces map[Side]*Surface
}

// NewArmMapper creates a mapper in the rest pose. Surfaces start with empty
// bounds; call Layout once their size is known.
func NewArmMapper(sel *robot.Selector, margin float64) *ArmMapper {
	return &ArmMapper{
		sel:    sel,
		angles: robot.DefaultAngles(),
		surfaces: map[Side]*Surface{
			LeftSurface:  {Side: LeftSurface, Margin: margin},
			RightSurface: {Side: RightSurface, Margin: margin},
		},
	}
}

// Layout sets the on-screen bounds of a surface.
func (m *ArmMapper) Layout(side Side, bounds Rect) {
	if s, ok := m.surfaces[side]; ok {
		s.Bounds = bounds
	}
}

// Surface returns a copy of the surface state for display.
func (m *ArmMapper) Surface(side Side) Surface {
	if s, ok := m.surfaces[side]; ok {
		return *s
	}
	return Surface{}
}

// Angles returns a copy of the commanded pose.
func (m *ArmMapper) Angles() robot.JointAngles {
	return m.angles.Clone()
}

// GripperClosed reports the binary gripper state.
func (m *ArmMapper) GripperClosed() bool {
	return m.angles[robot.Gripper] == robot.GripperClosed
}

// Press starts a gesture on side. Ignored while no robot is selected.
func (m *ArmMapper) Press(side Side) {
	if _, ok := m.sel.Current(); !ok {
		return
	}
	if s, ok := m.surfaces[side]; ok {
		s.active = true
	}
}

// Move feeds a pointer sample to every active surface.
func (m *ArmMapper) Move(x, y float64) []Command {
	sel, ok := m.sel.Current()
	if !ok {
		return nil
	}

	var cmds []Command
	for _, side := range []Side{LeftSurface, RightSurface} {
		s := m.surfaces[side]
		if !s.active {
			continue
		}
		off, ok := s.sample(x, y)
		if !ok {
			continue
		}
		r := s.MaxRadius()
		joints := axisJoints[side]
		m.angles[joints[0]] = AxisAngle(off.DX, r, false)
		m.angles[joints[1]] = AxisAngle(off.DY, r, true)
		for _, j := range joints {
			cmds = append(cmds, jointCommand(sel, j, m.angles[j]))
		}
	}
	return cmds
}

// Release ends the gesture on side and recenters its knob. The commanded
// pose is kept.
func (m *ArmMapper) Release(side Side) {
	if s, ok := m.surfaces[side]; ok {
		s.release()
	}
}

// ReleaseAll ends gestures on both surfaces.
func (m *ArmMapper) ReleaseAll() {
	for _, s := range m.surfaces {
		s.release()
	}
}

// ToggleGripper flips the gripper between open and closed. The pose changes
// even without a selected robot; only the command is skipped.
func (m *ArmMapper) ToggleGripper() []Command {
	if m.GripperClosed() {
		m.angles[robot.Gripper] = robot.GripperOpen
	} else {
		m.angles[robot.Gripper] = robot.GripperClosed
	}
	sel, ok := m.sel.Current()
	if !ok {
		return nil
	}
	return []Command{jointCommand(sel, robot.Gripper, m.angles[robot.Gripper])}
}

// Reset returns every joint to the rest pose and commands all five,
// including joints that were already there.
func (m *ArmMapper) Reset() []Command {
	m.angles = robot.DefaultAngles()
	sel, ok := m.sel.Current()
	if !ok {
		return nil
	}
	cmds := make([]Command, 0, len(m.angles))
	for _, j := range robot.AllJoints() {
		cmds = append(cmds, jointCommand(sel, j, m.angles[j]))
	}
	return cmds
}
