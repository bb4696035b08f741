// Package robot provides the robot-side model: arm joints, the selected robot,
// remote status, configuration and the serial arm driver.
package robot

// JointName identifies a controllable joint of the arm.
type JointName string

// Joints of the arm. The gripper is angle-typed but binary.
const (
	Base     JointName = "base"
	Shoulder JointName = "shoulder"
	Elbow    JointName = "elbow"
	Wrist    JointName = "wrist"
	Gripper  JointName = "gripper"
)

// Angle limits in degrees.
const (
	MinAngle    = 0
	MaxAngle    = 180
	CenterAngle = 90

	GripperOpen   = 0
	GripperClosed = 180
)

// AllJoints returns all joint names in order (matching servo IDs 1-5).
func AllJoints() []JointName {
	return []JointName{
		Base,
		Shoulder,
		Elbow,
		Wrist,
		Gripper,
	}
}

// MotionJoints returns the four joints driven by the gesture surfaces.
func MotionJoints() []JointName {
	return []JointName{Base, Shoulder, Elbow, Wrist}
}

// JointAngles maps each joint to its commanded angle in degrees.
type JointAngles map[JointName]int

// DefaultAngles returns the rest pose: motion joints centered, gripper open.
func DefaultAngles() JointAngles {
	return JointAngles{
		Base:     CenterAngle,
		Shoulder: CenterAngle,
		Elbow:    CenterAngle,
		Wrist:    CenterAngle,
		Gripper:  GripperOpen,
	}
}

// Clone returns a copy that can be handed out without sharing the map.
func (a JointAngles) Clone() JointAngles {
	out := make(JointAngles, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ClampAngle restricts deg to [MinAngle, MaxAngle].
func ClampAngle(deg int) int {
	if deg < MinAngle {
		return MinAngle
	}
	if deg > MaxAngle {
		return MaxAngle
	}
	return deg
}
