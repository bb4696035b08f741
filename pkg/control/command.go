// Package control turns operator input into actuator commands.
//
// It holds the two controllers of the console: ArmMapper converts gestures on
// the two virtual joysticks into joint angles, and Motion converts press and
// release events into locomotion commands behind a dispatch gate. Neither is
// safe for concurrent use; the owner drives them from a single event loop.
package control

import (
	"fmt"

	"github.com/gwillem/jojo/pkg/robot"
)

// Channel groups commands by the part of the robot they address.
type Channel int

const (
	// ChannelArm carries joint angle commands.
	ChannelArm Channel = iota
	// ChannelDrive carries locomotion commands. Only this channel is gated.
	ChannelDrive
	// ChannelAction carries one-shot actions (horn, lights, ...).
	ChannelAction
)

func (c Channel) String() string {
	switch c {
	case ChannelArm:
		return "arm"
	case ChannelDrive:
		return "drive"
	case ChannelAction:
		return "action"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Command is one request for the command relay.
type Command struct {
	Channel Channel
	RobotID string
	Address string
	// Target is a joint name for arm commands, a direction or action otherwise.
	Target string
	// Value is the joint angle; nil for drive and action commands.
	Value *int
}

func (c Command) String() string {
	if c.Value == nil {
		return fmt.Sprintf("%s %s", c.Channel, c.Target)
	}
	return fmt.Sprintf("%s %s=%d", c.Channel, c.Target, *c.Value)
}

func newCommand(sel robot.Selection, ch Channel, target string, value *int) Command {
	return Command{
		Channel: ch,
		RobotID: sel.ID,
		Address: sel.Address,
		Target:  target,
		Value:   value,
	}
}

func jointCommand(sel robot.Selection, joint robot.JointName, deg int) Command {
	v := deg
	return newCommand(sel, ChannelArm, string(joint), &v)
}
