package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/gwillem/jojo/pkg/control"
	"github.com/gwillem/jojo/pkg/robot"
)

// JointWriter moves a single joint. *robot.Arm implements it.
type JointWriter interface {
	WriteAngle(ctx context.Context, joint robot.JointName, deg int) error
}

// SerialDispatcher drives a locally attached arm over the servo bus. It only
// serves arm commands.
type SerialDispatcher struct {
	mu  sync.Mutex
	arm JointWriter
}

// NewSerialDispatcher wraps an arm.
func NewSerialDispatcher(arm JointWriter) *SerialDispatcher {
	return &SerialDispatcher{arm: arm}
}

// Dispatch writes one joint angle. Writes are serialized since the bus has a
// single master.
func (d *SerialDispatcher) Dispatch(ctx context.Context, cmd control.Command) error {
	if cmd.Channel != control.ChannelArm {
		return fmt.Errorf("%w: %s over serial", ErrUnsupported, cmd.Channel)
	}
	if cmd.Value == nil {
		return fmt.Errorf("joint command %s has no value", cmd.Target)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.arm.WriteAngle(ctx, robot.JointName(cmd.Target), *cmd.Value); err != nil {
		return fmt.Errorf("write %s: %w", cmd.Target, err)
	}
	return nil
}
