package relay

import (
	"context"
	"fmt"

	"github.com/gwillem/jojo/pkg/control"
)

// Dispatcher delivers one command.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd control.Command) error
}

// Router sends each command to the dispatcher for its channel. A nil route
// rejects the command with ErrUnsupported.
type Router struct {
	Arm    Dispatcher
	Drive  Dispatcher
	Action Dispatcher
}

// Dispatch implements Dispatcher.
func (r Router) Dispatch(ctx context.Context, cmd control.Command) error {
	var d Dispatcher
	switch cmd.Channel {
	case control.ChannelArm:
		d = r.Arm
	case control.ChannelDrive:
		d = r.Drive
	case control.ChannelAction:
		d = r.Action
	}
	if d == nil {
		return fmt.Errorf("%w: no route for %s", ErrUnsupported, cmd.Channel)
	}
	return d.Dispatch(ctx, cmd)
}
