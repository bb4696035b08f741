package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/jojo/pkg/control"
	"github.com/gwillem/jojo/pkg/robot"
)

type recordingDispatcher struct {
	cmds []control.Command
}

func (d *recordingDispatcher) Dispatch(_ context.Context, cmd control.Command) error {
	d.cmds = append(d.cmds, cmd)
	return nil
}

type fakeArm struct {
	writes map[robot.JointName]int
	err    error
}

func (a *fakeArm) WriteAngle(_ context.Context, joint robot.JointName, deg int) error {
	if a.err != nil {
		return a.err
	}
	a.writes[joint] = deg
	return nil
}

func TestRouter(t *testing.T) {
	arm, drive := &recordingDispatcher{}, &recordingDispatcher{}
	r := Router{Arm: arm, Drive: drive}
	ctx := context.Background()

	require.NoError(t, r.Dispatch(ctx, control.Command{Channel: control.ChannelArm, Target: "base", Value: intp(10)}))
	require.NoError(t, r.Dispatch(ctx, control.Command{Channel: control.ChannelDrive, Target: "forward"}))

	err := r.Dispatch(ctx, control.Command{Channel: control.ChannelAction, Target: "horn"})
	assert.ErrorIs(t, err, ErrUnsupported)

	assert.Len(t, arm.cmds, 1)
	assert.Len(t, drive.cmds, 1)
	assert.Equal(t, "forward", drive.cmds[0].Target)
}

func TestSerialDispatcher(t *testing.T) {
	arm := &fakeArm{writes: map[robot.JointName]int{}}
	d := NewSerialDispatcher(arm)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, control.Command{Channel: control.ChannelArm, Target: "elbow", Value: intp(45)}))
	assert.Equal(t, 45, arm.writes[robot.Elbow])

	err := d.Dispatch(ctx, control.Command{Channel: control.ChannelDrive, Target: "forward"})
	assert.ErrorIs(t, err, ErrUnsupported)

	err = d.Dispatch(ctx, control.Command{Channel: control.ChannelArm, Target: "elbow"})
	assert.Error(t, err)

	arm.err = errors.New("bus timeout")
	err = d.Dispatch(ctx, control.Command{Channel: control.ChannelArm, Target: "wrist", Value: intp(1)})
	assert.ErrorContains(t, err, "bus timeout")
}
