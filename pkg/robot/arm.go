package robot

import (
	"context"
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// Arm drives a serially attached arm with one feetech servo per joint.
type Arm struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration
}

// NewArm opens the serial bus and groups the calibrated servos.
func NewArm(port string, cal Calibration) (*Arm, error) {
	if len(cal) == 0 {
		return nil, fmt.Errorf("arm on %s is not calibrated", port)
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	group := feetech.NewServoGroupByIDs(bus, cal.ServoIDs()...)

	return &Arm{
		bus:         bus,
		group:       group,
		calibration: cal,
	}, nil
}

// Close closes the arm's bus connection.
func (a *Arm) Close() error {
	return a.bus.Close()
}

// Enable enables torque on all servos.
func (a *Arm) Enable(ctx context.Context) error {
	return a.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (a *Arm) Disable(ctx context.Context) error {
	return a.group.DisableAll(ctx)
}

// ReadAngles reads the current angle of every calibrated joint.
func (a *Arm) ReadAngles(ctx context.Context) (JointAngles, error) {
	raw, err := a.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	angles := make(JointAngles, len(raw))
	for id, pos := range raw {
		name, cal, ok := a.calibration.ByID(id)
		if !ok {
			continue
		}
		angles[name] = cal.ToDegrees(pos)
	}

	return angles, nil
}

// WriteAngle moves a single joint to deg.
func (a *Arm) WriteAngle(ctx context.Context, joint JointName, deg int) error {
	cal, ok := a.calibration[joint]
	if !ok {
		return fmt.Errorf("joint %s is not calibrated", joint)
	}

	positions := feetech.PositionMap{cal.ID: cal.ToRaw(deg)}
	if err := a.group.SetPositions(ctx, positions); err != nil {
		return fmt.Errorf("write %s: %w", joint, err)
	}

	return nil
}
