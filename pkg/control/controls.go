package control

// Controls routes canonical input events to the two controllers.
type Controls struct {
	Arm    *ArmMapper
	Motion *Motion
}

// Handle applies ev and returns the commands it produced, in emission order.
func (c Controls) Handle(ev InputEvent) []Command {
	switch ev := ev.(type) {
	case Press:
		if side, ok := StickSide(ev.Token); ok {
			c.Arm.Press(side)
			return nil
		}
		if cmd, ok := c.Motion.Press(Direction(ev.Token)); ok {
			return []Command{cmd}
		}
	case Release:
		if side, ok := StickSide(ev.Token); ok {
			c.Arm.Release(side)
			return nil
		}
		if ev.Token == "" {
			c.Arm.ReleaseAll()
		}
		// Release is unconditional: it does not have to match the held direction.
		if cmd, ok := c.Motion.Release(); ok {
			return []Command{cmd}
		}
	case Move:
		return c.Arm.Move(ev.X, ev.Y)
	}
	return nil
}
