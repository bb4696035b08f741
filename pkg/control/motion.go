package control

import (
	"github.com/gwillem/jojo/pkg/robot"
)

// Motion is the locomotion state machine: STOPPED or MOVING(direction).
//
// Presses are dropped while the dispatch gate is closed. Stops bypass the gate
// so a release can never be lost, but still hold it so the next press waits
// for the stop to settle.
type Motion struct {
	sel     *robot.Selector
	gate    Gate
	state   Direction
	holding bool
}

// NewMotion creates a stopped state machine.
func NewMotion(sel *robot.Selector) *Motion {
	return &Motion{
		sel:   sel,
		state: Stop,
	}
}

// State returns the current direction, Stop when the base is stopped.
func (m *Motion) State() Direction {
	return m.state
}

// Moving reports whether the base was last commanded to move.
func (m *Motion) Moving() bool {
	return m.state != Stop
}

// InFlight reports whether a locomotion command holds the gate.
func (m *Motion) InFlight() bool {
	return !m.gate.Open()
}

// Press commands dir. It returns false when no robot is selected or the gate
// dropped the press. Pressing Stop is a stop and is never dropped.
func (m *Motion) Press(dir Direction) (Command, bool) {
	if dir == Stop {
		return m.stop()
	}
	if !dir.Valid() {
		return Command{}, false
	}
	sel, ok := m.sel.Current()
	if !ok {
		return Command{}, false
	}

	m.holding = true
	if !m.gate.TryAcquire() {
		return Command{}, false
	}
	m.state = dir
	return newCommand(sel, ChannelDrive, string(dir), nil), true
}

// Release stops the base. Only the first release after a press emits a stop,
// so a mouseup and touchend for the same gesture yield one command.
func (m *Motion) Release() (Command, bool) {
	if !m.holding {
		return Command{}, false
	}
	return m.stop()
}

func (m *Motion) stop() (Command, bool) {
	sel, ok := m.sel.Current()
	if !ok {
		return Command{}, false
	}
	m.holding = false
	m.gate.Acquire()
	m.state = Stop
	return newCommand(sel, ChannelDrive, string(Stop), nil), true
}

// Action builds a one-shot action command. Actions bypass the gate and leave
// the locomotion state alone.
func (m *Motion) Action(name string) (Command, bool) {
	if name == "" {
		return Command{}, false
	}
	sel, ok := m.sel.Current()
	if !ok {
		return Command{}, false
	}
	return newCommand(sel, ChannelAction, name, nil), true
}

// Settle is called once per drive command, a cool-down after it finished.
func (m *Motion) Settle() {
	m.gate.Settle()
}
