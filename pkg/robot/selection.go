package robot

import (
	"errors"
	"sync"
)

// ErrNoSelection is returned when an operation needs a robot and none is selected.
var ErrNoSelection = errors.New("no robot selected")

// Selection identifies the robot the operator is driving.
type Selection struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Selector holds the operator's robot selection. It is shared read-only by the
// controllers; only the operator surface calls Select.
type Selector struct {
	mu  sync.RWMutex
	sel *Selection
}

// NewSelector returns an empty selector. Until Select is called every
// dispatch is a no-op.
func NewSelector() *Selector {
	return &Selector{}
}

// Select sets the current robot.
func (s *Selector) Select(sel Selection) {
	s.mu.Lock()
	s.sel = &sel
	s.mu.Unlock()
}

// Current returns the selected robot, if any.
func (s *Selector) Current() (Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sel == nil {
		return Selection{}, false
	}
	return *s.sel, true
}
