package control

import "time"

// DefaultCooldown is how long the gate stays closed after a request finishes.
const DefaultCooldown = 100 * time.Millisecond

// Gate guards a command channel against overlapping submissions. Each
// submission holds the gate until its cool-down elapses; the gate is open
// only when no submission is held.
type Gate struct {
	held int
}

// Open reports whether a new submission may start.
func (g *Gate) Open() bool {
	return g.held == 0
}

// TryAcquire takes the gate if it is open.
func (g *Gate) TryAcquire() bool {
	if g.held > 0 {
		return false
	}
	g.held++
	return true
}

// Acquire takes the gate unconditionally.
func (g *Gate) Acquire() {
	g.held++
}

// Settle releases one submission after its cool-down.
func (g *Gate) Settle() {
	if g.held > 0 {
		g.held--
	}
}
