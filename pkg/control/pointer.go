package control

// Point is a client coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerEvent is a native mouse or touch event as reported by the UI.
// Target is the token of the control under the pointer, empty for the
// document itself.
type PointerEvent struct {
	Type    string  `json:"type"`
	Target  string  `json:"target,omitempty"`
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	Touches []Point `json:"touches,omitempty"`
}

// PointerAdapter translates mouse and touch events into canonical events.
type PointerAdapter struct{}

// Translate maps one native event. Unknown types and moves without a
// position yield nothing.
func (PointerAdapter) Translate(ev PointerEvent) (InputEvent, bool) {
	switch ev.Type {
	case "mousedown", "touchstart":
		if ev.Target == "" {
			return nil, false
		}
		return Press{Token: ev.Target}, true
	case "mouseup", "touchend", "touchcancel":
		// Sticks are released on any pointer-up, wherever it lands.
		return Release{}, true
	case "mousemove":
		return Move{X: ev.ClientX, Y: ev.ClientY}, true
	case "touchmove":
		if len(ev.Touches) == 0 {
			return nil, false
		}
		return Move{X: ev.Touches[0].X, Y: ev.Touches[0].Y}, true
	}
	return nil, false
}
