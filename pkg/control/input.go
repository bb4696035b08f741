package control

// Direction is a locomotion intent.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
	Left     Direction = "left"
	Right    Direction = "right"
	Stop     Direction = "stop"
)

// Valid reports whether d is one of the locomotion directions or Stop.
func (d Direction) Valid() bool {
	switch d {
	case Forward, Backward, Left, Right, Stop:
		return true
	}
	return false
}

// Tokens that address the gesture surfaces. Every other press token is a
// Direction.
const (
	TokenLeftStick  = "stick:left"
	TokenRightStick = "stick:right"
	// TokenDrive scopes a release to the locomotion controls only.
	TokenDrive = "drive"
)

// InputEvent is the canonical event consumed by the controllers. Adapters
// translate mouse, touch and keyboard events into Press, Release and Move.
type InputEvent interface {
	inputEvent()
}

// Press starts holding the control named by Token.
type Press struct {
	Token string
}

// Release ends a hold. An empty Token releases every held control.
type Release struct {
	Token string
}

// Move is a pointer sample in absolute client coordinates.
type Move struct {
	X, Y float64
}

func (Press) inputEvent()   {}
func (Release) inputEvent() {}
func (Move) inputEvent()    {}

// StickSide returns the surface addressed by token, if any.
func StickSide(token string) (Side, bool) {
	switch token {
	case TokenLeftStick:
		return LeftSurface, true
	case TokenRightStick:
		return RightSurface, true
	}
	return "", false
}
