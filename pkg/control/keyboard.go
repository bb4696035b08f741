package control

// KeyMap maps keyboard key values to locomotion directions.
var KeyMap = map[string]Direction{
	"ArrowUp":    Forward,
	"w":          Forward,
	"W":          Forward,
	"ArrowDown":  Backward,
	"s":          Backward,
	"S":          Backward,
	"ArrowLeft":  Left,
	"a":          Left,
	"A":          Left,
	"ArrowRight": Right,
	"d":          Right,
	"D":          Right,
	" ":          Stop,
}

// IsMoveKey reports whether releasing key stops the base. Space is mapped
// but is not a movement key.
func IsMoveKey(key string) bool {
	dir, ok := KeyMap[key]
	return ok && dir != Stop
}

// KeyboardAdapter turns key down/up events into Press and Release. Auto-repeat
// is collapsed: only the first keydown of a hold produces a Press.
type KeyboardAdapter struct {
	held map[Direction]bool
}

// NewKeyboardAdapter creates an adapter with no keys held.
func NewKeyboardAdapter() *KeyboardAdapter {
	return &KeyboardAdapter{held: make(map[Direction]bool)}
}

// KeyDown handles a key press. repeat is the platform's auto-repeat flag, if
// it reports one.
func (k *KeyboardAdapter) KeyDown(key string, repeat bool) (InputEvent, bool) {
	dir, ok := KeyMap[key]
	if !ok {
		return nil, false
	}
	if repeat || k.held[dir] {
		return nil, false
	}
	k.held[dir] = true
	return Press{Token: string(dir)}, true
}

// KeyUp handles a key release. Holds are tracked per direction, so "W" going
// up releases a "w" that went down before Shift was pressed.
func (k *KeyboardAdapter) KeyUp(key string) (InputEvent, bool) {
	dir, ok := KeyMap[key]
	if !ok {
		return nil, false
	}
	delete(k.held, dir)
	if !IsMoveKey(key) {
		return nil, false
	}
	return Release{Token: TokenDrive}, true
}

// Held reports whether a key mapped to the same direction as key is down.
func (k *KeyboardAdapter) Held(key string) bool {
	dir, ok := KeyMap[key]
	return ok && k.held[dir]
}
