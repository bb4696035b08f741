package main

import (
	"sort"
	"time"
)

// terminalKeys maps bubbletea key names to browser key values.
var terminalKeys = map[string]string{
	"up":    "ArrowUp",
	"down":  "ArrowDown",
	"left":  "ArrowLeft",
	"right": "ArrowRight",
	" ":     " ",
	"space": " ",
}

// browserKey converts a bubbletea key name to the key value the keyboard
// adapter expects. Single characters pass through.
func browserKey(name string) string {
	if k, ok := terminalKeys[name]; ok {
		return k
	}
	if len([]rune(name)) == 1 {
		return name
	}
	return ""
}

// keyReleaser synthesizes key-up events. Terminals only report presses; a
// held key shows up as a stream of auto-repeated presses, so a key counts as
// released once no press arrived for the timeout.
type keyReleaser struct {
	after time.Duration
	seen  map[string]time.Time
}

func newKeyReleaser(after time.Duration) *keyReleaser {
	return &keyReleaser{after: after, seen: make(map[string]time.Time)}
}

// Press records a press at now and reports whether it is an auto-repeat of
// a key that is still held.
func (r *keyReleaser) Press(key string, now time.Time) (repeat bool) {
	_, repeat = r.seen[key]
	r.seen[key] = now
	return repeat
}

// Expired returns the keys whose last press is older than the timeout and
// forgets them.
func (r *keyReleaser) Expired(now time.Time) []string {
	var out []string
	for k, t := range r.seen {
		if now.Sub(t) >= r.after {
			out = append(out, k)
			delete(r.seen, k)
		}
	}
	sort.Strings(out)
	return out
}

// Forget drops all held keys and returns them.
func (r *keyReleaser) Forget() []string {
	out := make([]string, 0, len(r.seen))
	for k := range r.seen {
		out = append(out, k)
	}
	clear(r.seen)
	sort.Strings(out)
	return out
}
