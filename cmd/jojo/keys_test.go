package main

import (
	"reflect"
	"testing"
	"time"
)

func TestBrowserKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"up", "ArrowUp"},
		{"down", "ArrowDown"},
		{"left", "ArrowLeft"},
		{"right", "ArrowRight"},
		{" ", " "},
		{"space", " "},
		{"w", "w"},
		{"D", "D"},
		{"ctrl+c", ""},
		{"enter", ""},
	}
	for _, tt := range tests {
		if got := browserKey(tt.in); got != tt.want {
			t.Errorf("browserKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeyReleaser(t *testing.T) {
	r := newKeyReleaser(600 * time.Millisecond)
	t0 := time.Unix(0, 0)

	if r.Press("w", t0) {
		t.Error("first press reported as repeat")
	}
	if !r.Press("w", t0.Add(500*time.Millisecond)) {
		t.Error("second press not reported as repeat")
	}
	r.Press("a", t0.Add(550*time.Millisecond))

	if got := r.Expired(t0.Add(1000 * time.Millisecond)); len(got) != 0 {
		t.Errorf("Expired too early: %v", got)
	}
	if got := r.Expired(t0.Add(1100 * time.Millisecond)); !reflect.DeepEqual(got, []string{"w"}) {
		t.Errorf("Expired = %v, want [w]", got)
	}
	if r.Press("w", t0.Add(1200*time.Millisecond)) {
		t.Error("press after release reported as repeat")
	}

	if got := r.Forget(); !reflect.DeepEqual(got, []string{"a", "w"}) {
		t.Errorf("Forget = %v, want [a w]", got)
	}
	if got := r.Expired(t0.Add(time.Hour)); len(got) != 0 {
		t.Errorf("Expired after Forget = %v", got)
	}
}
