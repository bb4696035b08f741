package teleop

import "time"

// NoticeKind is the severity of a toast.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

func (k NoticeKind) String() string {
	if k == NoticeError {
		return "error"
	}
	return "success"
}

// Notice is a transient message for the operator.
type Notice struct {
	Kind    NoticeKind
	Message string
	At      time.Time
}

// Toast timing: slide in, stay, slide out.
const (
	ToastDuration = 3 * time.Second
	ToastSlide    = 300 * time.Millisecond
)

// Toast is a notice on screen.
type Toast struct {
	Notice
	Shown time.Time
}

// Offset returns how far the toast is pushed off-screen, from width (hidden)
// to 0 (fully visible).
func (t Toast) Offset(now time.Time, width int) int {
	age := now.Sub(t.Shown)
	switch {
	case age < 0:
		return width
	case age < ToastSlide:
		return width - int(int64(width)*int64(age)/int64(ToastSlide))
	case age < ToastDuration:
		return 0
	case age < ToastDuration+ToastSlide:
		return int(int64(width) * int64(age-ToastDuration) / int64(ToastSlide))
	}
	return width
}

// Expired reports whether the toast has fully slid out.
func (t Toast) Expired(now time.Time) bool {
	return now.Sub(t.Shown) >= ToastDuration+ToastSlide
}

// Animating reports whether the toast is sliding at now.
func (t Toast) Animating(now time.Time) bool {
	age := now.Sub(t.Shown)
	return age < ToastSlide || (age >= ToastDuration && age < ToastDuration+ToastSlide)
}

// Toasts is the stack of visible toasts, oldest first.
type Toasts []Toast

// Push shows n at now.
func (ts Toasts) Push(n Notice, now time.Time) Toasts {
	return append(ts, Toast{Notice: n, Shown: now})
}

// Prune drops expired toasts.
func (ts Toasts) Prune(now time.Time) Toasts {
	out := ts[:0]
	for _, t := range ts {
		if !t.Expired(now) {
			out = append(out, t)
		}
	}
	return out
}
