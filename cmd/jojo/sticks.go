package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gwillem/jojo/pkg/control"
)

// Joystick boxes in terminal cells. Surface coordinates scale rows by
// cellAspect so the knob travels the same distance in both directions.
const (
	stickInnerW = 28
	stickInnerH = 11
	stickGap    = 4
	stickTop    = 3 // title, status line, blank
	stickMargin = 4
	cellAspect  = 2
)

var (
	stickStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	stickActiveStyle = stickStyle.BorderForeground(lipgloss.Color("12"))
	knobStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// stickBox is a bordered joystick box placed at a cell position.
type stickBox struct {
	side     control.Side
	col, row int
}

func layoutSticks() []stickBox {
	return []stickBox{
		{side: control.LeftSurface, col: 0, row: stickTop},
		{side: control.RightSurface, col: stickInnerW + 2 + stickGap, row: stickTop},
	}
}

func (b stickBox) token() string {
	if b.side == control.LeftSurface {
		return control.TokenLeftStick
	}
	return control.TokenRightStick
}

// bounds is the box in surface coordinates, border included.
func (b stickBox) bounds() control.Rect {
	return control.Rect{
		X: float64(b.col),
		Y: float64(b.row * cellAspect),
		W: float64(stickInnerW + 2),
		H: float64((stickInnerH + 2) * cellAspect),
	}
}

func (b stickBox) contains(x, y int) bool {
	return x >= b.col && x < b.col+stickInnerW+2 &&
		y >= b.row && y < b.row+stickInnerH+2
}

// cellToSurface returns the surface coordinates of the center of a cell.
func cellToSurface(x, y int) (float64, float64) {
	return float64(x) + 0.5, (float64(y) + 0.5) * cellAspect
}

// knobCell returns the inner cell the knob is drawn in for offset off.
func knobCell(off control.Vec) (col, row int) {
	w := float64(stickInnerW + 2)
	h := float64((stickInnerH + 2) * cellAspect)
	col = int(math.Floor(w/2+off.DX)) - 1
	row = int(math.Floor((h/2+off.DY)/cellAspect)) - 1
	return min(max(col, 0), stickInnerW-1), min(max(row, 0), stickInnerH-1)
}

// renderStick draws one joystick box with its knob and a caption.
func renderStick(s control.Surface, caption string) string {
	kc, kr := knobCell(s.Offset())
	cc, cr := knobCell(control.Vec{})

	lines := make([]string, stickInnerH)
	for r := range stickInnerH {
		var sb strings.Builder
		for c := range stickInnerW {
			switch {
			case c == kc && r == kr:
				sb.WriteString(knobStyle.Render("●"))
			case c == cc && r == cr:
				sb.WriteString(dimStyle.Render("+"))
			case r == cr:
				sb.WriteString(dimStyle.Render("·"))
			default:
				sb.WriteByte(' ')
			}
		}
		lines[r] = sb.String()
	}

	style := stickStyle
	if s.Active() {
		style = stickActiveStyle
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		style.Render(strings.Join(lines, "\n")),
		dimStyle.Render(caption),
	)
}
