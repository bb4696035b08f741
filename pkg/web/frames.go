package web

import (
	"time"

	"github.com/gwillem/jojo/pkg/control"
	"github.com/gwillem/jojo/pkg/robot"
	"github.com/gwillem/jojo/pkg/teleop"
)

// Frame kinds sent by the browser.
const (
	KindPointer = "pointer"
	KindKey     = "key"
	KindLayout  = "layout"
	KindClick   = "click"
	KindSelect  = "select"
)

// Click controls.
const (
	ClickGripper = "gripper"
	ClickReset   = "reset"
	ClickAudio   = "audio"
	ClickDismiss = "dismiss"
	ClickAction  = "action"
)

// Frame is one message from the browser.
type Frame struct {
	Kind string `json:"kind"`

	// pointer
	Event *control.PointerEvent `json:"event,omitempty"`

	// key
	Key    string `json:"key,omitempty"`
	Down   bool   `json:"down,omitempty"`
	Repeat bool   `json:"repeat,omitempty"`

	// layout
	Side   string  `json:"side,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// click
	Control string `json:"control,omitempty"`
	Name    string `json:"name,omitempty"`

	// select
	RobotID string `json:"robot_id,omitempty"`
}

// Outbound message types.
const (
	TypeView   = "view"
	TypeNotice = "notice"
	TypeLog    = "log"
	TypeError  = "error"
)

// Message is one message to the browser.
type Message struct {
	Type    string     `json:"type"`
	View    *ViewFrame `json:"view,omitempty"`
	Level   string     `json:"level,omitempty"`
	Message string     `json:"message,omitempty"`
}

// StickFrame is the knob state of one surface.
type StickFrame struct {
	Active    bool    `json:"active"`
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
	MaxRadius float64 `json:"max_radius"`
}

// ViewFrame is the JSON rendering of a session view.
type ViewFrame struct {
	Robot         *robot.Selection `json:"robot"`
	Angles        map[string]int   `json:"angles"`
	GripperClosed bool             `json:"gripper_closed"`
	Left          StickFrame       `json:"left"`
	Right         StickFrame       `json:"right"`
	Direction     string           `json:"direction"`
	InFlight      bool             `json:"in_flight"`
	Battery       *int             `json:"battery_level"`
	Online        bool             `json:"is_online"`
	Audio         bool             `json:"audio"`
	Alert         string           `json:"alert,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

func stickFrame(s control.Surface) StickFrame {
	off := s.Offset()
	return StickFrame{
		Active:    s.Active(),
		DX:        off.DX,
		DY:        off.DY,
		MaxRadius: s.MaxRadius(),
	}
}

func newViewFrame(v teleop.View) *ViewFrame {
	f := &ViewFrame{
		Angles:        make(map[string]int, len(v.Angles)),
		GripperClosed: v.GripperClosed,
		Left:          stickFrame(v.Left),
		Right:         stickFrame(v.Right),
		Direction:     string(v.Direction),
		InFlight:      v.InFlight,
		Online:        v.Status.Online,
		Audio:         v.AudioActive,
		Alert:         v.Alert,
		Timestamp:     v.Timestamp,
	}
	if v.Selected {
		sel := v.Robot
		f.Robot = &sel
	}
	for j, deg := range v.Angles {
		f.Angles[string(j)] = deg
	}
	if v.HasStatus {
		b := v.Status.BatteryLevel
		f.Battery = &b
	}
	return f
}
