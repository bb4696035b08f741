// Package web bridges a browser operator page to a teleop session over a
// websocket. The page sends its native pointer and keyboard events; the
// bridge feeds them through the input adapters and streams the session view
// back.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gwillem/jojo/internal/log"
	"github.com/gwillem/jojo/pkg/control"
	"github.com/gwillem/jojo/pkg/robot"
	"github.com/gwillem/jojo/pkg/teleop"
)

const (
	readLimit    = 1 << 16
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Bridge serves operator sessions over websockets. Every connection gets its
// own session and robot selection.
type Bridge struct {
	e      *echo.Echo
	robots []robot.RobotConfig
	cfg    teleop.Config
}

// NewBridge creates a bridge. cfg is the template for each session; its
// Selector is replaced per connection.
func NewBridge(robots []robot.RobotConfig, cfg teleop.Config) *Bridge {
	b := &Bridge{
		e:      echo.New(),
		robots: robots,
		cfg:    cfg,
	}
	b.e.HideBanner = true
	b.e.HidePort = true
	b.e.Use(middleware.Recover())

	b.e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
	})
	b.e.GET("/api/robots", b.HandleRobots)
	b.e.GET("/ws", b.HandleWS)
	return b
}

// Handler returns the HTTP handler of the bridge.
func (b *Bridge) Handler() http.Handler {
	return b.e
}

// Start serves the bridge on addr until Shutdown.
func (b *Bridge) Start(addr string) error {
	log.Info("web bridge listening", "addr", addr)
	if err := b.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve bridge: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server.
func (b *Bridge) Shutdown(ctx context.Context) error {
	return b.e.Shutdown(ctx)
}

// HandleRobots lists the robots an operator can select.
func (b *Bridge) HandleRobots(c echo.Context) error {
	out := make([]robot.Selection, 0, len(b.robots))
	for _, r := range b.robots {
		if r.Active {
			out = append(out, r.Selection())
		}
	}
	return c.JSON(http.StatusOK, out)
}

// HandleWS upgrades the request and runs a session for the connection.
func (b *Bridge) HandleWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn("websocket upgrade", "err", err)
		return nil
	}
	defer conn.Close()

	cfg := b.cfg
	cfg.Selector = robot.NewSelector()
	sess, err := teleop.NewSession(cfg)
	if err != nil {
		log.Error("create session", "err", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = sess.Run(ctx) }()
	defer sess.Close()

	cl := &client{
		bridge: b,
		conn:   conn,
		sess:   sess,
		keys:   control.NewKeyboardAdapter(),
		errs:   make(chan string, 8),
	}

	remote := c.RealIP()
	log.Info("operator connected", "remote", remote)
	defer log.Info("operator disconnected", "remote", remote)

	go cl.writeLoop(ctx, cancel)
	cl.readLoop()
	return nil
}

// client is one websocket connection.
type client struct {
	bridge *Bridge
	conn   *websocket.Conn
	sess   *teleop.Session
	keys   *control.KeyboardAdapter
	ptr    control.PointerAdapter
	errs   chan string
}

func (cl *client) readLoop() {
	cl.conn.SetReadLimit(readLimit)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f Frame
		if err := cl.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read", "err", err)
			}
			// Nothing stays held once the operator is gone.
			cl.sess.Input(control.Release{})
			return
		}
		if err := cl.handle(f); err != nil {
			select {
			case cl.errs <- err.Error():
			default:
			}
		}
	}
}

// handle applies one browser frame to the session.
func (cl *client) handle(f Frame) error {
	switch f.Kind {
	case KindPointer:
		if f.Event == nil {
			return fmt.Errorf("pointer frame without event")
		}
		if ev, ok := cl.ptr.Translate(*f.Event); ok {
			cl.sess.Input(ev)
		}
	case KindKey:
		var (
			ev control.InputEvent
			ok bool
		)
		if f.Down {
			ev, ok = cl.keys.KeyDown(f.Key, f.Repeat)
		} else {
			ev, ok = cl.keys.KeyUp(f.Key)
		}
		if ok {
			cl.sess.Input(ev)
		}
	case KindLayout:
		side := control.Side(f.Side)
		if side != control.LeftSurface && side != control.RightSurface {
			return fmt.Errorf("unknown surface %q", f.Side)
		}
		cl.sess.Layout(side, control.Rect{X: f.X, Y: f.Y, W: f.Width, H: f.Height})
	case KindClick:
		return cl.click(f)
	case KindSelect:
		for _, r := range cl.bridge.robots {
			if r.ID == f.RobotID && r.Active {
				cl.sess.Select(r.Selection())
				return nil
			}
		}
		return fmt.Errorf("unknown robot %q", f.RobotID)
	default:
		return fmt.Errorf("unknown frame kind %q", f.Kind)
	}
	return nil
}

func (cl *client) click(f Frame) error {
	switch f.Control {
	case ClickGripper:
		cl.sess.ToggleGripper()
	case ClickReset:
		cl.sess.Reset()
	case ClickAudio:
		cl.sess.ToggleAudio()
	case ClickDismiss:
		cl.sess.DismissAlert()
	case ClickAction:
		if f.Name == "" {
			return fmt.Errorf("action without name")
		}
		cl.sess.Action(f.Name)
	default:
		return fmt.Errorf("unknown control %q", f.Control)
	}
	return nil
}

// writeLoop owns all writes to the connection.
func (cl *client) writeLoop(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		var msg *Message
		select {
		case <-ctx.Done():
			return
		case v := <-cl.sess.Views():
			msg = &Message{Type: TypeView, View: newViewFrame(v)}
		case n := <-cl.sess.Notices():
			msg = &Message{Type: TypeNotice, Level: n.Kind.String(), Message: n.Message}
		case line := <-cl.sess.Logs():
			msg = &Message{Type: TypeLog, Message: line}
		case e := <-cl.errs:
			msg = &Message{Type: TypeError, Message: e}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.conn.Close()
				return
			}
			continue
		}

		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteJSON(msg); err != nil {
			log.Debug("websocket write", "err", err)
			cl.conn.Close()
			return
		}
	}
}
