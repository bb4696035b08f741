// Package teleop runs an operator session: it owns the arm and locomotion
// controllers, dispatches their commands, and polls the robot's status.
//
// All session state is touched from a single loop goroutine. Input methods
// post work to that loop and return immediately; network calls run in their
// own goroutines and report back to the loop when they finish.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gwillem/jojo/pkg/control"
	"github.com/gwillem/jojo/pkg/robot"
)

// Defaults for Config.
const (
	DefaultPollInterval   = 5 * time.Second
	DefaultRequestTimeout = 5 * time.Second

	// stopGrace bounds how long shutdown waits for drive commands that are
	// still on the wire.
	stopGrace = time.Second
)

var (
	// ErrClosed is returned when the session loop is not running.
	ErrClosed = errors.New("session closed")
	// ErrNoMicrophone is reported when audio is toggled without a microphone.
	ErrNoMicrophone = errors.New("no microphone available")
)

// Dispatcher submits one command to the command relay and reports whether
// the relay accepted it.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd control.Command) error
}

// StatusFetcher reads the remote status of a robot.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, robotID string) (robot.Status, error)
}

// Microphone opens an audio capture stream.
type Microphone interface {
	Open(ctx context.Context) (io.Closer, error)
}

// Config holds configuration for the session.
type Config struct {
	Selector   *robot.Selector
	Dispatcher Dispatcher
	Status     StatusFetcher // optional
	Microphone Microphone    // optional

	Cooldown       time.Duration // gate cool-down after a drive command
	PollInterval   time.Duration
	RequestTimeout time.Duration
	Margin         float64 // gesture surface margin
}

// View is the presentation state of the session.
type View struct {
	Robot    robot.Selection
	Selected bool

	Angles        robot.JointAngles
	GripperClosed bool
	Left, Right   control.Surface

	Direction control.Direction
	InFlight  bool

	Status    robot.Status
	HasStatus bool

	AudioActive bool
	Alert       string // blocking alert, cleared by DismissAlert

	Timestamp time.Time
}

type dispatchResult struct {
	cmd control.Command
	err error
}

type statusResult struct {
	robotID string
	status  robot.Status
	err     error
}

type audioResult struct {
	stream io.Closer
	err    error
}

// Session is one operator session against the command relay.
type Session struct {
	cfg      Config
	sel      *robot.Selector
	arm      *control.ArmMapper
	motion   *control.Motion
	controls control.Controls

	// loop-owned state
	ctx         context.Context
	status      robot.Status
	hasStatus   bool
	audio       io.Closer
	audioActive bool
	alert       string
	timers      map[*time.Timer]struct{}
	drives      sync.WaitGroup

	events   chan func()
	results  chan dispatchResult
	statuses chan statusResult
	audioCh  chan audioResult

	viewCh   chan View
	logCh    chan string
	noticeCh chan Notice

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSession creates a session. Run starts it.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if cfg.Selector == nil {
		cfg.Selector = robot.NewSelector()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = control.DefaultCooldown
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Margin == 0 {
		cfg.Margin = control.DefaultMargin
	}

	arm := control.NewArmMapper(cfg.Selector, cfg.Margin)
	motion := control.NewMotion(cfg.Selector)

	return &Session{
		cfg:      cfg,
		sel:      cfg.Selector,
		arm:      arm,
		motion:   motion,
		controls: control.Controls{Arm: arm, Motion: motion},
		timers:   make(map[*time.Timer]struct{}),
		events:   make(chan func(), 64),
		results:  make(chan dispatchResult, 16),
		statuses: make(chan statusResult, 1),
		audioCh:  make(chan audioResult, 1),
		viewCh:   make(chan View, 1),
		logCh:    make(chan string, 32),
		noticeCh: make(chan Notice, 16),
		done:     make(chan struct{}),
	}, nil
}

// Views returns a channel that receives the latest view after every change.
func (s *Session) Views() <-chan View {
	return s.viewCh
}

// Logs returns a channel that receives log messages.
func (s *Session) Logs() <-chan string {
	return s.logCh
}

// Notices returns a channel that receives toast notifications.
func (s *Session) Notices() <-chan Notice {
	return s.noticeCh
}

// Cooldown returns the gate cool-down in use.
func (s *Session) Cooldown() time.Duration {
	return s.cfg.Cooldown
}

func (s *Session) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case s.logCh <- msg:
	default:
		// Drop if channel full
	}
}

func (s *Session) notify(kind NoticeKind, format string, args ...any) {
	n := Notice{Kind: kind, Message: fmt.Sprintf(format, args...), At: time.Now()}
	select {
	case s.noticeCh <- n:
	default:
	}
}

// post queues fn for the loop. It gives up once the loop has exited.
func (s *Session) post(fn func()) {
	select {
	case s.events <- fn:
	case <-s.done:
	}
}

// Input feeds a canonical input event to the controllers.
func (s *Session) Input(ev control.InputEvent) {
	s.post(func() {
		s.dispatch(s.controls.Handle(ev))
	})
}

// Layout sets the on-screen bounds of a gesture surface.
func (s *Session) Layout(side control.Side, bounds control.Rect) {
	s.post(func() {
		s.arm.Layout(side, bounds)
	})
}

// Action sends a one-shot action (horn, lights, ...).
func (s *Session) Action(name string) {
	s.post(func() {
		if cmd, ok := s.motion.Action(name); ok {
			s.dispatch([]control.Command{cmd})
		}
	})
}

// ToggleGripper opens or closes the gripper.
func (s *Session) ToggleGripper() {
	s.post(func() {
		s.dispatch(s.arm.ToggleGripper())
	})
}

// Reset returns the arm to its rest pose.
func (s *Session) Reset() {
	s.post(func() {
		s.dispatch(s.arm.Reset())
	})
}

// Select makes sel the target of all commands and refreshes its status.
func (s *Session) Select(sel robot.Selection) {
	s.post(func() {
		if cur, ok := s.sel.Current(); !ok || cur.ID != sel.ID {
			s.status = robot.Status{}
			s.hasStatus = false
		}
		s.sel.Select(sel)
		s.log("Robot selected: %s", sel.Name)
		s.pollStatus()
	})
}

// ToggleAudio starts or stops microphone capture.
func (s *Session) ToggleAudio() {
	s.post(s.toggleAudio)
}

// DismissAlert clears the blocking alert.
func (s *Session) DismissAlert() {
	s.post(func() {
		s.alert = ""
	})
}

// View returns the current view.
func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case s.events <- func() { reply <- s.view() }:
	case <-s.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Run runs the session loop until ctx is canceled or Close is called.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	defer close(s.done)

	s.ctx = ctx
	s.log("Session started")

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.pollStatus()
	s.publish()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case fn := <-s.events:
			fn()
		case r := <-s.results:
			s.complete(r)
		case r := <-s.statuses:
			s.applyStatus(r)
		case r := <-s.audioCh:
			s.applyAudio(r)
		case <-ticker.C:
			s.pollStatus()
		}
		s.publish()
	}
}

// Close stops the loop and waits for it to exit.
func (s *Session) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-s.done
	return nil
}

// dispatch submits cmds without waiting. Completions come back through
// s.results.
//
// Drive commands are not canceled with the session: a stop issued while the
// session closes must still reach the robot.
func (s *Session) dispatch(cmds []control.Command) {
	for _, cmd := range cmds {
		parent := s.ctx
		if cmd.Channel == control.ChannelDrive {
			parent = context.WithoutCancel(s.ctx)
			s.drives.Add(1)
		}
		go func(cmd control.Command) {
			if cmd.Channel == control.ChannelDrive {
				defer s.drives.Done()
			}
			ctx, cancel := context.WithTimeout(parent, s.cfg.RequestTimeout)
			err := s.cfg.Dispatcher.Dispatch(ctx, cmd)
			cancel()
			select {
			case s.results <- dispatchResult{cmd: cmd, err: err}:
			case <-s.ctx.Done():
			}
		}(cmd)
	}
}

// complete handles a finished request. Local state is never rolled back.
func (s *Session) complete(r dispatchResult) {
	if r.err != nil {
		s.log("Command %s failed: %v", r.cmd, r.err)
		if r.cmd.Channel != control.ChannelArm {
			s.notify(NoticeError, "Command %q failed: %v", r.cmd.Target, r.err)
		}
	} else if r.cmd.Channel != control.ChannelArm {
		s.notify(NoticeSuccess, "Command %q sent", r.cmd.Target)
	}

	if r.cmd.Channel == control.ChannelDrive {
		s.after(s.cfg.Cooldown, s.motion.Settle)
	}
}

// after runs fn on the loop once d has elapsed.
func (s *Session) after(d time.Duration, fn func()) {
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.post(func() {
			delete(s.timers, t)
			fn()
		})
	})
	s.timers[t] = struct{}{}
}

func (s *Session) pollStatus() {
	sel, ok := s.sel.Current()
	if !ok || s.cfg.Status == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
		st, err := s.cfg.Status.FetchStatus(ctx, sel.ID)
		cancel()
		select {
		case s.statuses <- statusResult{robotID: sel.ID, status: st, err: err}:
		case <-s.ctx.Done():
		}
	}()
}

// applyStatus keeps the last good snapshot on failure.
func (s *Session) applyStatus(r statusResult) {
	if r.err != nil {
		s.log("Status fetch failed: %v", r.err)
		return
	}
	if cur, ok := s.sel.Current(); !ok || cur.ID != r.robotID {
		return
	}
	s.status = r.status
	s.status.FetchedAt = time.Now()
	s.hasStatus = true
}

func (s *Session) toggleAudio() {
	if _, ok := s.sel.Current(); !ok {
		return
	}

	if s.audioActive {
		s.audioActive = false
		s.closeAudio()
		s.log("Audio off")
		return
	}

	s.audioActive = true
	if s.cfg.Microphone == nil {
		s.applyAudio(audioResult{err: ErrNoMicrophone})
		return
	}
	go func() {
		stream, err := s.cfg.Microphone.Open(s.ctx)
		select {
		case s.audioCh <- audioResult{stream: stream, err: err}:
		case <-s.ctx.Done():
			if stream != nil {
				stream.Close()
			}
		}
	}()
}

func (s *Session) applyAudio(r audioResult) {
	if r.err != nil {
		s.audioActive = false
		s.alert = fmt.Sprintf("Could not access the microphone: %v", r.err)
		s.log("Audio failed: %v", r.err)
		return
	}
	if !s.audioActive {
		// toggled off while opening
		r.stream.Close()
		return
	}
	s.audio = r.stream
	s.log("Audio on")
}

func (s *Session) closeAudio() {
	if s.audio == nil {
		return
	}
	if err := s.audio.Close(); err != nil {
		s.log("Warning: failed to close microphone: %v", err)
	}
	s.audio = nil
}

func (s *Session) view() View {
	sel, ok := s.sel.Current()
	return View{
		Robot:         sel,
		Selected:      ok,
		Angles:        s.arm.Angles(),
		GripperClosed: s.arm.GripperClosed(),
		Left:          s.arm.Surface(control.LeftSurface),
		Right:         s.arm.Surface(control.RightSurface),
		Direction:     s.motion.State(),
		InFlight:      s.motion.InFlight(),
		Status:        s.status,
		HasStatus:     s.hasStatus,
		AudioActive:   s.audio != nil,
		Alert:         s.alert,
		Timestamp:     time.Now(),
	}
}

func (s *Session) publish() {
	v := s.view()
	select {
	case s.viewCh <- v:
	default:
		// Drop old view if channel full, replace with new
		select {
		case <-s.viewCh:
		default:
		}
		s.viewCh <- v
	}
}

func (s *Session) shutdown() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	for t := range s.timers {
		t.Stop()
	}
	s.timers = nil

	// Input posted before Close still runs, then whatever is held is let go.
	s.drain()
	s.dispatch(s.controls.Handle(control.Release{}))
	s.waitDrives()

	s.audioActive = false
	s.closeAudio()
	s.log("Session stopped")
}

// drain runs the events that were queued when the loop was told to stop.
func (s *Session) drain() {
	for {
		select {
		case fn := <-s.events:
			fn()
		default:
			return
		}
	}
}

// waitDrives waits up to stopGrace for outstanding drive commands.
func (s *Session) waitDrives() {
	idle := make(chan struct{})
	go func() {
		s.drives.Wait()
		close(idle)
	}()
	select {
	case <-idle:
	case <-time.After(stopGrace):
		s.log("Warning: drive command still pending at shutdown")
	}
}
