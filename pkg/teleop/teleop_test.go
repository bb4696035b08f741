package teleop

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gwillem/jojo/pkg/control"
	"github.com/gwillem/jojo/pkg/robot"
)

// mockDispatcher records every command it receives.
type mockDispatcher struct {
	mu    sync.Mutex
	err   error
	calls chan control.Command
}

func newMockDispatcher() *mockDispatcher {
	return &mockDispatcher{calls: make(chan control.Command, 256)}
}

func (m *mockDispatcher) Dispatch(ctx context.Context, cmd control.Command) error {
	m.calls <- cmd
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *mockDispatcher) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// mockStatus returns results in order, repeating the last one.
type mockStatus struct {
	mu      sync.Mutex
	results []statusResult
	calls   int
}

func (m *mockStatus) FetchStatus(ctx context.Context, robotID string) (robot.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	m.calls++
	return m.results[i].status, m.results[i].err
}

func (m *mockStatus) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockMic struct {
	err    error
	closed chan struct{}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (m *mockMic) Open(ctx context.Context) (io.Closer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return closerFunc(func() error {
		close(m.closed)
		return nil
	}), nil
}

func startSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.Layout(control.LeftSurface, control.Rect{W: 200, H: 200})
	go s.Run(context.Background())
	t.Cleanup(func() { s.Close() })
	return s
}

func selectR1(s *Session) {
	s.Select(robot.Selection{ID: "R1", Name: "Robot One", Address: "10.0.0.2"})
}

func nextCommand(t *testing.T, d *mockDispatcher) control.Command {
	t.Helper()
	select {
	case cmd := <-d.calls:
		return cmd
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a command")
	}
	return control.Command{}
}

func expectNoCommand(t *testing.T, d *mockDispatcher, wait time.Duration) {
	t.Helper()
	select {
	case cmd := <-d.calls:
		t.Fatalf("unexpected command %s", cmd)
	case <-time.After(wait):
	}
}

func currentView(t *testing.T, s *Session) View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := s.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	return v
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestNewSession_RequiresDispatcher(t *testing.T) {
	if _, err := NewSession(Config{}); err == nil {
		t.Error("expected error without dispatcher")
	}
}

func TestSession_NoSelectionNoDispatch(t *testing.T) {
	d := newMockDispatcher()
	s := startSession(t, Config{Dispatcher: d})

	s.Input(control.Press{Token: "forward"})
	s.Input(control.Release{})
	s.Input(control.Press{Token: control.TokenLeftStick})
	s.Input(control.Move{X: 160, Y: 100})
	s.ToggleGripper()
	s.Reset()
	s.Action("horn")

	expectNoCommand(t, d, 50*time.Millisecond)
	if v := currentView(t, s); v.Selected {
		t.Error("view reports a selection")
	}
}

func TestSession_EndToEndLeftStick(t *testing.T) {
	d := newMockDispatcher()
	s := startSession(t, Config{Dispatcher: d})
	selectR1(s)

	s.Input(control.Press{Token: control.TokenLeftStick})
	s.Input(control.Move{X: 160, Y: 100}) // (maxRadius, 0)

	got := map[string]int{}
	for i := 0; i < 2; i++ {
		cmd := nextCommand(t, d)
		if cmd.RobotID != "R1" || cmd.Address != "10.0.0.2" {
			t.Errorf("command not addressed to R1: %+v", cmd)
		}
		got[cmd.Target] = *cmd.Value
	}
	if got["base"] != 180 || got["shoulder"] != 90 {
		t.Errorf("commands = %v, want base=180 shoulder=90", got)
	}

	s.Input(control.Release{})
	v := currentView(t, s)
	if v.Left.Active() || v.Left.Offset() != (control.Vec{}) {
		t.Errorf("left surface after release: active=%v offset=%v", v.Left.Active(), v.Left.Offset())
	}
	if v.Angles[robot.Base] != 180 || v.Angles[robot.Shoulder] != 90 {
		t.Errorf("angles changed on release: %v", v.Angles)
	}
	expectNoCommand(t, d, 30*time.Millisecond)
}

func TestSession_GateDropsPressDuringCooldown(t *testing.T) {
	d := newMockDispatcher()
	s := startSession(t, Config{Dispatcher: d, Cooldown: 300 * time.Millisecond})
	selectR1(s)

	s.Input(control.Press{Token: "forward"})
	s.Input(control.Press{Token: "left"})

	if cmd := nextCommand(t, d); cmd.Target != "forward" {
		t.Fatalf("first command = %s, want forward", cmd)
	}
	expectNoCommand(t, d, 50*time.Millisecond)

	v := currentView(t, s)
	if v.Direction != control.Forward || !v.InFlight {
		t.Errorf("direction = %s, inFlight = %v", v.Direction, v.InFlight)
	}

	// once the cool-down has elapsed the gate opens again
	eventually(t, func() bool { return !currentView(t, s).InFlight })
	s.Input(control.Press{Token: "left"})
	if cmd := nextCommand(t, d); cmd.Target != "left" {
		t.Errorf("command after cool-down = %s, want left", cmd)
	}
}

func TestSession_ReleaseDuringCooldownStops(t *testing.T) {
	d := newMockDispatcher()
	s := startSession(t, Config{Dispatcher: d, Cooldown: time.Second})
	selectR1(s)

	s.Input(control.Press{Token: "backward"})
	nextCommand(t, d)

	// mouseup and touchend for the same gesture
	s.Input(control.Release{})
	s.Input(control.Release{})

	if cmd := nextCommand(t, d); cmd.Target != "stop" {
		t.Fatalf("got %s, want stop", cmd)
	}
	expectNoCommand(t, d, 50*time.Millisecond)

	if v := currentView(t, s); v.Direction != control.Stop {
		t.Errorf("direction = %s, want stop", v.Direction)
	}
}

func TestSession_FailureIsOptimistic(t *testing.T) {
	d := newMockDispatcher()
	d.setErr(errors.New("relay down"))
	s := startSession(t, Config{Dispatcher: d})
	selectR1(s)

	s.Input(control.Press{Token: "right"})
	nextCommand(t, d)

	select {
	case n := <-s.Notices():
		if n.Kind != NoticeError {
			t.Errorf("notice kind = %s, want error", n.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no error notice")
	}

	if v := currentView(t, s); v.Direction != control.Right {
		t.Errorf("state rolled back to %s", v.Direction)
	}
}

func TestSession_ActionAndGripper(t *testing.T) {
	d := newMockDispatcher()
	s := startSession(t, Config{Dispatcher: d})
	selectR1(s)

	s.Action("horn")
	cmd := nextCommand(t, d)
	if cmd.Channel != control.ChannelAction || cmd.Target != "horn" {
		t.Errorf("action command = %+v", cmd)
	}

	select {
	case n := <-s.Notices():
		if n.Kind != NoticeSuccess {
			t.Errorf("notice kind = %s, want success", n.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no success notice")
	}

	s.ToggleGripper()
	cmd = nextCommand(t, d)
	if cmd.Target != "gripper" || *cmd.Value != robot.GripperClosed {
		t.Errorf("gripper command = %s", cmd)
	}

	s.Reset()
	for i := 0; i < 5; i++ {
		nextCommand(t, d)
	}
	v := currentView(t, s)
	if v.GripperClosed {
		t.Error("reset should open the gripper")
	}
}

func TestSession_StatusFailureKeepsSnapshot(t *testing.T) {
	st := &mockStatus{results: []statusResult{
		{status: robot.Status{BatteryLevel: 80, Online: true}},
		{err: errors.New("timeout")},
	}}
	s := startSession(t, Config{
		Dispatcher:   newMockDispatcher(),
		Status:       st,
		PollInterval: 20 * time.Millisecond,
	})
	selectR1(s)

	eventually(t, func() bool { return currentView(t, s).HasStatus })
	eventually(t, func() bool { return st.callCount() >= 4 })

	v := currentView(t, s)
	if v.Status.BatteryLevel != 80 || !v.Status.Online {
		t.Errorf("status = %+v, want last good snapshot", v.Status)
	}
}

func TestSession_StatusPolledWithoutSelectionIsSkipped(t *testing.T) {
	st := &mockStatus{results: []statusResult{{status: robot.Status{BatteryLevel: 50}}}}
	s := startSession(t, Config{
		Dispatcher:   newMockDispatcher(),
		Status:       st,
		PollInterval: 10 * time.Millisecond,
	})

	time.Sleep(50 * time.Millisecond)
	if n := st.callCount(); n != 0 {
		t.Errorf("status fetched %d times without a selection", n)
	}
	if currentView(t, s).HasStatus {
		t.Error("view has status without a selection")
	}
}

func TestSession_AudioDenied(t *testing.T) {
	s := startSession(t, Config{
		Dispatcher: newMockDispatcher(),
		Microphone: &mockMic{err: errors.New("permission denied")},
	})
	selectR1(s)

	s.ToggleAudio()
	eventually(t, func() bool { return currentView(t, s).Alert != "" })

	v := currentView(t, s)
	if v.AudioActive {
		t.Error("audio flag not reverted after failure")
	}

	s.DismissAlert()
	if v := currentView(t, s); v.Alert != "" {
		t.Errorf("alert not dismissed: %q", v.Alert)
	}
}

func TestSession_AudioReleasedOnClose(t *testing.T) {
	mic := &mockMic{closed: make(chan struct{})}
	s, err := NewSession(Config{Dispatcher: newMockDispatcher(), Microphone: mic})
	if err != nil {
		t.Fatal(err)
	}
	go s.Run(context.Background())
	selectR1(s)

	s.ToggleAudio()
	eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		v, err := s.View(ctx)
		return err == nil && v.AudioActive
	})

	s.Close()
	select {
	case <-mic.closed:
	case <-time.After(time.Second):
		t.Fatal("microphone not released at teardown")
	}

	if _, err := s.View(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("View after Close = %v, want ErrClosed", err)
	}
}

func TestSession_NoMicrophone(t *testing.T) {
	s := startSession(t, Config{Dispatcher: newMockDispatcher()})
	selectR1(s)

	s.ToggleAudio()
	v := currentView(t, s)
	if v.AudioActive || v.Alert == "" {
		t.Errorf("view = active %v alert %q, want alert", v.AudioActive, v.Alert)
	}
}

// slowDispatcher takes a while per command and records the context state it
// saw when the request finished.
type slowDispatcher struct {
	delay time.Duration
	calls chan control.Command
	errs  chan error
}

func (d *slowDispatcher) Dispatch(ctx context.Context, cmd control.Command) error {
	d.calls <- cmd
	select {
	case <-time.After(d.delay):
	case <-ctx.Done():
	}
	d.errs <- ctx.Err()
	return ctx.Err()
}

func TestSession_StopSurvivesClose(t *testing.T) {
	d := &slowDispatcher{
		delay: 20 * time.Millisecond,
		calls: make(chan control.Command, 8),
		errs:  make(chan error, 8),
	}
	s, err := NewSession(Config{Dispatcher: d})
	if err != nil {
		t.Fatal(err)
	}
	go s.Run(context.Background())
	selectR1(s)

	s.Input(control.Press{Token: "forward"})
	if cmd := <-d.calls; cmd.Target != "forward" {
		t.Fatalf("got %s, want forward", cmd)
	}

	s.Input(control.Release{})
	s.Close()

	select {
	case cmd := <-d.calls:
		if cmd.Target != "stop" {
			t.Fatalf("got %s, want stop", cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("stop never dispatched")
	}
	for i := 0; i < 2; i++ {
		if err := <-d.errs; err != nil {
			t.Errorf("drive request %d finished with %v", i, err)
		}
	}
}

func TestSession_CloseStopsHeldDirection(t *testing.T) {
	d := newMockDispatcher()
	s, err := NewSession(Config{Dispatcher: d})
	if err != nil {
		t.Fatal(err)
	}
	go s.Run(context.Background())
	selectR1(s)

	s.Input(control.Press{Token: "left"})
	nextCommand(t, d)

	s.Close()
	if cmd := nextCommand(t, d); cmd.Target != "stop" {
		t.Fatalf("got %s, want stop", cmd)
	}
	expectNoCommand(t, d, 50*time.Millisecond)
}
