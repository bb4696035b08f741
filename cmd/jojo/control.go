package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/jojo/pkg/control"
	"github.com/gwillem/jojo/pkg/relay"
	"github.com/gwillem/jojo/pkg/robot"
	"github.com/gwillem/jojo/pkg/teleop"
)

type ControlCommand struct {
	Robot        string        `short:"r" long:"robot" description:"ID of the robot to drive (asks when omitted)"`
	Relay        string        `long:"relay" description:"Command relay URL (default from config)"`
	Cooldown     time.Duration `long:"cooldown" default:"100ms" description:"Locomotion dispatch cool-down"`
	Poll         time.Duration `long:"poll" default:"5s" description:"Robot status poll interval"`
	ReleaseAfter time.Duration `long:"release-after" default:"600ms" description:"Treat a key as released when it stops repeating for this long"`
	NoSerial     bool          `long:"no-serial" description:"Send arm commands through the relay even when a serial arm is configured"`
}

const (
	maxLogs      = 5
	chartHeight  = 6
	tickInterval = 50 * time.Millisecond
	toastWidth   = 36
	batteryData  = "battery"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	toastOK      = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("22")).Foreground(lipgloss.Color("15"))
	toastErr     = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("52")).Foreground(lipgloss.Color("15"))
	alertStyle   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("9")).Padding(1, 3)
)

// Keys handled by the console itself. None of them is a movement key.
var consoleKeys = map[string]string{
	"g": "gripper",
	"r": "reset",
	"m": "microphone",
	"h": "horn",
	"l": "lights",
}

type controlModel struct {
	sess     *teleop.Session
	robots   []robot.RobotConfig
	sticks   []stickBox
	keys     *control.KeyboardAdapter
	releaser *keyReleaser
	chart    *streamlinechart.Model

	view      teleop.View
	lastFetch time.Time
	logs      []string
	toasts    teleop.Toasts
	width     int
	height    int
	quitting  bool
}

type viewMsg teleop.View
type logMsg string
type noticeMsg teleop.Notice
type tickMsg time.Time

func waitForView(s *teleop.Session) tea.Cmd {
	return func() tea.Msg {
		return viewMsg(<-s.Views())
	}
}

func waitForLog(s *teleop.Session) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-s.Logs())
	}
}

func waitForNotice(s *teleop.Session) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-s.Notices())
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func newControlModel(sess *teleop.Session, robots []robot.RobotConfig, releaseAfter time.Duration) controlModel {
	chart := streamlinechart.New(80, chartHeight,
		streamlinechart.WithYRange(0, 100),
	)
	chart.SetDataSetStyles(batteryData, runes.ThinLineStyle, onlineStyle)

	m := controlModel{
		sess:     sess,
		robots:   robots,
		sticks:   layoutSticks(),
		keys:     control.NewKeyboardAdapter(),
		releaser: newKeyReleaser(releaseAfter),
		chart:    &chart,
	}
	for _, b := range m.sticks {
		sess.Layout(b.side, b.bounds())
	}
	return m
}

func (m *controlModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m controlModel) Init() tea.Cmd {
	return tea.Batch(
		waitForView(m.sess),
		waitForLog(m.sess),
		waitForNotice(m.sess),
		tick(),
	)
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(max(msg.Width-4, 20), chartHeight)
		m.chart.DrawAll()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case viewMsg:
		m.view = teleop.View(msg)
		if m.view.HasStatus && m.view.Status.FetchedAt.After(m.lastFetch) {
			m.lastFetch = m.view.Status.FetchedAt
			m.chart.PushDataSet(batteryData, float64(m.view.Status.BatteryLevel))
			m.chart.DrawAll()
		}
		return m, waitForView(m.sess)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.sess)

	case noticeMsg:
		m.toasts = m.toasts.Push(teleop.Notice(msg), time.Now())
		return m, waitForNotice(m.sess)

	case tickMsg:
		now := time.Time(msg)
		for _, k := range m.releaser.Expired(now) {
			if ev, ok := m.keys.KeyUp(k); ok {
				m.sess.Input(ev)
			}
		}
		m.toasts = m.toasts.Prune(now)
		return m, tick()
	}

	return m, nil
}

func (m controlModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name := msg.String()
	switch name {
	case "q", "ctrl+c":
		m.quitting = true
		m.releaseAll()
		return m, tea.Quit
	}

	if m.view.Alert != "" {
		if name == "enter" || name == "esc" {
			m.sess.DismissAlert()
		}
		return m, nil
	}

	switch consoleKeys[name] {
	case "gripper":
		m.sess.ToggleGripper()
		return m, nil
	case "reset":
		m.sess.Reset()
		return m, nil
	case "microphone":
		m.sess.ToggleAudio()
		return m, nil
	case "horn", "lights":
		m.sess.Action(consoleKeys[name])
		return m, nil
	}

	if len(name) == 1 && name[0] >= '1' && name[0] <= '9' {
		if n := int(name[0] - '1'); n < len(m.robots) {
			m.sess.Select(m.robots[n].Selection())
		}
		return m, nil
	}

	key := browserKey(name)
	if _, ok := control.KeyMap[key]; !ok {
		return m, nil
	}
	repeat := m.releaser.Press(key, time.Now())
	if ev, ok := m.keys.KeyDown(key, repeat); ok {
		m.sess.Input(ev)
	}
	return m, nil
}

func (m controlModel) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		for _, b := range m.sticks {
			if b.contains(msg.X, msg.Y) {
				m.sess.Input(control.Press{Token: b.token()})
			}
		}
	case tea.MouseActionMotion:
		x, y := cellToSurface(msg.X, msg.Y)
		m.sess.Input(control.Move{X: x, Y: y})
	case tea.MouseActionRelease:
		m.sess.Input(control.Release{})
	}
}

// releaseAll lifts every held key so the base stops before the program exits.
func (m controlModel) releaseAll() {
	for _, k := range m.releaser.Forget() {
		if ev, ok := m.keys.KeyUp(k); ok {
			m.sess.Input(ev)
		}
	}
}

func (m controlModel) View() string {
	if m.quitting {
		return "Control session stopped.\n"
	}
	if m.view.Alert != "" {
		box := alertStyle.Render(m.view.Alert + "\n\n" + statusStyle.Render("Press Enter to dismiss"))
		return lipgloss.Place(max(m.width, 40), max(m.height, 10), lipgloss.Center, lipgloss.Center, box)
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("JoJo Control"))
	if m.view.Selected {
		sb.WriteString(" - " + m.view.Robot.Name)
	} else {
		sb.WriteString(statusStyle.Render(" - no robot selected (press 1-9)"))
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n\n")

	// Sticks
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderStick(m.view.Left, "base / shoulder"),
		strings.Repeat(" ", stickGap),
		renderStick(m.view.Right, "elbow / wrist"),
	))
	sb.WriteString("\n")
	sb.WriteString(m.renderAngles())
	sb.WriteString("\n")
	sb.WriteString(m.renderToasts())
	sb.WriteString("\n")

	// Battery chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("wasd/arrows drive, space stops, g gripper, r reset, m mic, h horn, q quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m controlModel) renderStatus() string {
	var parts []string
	switch {
	case !m.view.HasStatus:
		parts = append(parts, statusStyle.Render("status unknown"))
	case m.view.Status.Online:
		parts = append(parts, onlineStyle.Render("online"))
	default:
		parts = append(parts, offlineStyle.Render("offline"))
	}
	if m.view.HasStatus {
		parts = append(parts, fmt.Sprintf("battery %d%%", m.view.Status.BatteryLevel))
	}
	parts = append(parts, "drive "+string(m.view.Direction))
	if m.view.InFlight {
		parts = append(parts, statusStyle.Render("sending"))
	}
	if m.view.AudioActive {
		parts = append(parts, onlineStyle.Render("mic on"))
	}
	return strings.Join(parts, "  ")
}

func (m controlModel) renderAngles() string {
	var parts []string
	for _, j := range robot.AllJoints() {
		parts = append(parts, fmt.Sprintf("%s %3d°", j, m.view.Angles[j]))
	}
	gripper := "open"
	if m.view.GripperClosed {
		gripper = "closed"
	}
	parts = append(parts, "gripper "+gripper)
	return statusStyle.Render(strings.Join(parts, "  "))
}

// renderToasts draws the visible toasts right-aligned, sliding in from and
// out to the right edge.
func (m controlModel) renderToasts() string {
	now := time.Now()
	width := max(m.width, toastWidth)
	var lines []string
	for _, t := range m.toasts {
		style := toastOK
		if t.Kind == teleop.NoticeError {
			style = toastErr
		}
		off := t.Offset(now, toastWidth)
		pad := width - toastWidth + off
		line := strings.Repeat(" ", pad) + style.Width(toastWidth).Render(t.Message)
		lines = append(lines, lipgloss.NewStyle().MaxWidth(width).Render(line))
	}
	return strings.Join(lines, "\n")
}

// pickRobot returns the robot to drive: the one named by id, the only
// active one, or the one chosen in a form.
func pickRobot(robots []robot.RobotConfig, id string) (robot.RobotConfig, bool) {
	var active []robot.RobotConfig
	for _, r := range robots {
		if !r.Active {
			continue
		}
		if id != "" && r.ID == id {
			return r, true
		}
		active = append(active, r)
	}
	if id != "" || len(active) == 0 {
		return robot.RobotConfig{}, false
	}
	if len(active) == 1 {
		return active[0], true
	}

	options := make([]huh.Option[int], len(active))
	for i, r := range active {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", r.Name, r.ID), i)
	}
	var choice int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Which robot do you want to drive?").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return active[choice], true
}

// buildDispatcher sends everything through the relay, except arm joints
// when a calibrated serial arm is configured.
func buildDispatcher(cfg *robot.Config, client *relay.HTTPClient, noSerial bool) (teleop.Dispatcher, func()) {
	if noSerial || cfg.Arm.Port == "" || !cfg.Arm.IsCalibrated() {
		return client, func() {}
	}

	arm, err := robot.NewArm(cfg.Arm.Port, cfg.Arm.Calibration)
	if err != nil {
		log.Fatalf("Failed to open arm on %s: %v", cfg.Arm.Port, err)
	}
	if err := arm.Enable(context.Background()); err != nil {
		arm.Close()
		log.Fatalf("Failed to enable arm: %v", err)
	}
	fmt.Printf("Driving arm on %s over serial\n", cfg.Arm.Port)

	router := relay.Router{
		Arm:    relay.NewSerialDispatcher(arm),
		Drive:  client,
		Action: client,
	}
	return router, func() {
		_ = arm.Disable(context.Background())
		arm.Close()
	}
}

func (c *ControlCommand) Execute(args []string) error {
	cfg := loadConfig()
	fmt.Printf("Loaded configuration from %s\n", opts.Config)

	var active []robot.RobotConfig
	for _, r := range cfg.Robots {
		if r.Active {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		fmt.Fprintln(os.Stderr, "No active robots configured. Run 'jojo setup' first.")
		os.Exit(1)
	}

	relayURL := cfg.RelayURL
	if c.Relay != "" {
		relayURL = c.Relay
	}
	client := relay.NewHTTPClient(relayURL, relay.DefaultTimeout)
	dispatcher, closeArm := buildDispatcher(cfg, client, c.NoSerial)
	defer closeArm()

	sel := robot.NewSelector()
	sess, err := teleop.NewSession(teleop.Config{
		Selector:     sel,
		Dispatcher:   dispatcher,
		Status:       client,
		Cooldown:     c.Cooldown,
		PollInterval: c.Poll,
		Margin:       stickMargin,
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	if r, ok := pickRobot(active, c.Robot); ok {
		sess.Select(r.Selection())
	} else if c.Robot != "" {
		fmt.Fprintf(os.Stderr, "Robot %q is not configured or not active.\n", c.Robot)
		os.Exit(1)
	}

	// Start the session in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sess.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Session error: %v", err)
		}
	}()
	defer sess.Close()

	// Run TUI
	p := tea.NewProgram(newControlModel(sess, active, c.ReleaseAfter), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
