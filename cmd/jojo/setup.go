package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/jojo/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// The arm has one servo per joint, IDs 1-5 in joint order.
const armServos = 5

type SetupCommand struct {
	SkipArm     bool   `long:"skip-arm" description:"Only register robots, do not look for a serial arm"`
	Calibration string `long:"calibration" description:"Import arm calibration from a JSON file instead of recording it"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("JoJo Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━"))
	fmt.Println()

	config, err := robot.LoadConfigFrom(opts.Config)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", opts.Config, err)
			os.Exit(1)
		}
		config = &robot.Config{RelayURL: robot.DefaultRelayURL}
	}

	// Step 1: Robots
	fmt.Println(subHeaderStyle.Render("━━━ Robots ━━━"))
	fmt.Println()
	registerRobots(config)
	saveConfig(config)

	// Step 2: Serial arm
	if !c.SkipArm {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Serial Arm ━━━"))
		fmt.Println()
		if port := scanForArm(); port != "" {
			config.Arm.Port = port
			if c.Calibration != "" {
				cal, err := robot.LoadCalibration(c.Calibration)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error importing calibration: %v\n", err)
					os.Exit(1)
				}
				config.Arm.Calibration = cal
			} else {
				calibrateArm(&config.Arm)
			}
			saveConfig(config)
			showArmAngles(&config.Arm)
		}
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Start driving with: " + headerStyle.Render("jojo control"))

	return nil
}

func saveConfig(config *robot.Config) {
	if err := config.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
}

// registerRobots lists the configured robots and offers to add more.
func registerRobots(config *robot.Config) {
	for _, r := range config.Robots {
		state := "active"
		if !r.Active {
			state = "inactive"
		}
		fmt.Printf("  %s  %s  %s  %s\n", r.ID, r.Name, dimStyle.Render(r.Topic()), state)
	}
	if len(config.Robots) > 0 {
		fmt.Println()
	}

	for {
		add := len(config.Robots) == 0
		if !add {
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title("Add a robot?").
					Value(&add),
			))
			if err := form.Run(); err != nil {
				fmt.Println()
				os.Exit(0)
			}
		}
		if !add {
			return
		}

		r := robot.RobotConfig{Active: true}
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Robot ID").Value(&r.ID).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("an ID is required")
				}
				if _, ok := config.Robot(s); ok {
					return errors.New("ID already in use")
				}
				return nil
			}),
			huh.NewInput().Title("Name").Value(&r.Name),
			huh.NewInput().Title("Serial number").Description("Used to derive the MQTT topic").Value(&r.SerialNumber),
			huh.NewInput().Title("Address").Description("Optional network address").Value(&r.Address),
		))
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}
		if r.Name == "" {
			r.Name = r.ID
		}
		config.Robots = append(config.Robots, r)
		fmt.Printf("  Added %s on topic %s\n", r.Name, r.Topic())
	}
}

func scanForArm() string {
	fmt.Println("Scanning for a serial arm...")
	fmt.Println()

	arms := findArms()
	if len(arms) == 0 {
		fmt.Println("No arm found. Skipping; arm commands will go through the relay.")
		return ""
	}

	for i, arm := range arms {
		if confirmArmWithWiggle(arm) {
			for _, rest := range arms[i+1:] {
				rest.bus.Close()
			}
			return arm.port
		}
	}
	return ""
}

func calibrateArm(armConfig *robot.ArmConfig) {
	fmt.Printf("Calibrating arm on %s\n", armConfig.Port)
	fmt.Println()

	bus, servos, err := connectToArm(armConfig.Port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to arm: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Disable all servos so the joints can be moved by hand
	ctx := context.Background()
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	joints := robot.AllJoints()

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move each joint to its minimum AND maximum positions.")
	fmt.Println("The gripper minimum is open, the maximum is closed.")
	fmt.Println()

	cur := make(map[robot.JointName]int)
	lo := make(map[robot.JointName]int)
	hi := make(map[robot.JointName]int)
	for i, joint := range joints {
		pos, _ := servoMap[i+1].Position(ctx)
		cur[joint], lo[joint], hi[joint] = pos, pos, pos
	}

	model := newCalibrationModel(joints, servoMap, cur, lo, hi)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}

	cm := finalModel.(calibrationModel)
	calibration := make(robot.Calibration, len(joints))
	for i, joint := range joints {
		calibration[joint] = robot.JointCalibration{
			ID:       i + 1,
			RangeMin: cm.minPositions[joint],
			RangeMax: cm.maxPositions[joint],
		}
	}

	armConfig.Calibration = calibration
	fmt.Println()
	fmt.Println("Arm calibrated.")
}

// showArmAngles reads the arm back through its calibration as a check.
func showArmAngles(armConfig *robot.ArmConfig) {
	arm, err := robot.NewArm(armConfig.Port, armConfig.Calibration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening arm: %v\n", err)
		return
	}
	defer arm.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	angles, err := arm.ReadAngles(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading arm: %v\n", err)
		return
	}

	fmt.Println()
	fmt.Println("Current joint angles:")
	for _, joint := range robot.AllJoints() {
		fmt.Printf("  %-9s %3d°\n", joint, angles[joint])
	}
}

type armInfo struct {
	port   string
	servos []feetech.FoundServo
	bus    *feetech.Bus
}

func openBus(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, armServos)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	return bus, servos, nil
}

func findArms() []armInfo {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var arms []armInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		bus, servos, err := openBus(port)
		if err != nil {
			continue
		}
		if !isJojoArm(servos) {
			bus.Close()
			continue
		}

		fmt.Printf("  Found arm on %s\n", port)
		arms = append(arms, armInfo{port: port, servos: servos, bus: bus})
	}

	return arms
}

// isJojoArm reports whether servos are exactly IDs 1 to armServos.
func isJojoArm(servos []feetech.FoundServo) bool {
	if len(servos) != armServos {
		return false
	}

	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= armServos; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

// confirmArmWithWiggle moves the base servo back and forth and asks the
// operator whether that is the arm to use.
func confirmArmWithWiggle(arm armInfo) bool {
	defer arm.bus.Close()

	ctx := context.Background()

	var servo *feetech.Servo
	for _, s := range arm.servos {
		if s.ID == 1 {
			servo = feetech.NewServo(arm.bus, s.ID, s.Model)
			break
		}
	}
	if servo == nil {
		return false
	}

	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading position: %v\n", err)
		return false
	}
	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo: %v\n", err)
		return false
	}

	fmt.Printf("\n  Wiggling arm on %s...\n", arm.port)

	const wiggle, moveMs = 30, 500
	for _, pos := range []int{originalPos + wiggle, originalPos - wiggle, originalPos} {
		servo.SetPositionWithTime(ctx, pos, moveMs)
		time.Sleep((moveMs + 100) * time.Millisecond)
	}
	servo.Disable(ctx)

	use := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Use the arm on %s?", arm.port)).
				Description("The arm that just wiggled").
				Affirmative("Use it").
				Negative("Skip").
				Value(&use),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return use
}

func connectToArm(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	bus, servos, err := openBus(port)
	if err != nil {
		return nil, nil, err
	}
	if !isJojoArm(servos) {
		bus.Close()
		return nil, nil, fmt.Errorf("no arm on %s (expected %d servos with IDs 1-%d)", port, armServos, armServos)
	}
	return bus, servos, nil
}

// Calibration TUI model
type calibrationModel struct {
	joints       []robot.JointName
	servoMap     map[int]*feetech.Servo
	curPositions map[robot.JointName]int
	minPositions map[robot.JointName]int
	maxPositions map[robot.JointName]int
	quitting     bool
}

type calTickMsg time.Time

func newCalibrationModel(
	joints []robot.JointName,
	servoMap map[int]*feetech.Servo,
	curPositions, minPositions, maxPositions map[robot.JointName]int,
) calibrationModel {
	return calibrationModel{
		joints:       joints,
		servoMap:     servoMap,
		curPositions: curPositions,
		minPositions: minPositions,
		maxPositions: maxPositions,
	}
}

func calTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return calTickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return calTick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case calTickMsg:
		ctx := context.Background()
		for i, joint := range m.joints {
			pos, err := m.servoMap[i+1].Position(ctx)
			if err != nil {
				continue
			}
			m.record(joint, pos)
		}
		return m, calTick()
	}

	return m, nil
}

func (m calibrationModel) record(joint robot.JointName, pos int) {
	m.curPositions[joint] = pos
	m.minPositions[joint] = min(m.minPositions[joint], pos)
	m.maxPositions[joint] = max(m.maxPositions[joint], pos)
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	headerCell := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	jointCell := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	currentCell := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	goodRange := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	lowRange := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.joints))
	ranges := make([]int, 0, len(m.joints))
	for _, joint := range m.joints {
		span := m.maxPositions[joint] - m.minPositions[joint]
		ranges = append(ranges, span)
		rows = append(rows, []string{
			string(joint),
			fmt.Sprintf("%d", m.curPositions[joint]),
			fmt.Sprintf("%d", m.minPositions[joint]),
			fmt.Sprintf("%d", m.maxPositions[joint]),
			fmt.Sprintf("%d", span),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			switch col {
			case 0:
				return jointCell
			case 1:
				return currentCell
			case 4:
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return goodRange
				}
				return lowRange
			default:
				return cell
			}
		})

	return t.Render() + "\n\n" + dimStyle.Render("Press Enter when done")
}
