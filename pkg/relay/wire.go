// Package relay talks to the command relay: the backend that forwards
// operator commands to the robots over MQTT. It holds the HTTP client used by
// the console, a serial dispatcher for a locally attached arm, and the relay
// server itself.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupported is returned by dispatchers for channels they cannot serve.
	ErrUnsupported = errors.New("command not supported by this dispatcher")
	// ErrRejected is returned when the relay answers but refuses the command.
	ErrRejected = errors.New("relay rejected command")
)

// StatusTopic is the MQTT subscription for robot status reports.
const StatusTopic = "jojo/+/status"

// ArmTopic is the MQTT topic for a single arm joint.
func ArmTopic(robotID, joint string) string {
	return fmt.Sprintf("robot/%s/arm/%s", robotID, joint)
}

// CommandRequest is the body of POST /api/robot/:id/command.
type CommandRequest struct {
	Action  string `json:"action"`
	Value   *int   `json:"value"`
	Address string `json:"address,omitempty"`
}

// CommandResponse is the reply to a command.
type CommandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	RobotID string `json:"robot_id,omitempty"`
	Action  string `json:"action,omitempty"`
	Value   *int   `json:"value,omitempty"`
}

// PublishRequest is the body of POST /api/mqtt/publish.
type PublishRequest struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// JointPayload is the MQTT payload of an arm joint command.
type JointPayload struct {
	Value int `json:"value"`
}

// MQTTCommand is the MQTT payload of a drive or action command.
type MQTTCommand struct {
	Action    string `json:"action"`
	Value     *int   `json:"value"`
	Timestamp string `json:"timestamp"`
}

// RobotStatus is the robot object of a status reply.
type RobotStatus struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	SerialNumber string     `json:"serial_number,omitempty"`
	IsOnline     bool       `json:"is_online"`
	IsActive     bool       `json:"is_active"`
	BatteryLevel int        `json:"battery_level"`
	LastSeen     *time.Time `json:"last_seen"`
}

// StatusResponse is the reply of GET /api/robot/:id/status.
type StatusResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Robot   *RobotStatus `json:"robot,omitempty"`
}

// StatusReport is what a robot publishes on its status topic.
type StatusReport struct {
	BatteryLevel *int  `json:"battery_level"`
	IsOnline     *bool `json:"is_online"`
}
