package robot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "jojo.json"

// Defaults applied to missing config values.
const (
	DefaultRelayURL      = "http://localhost:5000"
	DefaultListen        = ":8080"
	DefaultMQTTHost      = "localhost"
	DefaultMQTTPort      = 1883
	DefaultMQTTKeepAlive = 60
	DefaultMQTTClientID  = "jojo_web_app"
)

// Config holds the operator console configuration
type Config struct {
	RelayURL string        `json:"relay_url" yaml:"relay_url"`
	Listen   string        `json:"listen,omitempty" yaml:"listen,omitempty"`
	Robots   []RobotConfig `json:"robots" yaml:"robots"`
	Arm      ArmConfig     `json:"arm,omitempty" yaml:"arm,omitempty"`
	MQTT     MQTTConfig    `json:"mqtt" yaml:"mqtt"`
}

// RobotConfig describes one robot reachable through the command relay
type RobotConfig struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Address      string `json:"address,omitempty" yaml:"address,omitempty"`
	SerialNumber string `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	MQTTTopic    string `json:"mqtt_topic,omitempty" yaml:"mqtt_topic,omitempty"`
	Active       bool   `json:"active" yaml:"active"`
}

// Selection returns the operator-facing identity of the robot.
func (r RobotConfig) Selection() Selection {
	return Selection{ID: r.ID, Name: r.Name, Address: r.Address}
}

// Topic returns the MQTT base topic, derived from the serial number if unset.
func (r RobotConfig) Topic() string {
	if r.MQTTTopic != "" {
		return r.MQTTTopic
	}
	serial := r.SerialNumber
	if serial == "" {
		serial = r.ID
	}
	return "jojo/" + strings.ReplaceAll(strings.ToLower(serial), " ", "_")
}

// ArmConfig holds configuration for a serially attached arm
type ArmConfig struct {
	Port        string      `json:"port,omitempty" yaml:"port,omitempty"`
	Calibration Calibration `json:"calibration,omitempty" yaml:"calibration,omitempty"`
}

// IsCalibrated returns true if the arm has calibration data
func (a *ArmConfig) IsCalibrated() bool {
	return len(a.Calibration) > 0
}

// MQTTConfig holds the broker settings used by the relay server
type MQTTConfig struct {
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Username  string `json:"username,omitempty" yaml:"username,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	KeepAlive int    `json:"keepalive" yaml:"keepalive"`
	ClientID  string `json:"client_id" yaml:"client_id"`
}

// Broker returns the broker URL in the form expected by paho.
func (m MQTTConfig) Broker() string {
	return fmt.Sprintf("tcp://%s:%d", m.Host, m.Port)
}

// Robot looks up a configured robot by ID.
func (c *Config) Robot(id string) (RobotConfig, bool) {
	for _, r := range c.Robots {
		if r.ID == id {
			return r, true
		}
	}
	return RobotConfig{}, false
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Files ending in
// .yaml or .yml are decoded as YAML, anything else as JSON. Values from the
// environment (and a .env file, if present) override the file.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("JOJO_RELAY_URL"); v != "" {
		c.RelayURL = v
	}
	if v := os.Getenv("MQTT_BROKER_HOST"); v != "" {
		c.MQTT.Host = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		c.MQTT.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
	if v := os.Getenv("MQTT_BROKER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MQTT_BROKER_PORT: %w", err)
		}
		c.MQTT.Port = port
	}
	if v := os.Getenv("MQTT_KEEPALIVE"); v != "" {
		ka, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MQTT_KEEPALIVE: %w", err)
		}
		c.MQTT.KeepAlive = ka
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.RelayURL == "" {
		c.RelayURL = DefaultRelayURL
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.MQTT.Host == "" {
		c.MQTT.Host = DefaultMQTTHost
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = DefaultMQTTPort
	}
	if c.MQTT.KeepAlive == 0 {
		c.MQTT.KeepAlive = DefaultMQTTKeepAlive
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = DefaultMQTTClientID
	}
}
