package robot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// JointCalibration maps the 0-180 degree range of a joint onto raw servo ticks.
type JointCalibration struct {
	ID       int `json:"id" yaml:"id"`
	RangeMin int `json:"range_min" yaml:"range_min"`
	RangeMax int `json:"range_max" yaml:"range_max"`
}

// Calibration holds calibration data for all joints, keyed by joint name.
type Calibration map[JointName]JointCalibration

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var raw map[string]JointCalibration
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}

	cal := make(Calibration, len(raw))
	for name, jc := range raw {
		cal[JointName(name)] = jc
	}

	return cal, nil
}

// ToDegrees converts a raw servo position to an angle in [0, 180].
func (c JointCalibration) ToDegrees(raw int) int {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return CenterAngle
	}
	deg := float64(raw-c.RangeMin) / rangeSize * MaxAngle
	return ClampAngle(int(math.Round(deg)))
}

// ToRaw converts an angle in degrees to a raw servo position.
// Angles outside [0, 180] are clamped first.
func (c JointCalibration) ToRaw(deg int) int {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int(math.Round(float64(ClampAngle(deg))/MaxAngle*rangeSize)) + c.RangeMin
}

// ServoIDs returns the servo IDs for all joints in the calibration.
func (c Calibration) ServoIDs() []int {
	ids := make([]int, 0, len(c))
	// AllJoints() keeps the ordering stable
	for _, name := range AllJoints() {
		if jc, ok := c[name]; ok {
			ids = append(ids, jc.ID)
		}
	}
	return ids
}

// ByID returns joint name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (JointName, JointCalibration, bool) {
	for name, jc := range c {
		if jc.ID == id {
			return name, jc, true
		}
	}
	return "", JointCalibration{}, false
}
