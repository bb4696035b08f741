package robot

import "time"

// Status is the last fetched remote state of a robot. Display only.
type Status struct {
	BatteryLevel int       `json:"battery_level"`
	Online       bool      `json:"is_online"`
	FetchedAt    time.Time `json:"-"`
}
