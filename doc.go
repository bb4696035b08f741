// Package jojo is the operator console for JoJo robots: a mobile base with
// a five-joint arm, driven through a command relay that talks MQTT to the
// robots.
//
// # Installation
//
//	go install github.com/gwillem/jojo/cmd/jojo@latest
//
// # Usage
//
// First, run setup to register robots and, optionally, calibrate an arm
// attached over serial:
//
//	jojo setup
//
// Run the command relay next to an MQTT broker:
//
//	jojo relay
//
// Then drive a robot from the terminal, or serve the browser bridge:
//
//	jojo control
//	jojo serve
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/jojo: CLI with setup, control, relay and serve commands
//   - pkg/control: input adapters, joystick mapping and locomotion state machine
//   - pkg/teleop: operator session (dispatch, status polling, toasts)
//   - pkg/relay: relay client and server, serial arm dispatcher
//   - pkg/web: websocket bridge for the browser console
//   - pkg/robot: joints, selection, configuration and serial arm driver
package jojo
