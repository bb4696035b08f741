package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/gwillem/jojo/pkg/robot"
)

type Options struct {
	Config string `short:"c" long:"config" default:"jojo.json" description:"Configuration file (.json or .yaml)"`

	Control ControlCommand `command:"control" alias:"teleop" description:"Drive a robot from the terminal"`
	Setup   SetupCommand   `command:"setup" description:"Scan for a serial arm, calibrate it and register robots"`
	Relay   RelayCommand   `command:"relay" description:"Run the command relay (HTTP to MQTT)"`
	Serve   ServeCommand   `command:"serve" description:"Serve the browser operator bridge"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "jojo - operator console for JoJo robots"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// loadConfig reads the configured file or exits with a hint to run setup.
func loadConfig() *robot.Config {
	cfg, err := robot.LoadConfigFrom(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No configuration found in %s. Run 'jojo setup' first.\n", opts.Config)
		fmt.Fprintf(os.Stderr, "  (%v)\n", err)
		os.Exit(1)
	}
	return cfg
}
