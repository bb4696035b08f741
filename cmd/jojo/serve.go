package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gwillem/jojo/internal/log"
	"github.com/gwillem/jojo/pkg/relay"
	"github.com/gwillem/jojo/pkg/teleop"
	"github.com/gwillem/jojo/pkg/web"
)

type ServeCommand struct {
	Listen   string        `long:"listen" default:":8081" description:"HTTP listen address"`
	Relay    string        `long:"relay" description:"Command relay URL (default from config)"`
	Cooldown time.Duration `long:"cooldown" default:"100ms" description:"Locomotion dispatch cool-down"`
	Poll     time.Duration `long:"poll" default:"5s" description:"Robot status poll interval"`
	LogLevel string        `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
}

func (c *ServeCommand) Execute(args []string) error {
	log.Init(c.LogLevel)
	cfg := loadConfig()

	relayURL := cfg.RelayURL
	if c.Relay != "" {
		relayURL = c.Relay
	}
	client := relay.NewHTTPClient(relayURL, relay.DefaultTimeout)
	log.Info("using command relay", "url", relayURL)

	bridge := web.NewBridge(cfg.Robots, teleop.Config{
		Dispatcher:   client,
		Status:       client,
		Cooldown:     c.Cooldown,
		PollInterval: c.Poll,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := bridge.Shutdown(shutdownCtx); err != nil {
			log.Error("bridge shutdown", "err", err)
		}
	}()

	return bridge.Start(c.Listen)
}
