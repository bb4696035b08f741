package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gwillem/jojo/internal/log"
	"github.com/gwillem/jojo/pkg/relay"
)

type RelayCommand struct {
	Listen   string `long:"listen" description:"HTTP listen address (default from config)"`
	LogLevel string `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
}

func (c *RelayCommand) Execute(args []string) error {
	log.Init(c.LogLevel)
	cfg := loadConfig()

	addr := cfg.Listen
	if c.Listen != "" {
		addr = c.Listen
	}

	var srv *relay.Server
	pub := relay.NewMQTTPublisher(cfg.MQTT, func(topic string, payload []byte) error {
		return srv.HandleStatusReport(topic, payload)
	})
	srv = relay.NewServer(cfg.Robots, pub)

	log.Info("connecting to mqtt broker", "broker", cfg.MQTT.Broker(), "client_id", cfg.MQTT.ClientID)
	pub.Connect()
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("relay shutdown", "err", err)
		}
	}()

	return srv.Start(addr)
}
