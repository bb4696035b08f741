package relay

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gwillem/jojo/internal/log"
	"github.com/gwillem/jojo/pkg/robot"
)

const (
	// CommandQoS is the delivery guarantee for robot commands.
	CommandQoS = 1

	publishTimeout = 2 * time.Second
	retryInterval  = 5 * time.Second
)

// StatusHandler receives messages published on StatusTopic.
type StatusHandler func(topic string, payload []byte) error

// MQTTPublisher publishes relay commands to the broker and feeds robot status
// reports back to a handler.
type MQTTPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher configures a client for cfg. Call Connect to start it.
func NewMQTTPublisher(cfg robot.MQTTConfig, onStatus StatusHandler) *MQTTPublisher {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker()).
		SetClientID(cfg.ClientID).
		SetKeepAlive(time.Duration(cfg.KeepAlive) * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval)
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Info("mqtt connected", "broker", cfg.Broker())
		if onStatus == nil {
			return
		}
		tok := c.Subscribe(StatusTopic, CommandQoS, func(_ mqtt.Client, m mqtt.Message) {
			if err := onStatus(m.Topic(), m.Payload()); err != nil {
				log.Warn("status report", "topic", m.Topic(), "err", err)
			}
		})
		if tok.WaitTimeout(publishTimeout) && tok.Error() != nil {
			log.Error("mqtt subscribe", "topic", StatusTopic, "err", tok.Error())
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", "err", err)
	})

	return &MQTTPublisher{client: mqtt.NewClient(opts)}
}

// Connect starts connecting in the background. The client keeps retrying
// until the broker is reachable; publishes fail until then.
func (p *MQTTPublisher) Connect() {
	p.client.Connect()
}

// Connected reports whether the broker connection is up.
func (p *MQTTPublisher) Connected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends payload to topic and waits for the broker to acknowledge it.
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		log.Warn("mqtt not connected, publishing anyway", "topic", topic)
	}
	tok := p.client.Publish(topic, CommandQoS, false, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: %w", topic, errPublishTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

var errPublishTimeout = errors.New("timed out waiting for broker")
