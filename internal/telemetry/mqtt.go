// Package telemetry publishes control frames to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soar/BrickTeleop/internal/control"
)

const (
	DefaultTopic    = "brick/telemetry"
	DefaultInterval = 100 * time.Millisecond

	disconnectQuiesceMS = 250
	publishTimeout      = time.Second
)

// PublishFunc sends one payload to a topic.
type PublishFunc func(topic string, payload []byte) error

type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Interval time.Duration
}

// Publisher forwards frames to MQTT, at most one per interval.
type Publisher struct {
	publish  PublishFunc
	topic    string
	interval time.Duration
	frames   chan control.Frame
	logger   *zap.SugaredLogger

	client mqtt.Client
	last   time.Time
	sent   atomic.Int64
}

// Connect opens an MQTT connection and returns a Publisher bound to it.
func Connect(cfg Config, logger *zap.SugaredLogger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "connect to MQTT broker %s", cfg.Broker)
	}
	logger.Infow("connected to MQTT", "broker", cfg.Broker, "topic", cfg.Topic)

	p := NewPublisher(func(topic string, payload []byte) error {
		token := client.Publish(topic, 0, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			return errors.Errorf("publish to %s timed out", topic)
		}
		return token.Error()
	}, cfg.Topic, cfg.Interval, logger)
	p.client = client
	return p, nil
}

func NewPublisher(publish PublishFunc, topic string, interval time.Duration, logger *zap.SugaredLogger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Publisher{
		publish:  publish,
		topic:    topic,
		interval: interval,
		frames:   make(chan control.Frame, 16),
		logger:   logger,
	}
}

// Observe queues a frame without blocking; frames are dropped when the queue is full.
func (p *Publisher) Observe(f control.Frame) {
	select {
	case p.frames <- f:
	default:
	}
}

// Run publishes queued frames until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-p.frames:
			if err := p.handle(f); err != nil {
				p.logger.Warnw("MQTT publish error", "topic", p.topic, "seq", f.Seq, "error", err)
			}
		}
	}
}

// handle publishes f unless the previous publish was less than one interval ago.
func (p *Publisher) handle(f control.Frame) error {
	if !p.last.IsZero() && f.Time.Sub(p.last) < p.interval {
		return nil
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encode frame")
	}
	p.last = f.Time
	if err := p.publish(p.topic, payload); err != nil {
		return err
	}
	p.sent.Add(1)
	return nil
}

// Sent returns the number of frames published so far.
func (p *Publisher) Sent() int64 {
	return p.sent.Load()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client == nil {
		return
	}
	p.client.Disconnect(disconnectQuiesceMS)
	p.logger.Infow("MQTT disconnected", "published", p.Sent())
}
