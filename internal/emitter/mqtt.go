// Package emitter publishes detection events to an MQTT broker.
package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

const (
	queueSize      = 64
	publishTimeout = 2 * time.Second
	connectTimeout = 5 * time.Second
)

// Config for the MQTT emitter
type Config struct {
	Broker   string // host:port or a full URL
	Topic    string // events go to <Topic>/<mode>
	ClientID string
	QoS      byte
}

// publisher is the part of mqtt.Client the emitter uses
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// MQTTEmitter queues detection events and publishes them from a single
// goroutine so Emit never blocks the stream
type MQTTEmitter struct {
	cfg    Config
	logger *slog.Logger
	client publisher
	queue  chan domain.DetectionEvent

	mu        sync.RWMutex
	published map[string]uint64 // count per topic
	dropped   uint64
	errors    uint64
	connected bool
}

// Stats contains emitter statistics
type Stats struct {
	Connected bool              `json:"connected"`
	Published map[string]uint64 `json:"published"`
	Dropped   uint64            `json:"dropped"`
	Errors    uint64            `json:"errors"`
}

func NewMQTTEmitter(cfg Config, logger *slog.Logger) *MQTTEmitter {
	return &MQTTEmitter{
		cfg:       cfg,
		logger:    logger,
		queue:     make(chan domain.DetectionEvent, queueSize),
		published: make(map[string]uint64),
	}
}

// Connect establishes connection to MQTT broker; auto-reconnect stays on
// afterwards
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(e.cfg.Broker))
	opts.SetClientID(e.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		e.setConnected(true)
		e.logger.Info("mqtt connection established",
			slog.String("broker", e.cfg.Broker),
			slog.String("client_id", e.cfg.ClientID),
		)
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.setConnected(false)
		e.logger.Warn("mqtt connection lost, will auto-reconnect",
			slog.Any("error", err),
			slog.String("broker", e.cfg.Broker),
		)
	}

	client := mqtt.NewClient(opts)
	e.client = client

	e.logger.Info("connecting to mqtt broker", slog.String("broker", e.cfg.Broker))

	token := client.Connect()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	case <-time.After(connectTimeout):
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	e.setConnected(true)
	return nil
}

// Emit queues event; it is dropped when the queue is full
func (e *MQTTEmitter) Emit(event domain.DetectionEvent) {
	select {
	case e.queue <- event:
	default:
		e.mu.Lock()
		e.dropped++
		e.mu.Unlock()
	}
}

// Run publishes queued events until ctx is done, then disconnects
func (e *MQTTEmitter) Run(ctx context.Context) {
	defer e.Disconnect()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-e.queue:
			if err := e.publish(event); err != nil {
				e.logger.Debug("mqtt publish failed",
					slog.String("mode", string(event.Mode)),
					slog.Uint64("seq", event.Seq),
					slog.Any("error", err),
				)
			}
		}
	}
}

func (e *MQTTEmitter) publish(event domain.DetectionEvent) error {
	if e.client == nil || !e.isConnected() {
		e.countError()
		return fmt.Errorf("mqtt not connected")
	}

	topic := e.Topic(event.Mode)

	payload, err := json.Marshal(event)
	if err != nil {
		e.countError()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	token := e.client.Publish(topic, e.cfg.QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		e.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		e.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()

	return nil
}

// Topic returns the topic events of mode are published to
func (e *MQTTEmitter) Topic(mode domain.DetectionMode) string {
	return strings.TrimSuffix(e.cfg.Topic, "/") + "/" + string(mode)
}

// Disconnect closes the MQTT connection
func (e *MQTTEmitter) Disconnect() {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250) // 250ms grace period
		e.logger.Info("mqtt disconnected")
	}
	e.setConnected(false)
}

func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}

	return Stats{
		Connected: e.connected,
		Published: published,
		Dropped:   e.dropped,
		Errors:    e.errors,
	}
}

func (e *MQTTEmitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *MQTTEmitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *MQTTEmitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}
