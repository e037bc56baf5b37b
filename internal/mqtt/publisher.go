package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"airmon-uplink/internal/aqi"
)

const publishTimeout = 5 * time.Second

var (
	ErrNotConnected = errors.New("mqtt client not connected")
	errStopped      = errors.New("mqtt client stopped")
)

type Options struct {
	Broker      string
	Port        int
	ClientID    string
	TopicPrefix string
	DeviceID    string
}

// LinkState is the retained payload on the link topic.
type LinkState struct {
	LinkUp    bool      `json:"link_up"`
	RSSI      int8      `json:"rssi"`
	Sent      bool      `json:"sent"`
	Timestamp time.Time `json:"ts"`
}

// Publisher fans uplink status out to an MQTT broker. Publishing is best
// effort; callers log the error and carry on.
type Publisher struct {
	client paho.Client
	opts   Options
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(opts Options, logger *slog.Logger) (*Publisher, error) {
	if opts.Broker == "" {
		return nil, errors.New("mqtt: broker required")
	}
	if opts.DeviceID == "" {
		return nil, errors.New("mqtt: device id required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		opts:   opts,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	co := paho.NewClientOptions()
	co.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	co.SetClientID(opts.ClientID)
	co.SetCleanSession(true)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(5 * time.Second)
	co.SetMaxReconnectInterval(60 * time.Second)
	co.SetKeepAlive(30 * time.Second)
	co.SetPingTimeout(10 * time.Second)

	// Broker clears the retained link state if the uplink vanishes.
	offline, _ := json.Marshal(LinkState{})
	co.SetWill(p.LinkTopic(), string(offline), 1, true)

	co.SetOnConnectHandler(func(_ paho.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", opts.Broker, "port", opts.Port)
	})
	co.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = paho.NewClient(co)
	return p, nil
}

func (p *Publisher) AQITopic() string  { return p.topic("aqi") }
func (p *Publisher) LinkTopic() string { return p.topic("link") }

func (p *Publisher) topic(leaf string) string {
	if p.opts.TopicPrefix == "" {
		return p.opts.DeviceID + "/" + leaf
	}
	return p.opts.TopicPrefix + "/" + p.opts.DeviceID + "/" + leaf
}

// Connect waits for the first broker connection. It returns early on ctx
// cancellation or Disconnect; paho keeps retrying in the background.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return errStopped
	default:
	}
	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return errStopped
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// PublishResult publishes the retained AQI result.
func (p *Publisher) PublishResult(r aqi.Result) error {
	return p.publish(p.AQITopic(), r)
}

// PublishLink publishes the retained link state.
func (p *Publisher) PublishLink(s LinkState) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return p.publish(p.LinkTopic(), s)
}

func (p *Publisher) publish(topic string, v any) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}

	token := p.client.Publish(topic, 1, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.Debug("mqtt published", "topic", topic, "bytes", len(data))
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher. Safe to call more than once; Connect
// fails afterwards.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.client.Disconnect(250)
	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
