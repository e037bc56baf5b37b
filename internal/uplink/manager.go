package uplink

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"airmon-uplink/internal/aqi"
	"airmon-uplink/internal/packet"
	"airmon-uplink/internal/types"
)

const (
	DefaultSendInterval      = 10 * time.Second
	DefaultReconnectInterval = 60 * time.Second
	DefaultReconnectMax      = 10 * time.Minute
)

// Sender delivers bytes to the aggregator.
type Sender interface {
	SendBinary(ctx context.Context, payload []byte) bool
	SendJSON(ctx context.Context, body []byte) ([]byte, bool)
}

// LinkProvider exposes the Wi-Fi link state.
type LinkProvider interface {
	IsLinkUp() bool
	SignalStrength() int8
}

type Config struct {
	SendInterval      time.Duration
	ReconnectInterval time.Duration
	ReconnectMax      time.Duration
}

// Outcome describes one send cycle.
type Outcome struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Sent      bool
	Result    aqi.Result
	LinkUp    bool
	RSSI      int8
}

// Manager runs the uplink cycle: binary packet first, AQI request second.
// It is driven from a single control loop and is not safe for concurrent use.
type Manager struct {
	cfg    Config
	sender Sender
	link   LinkProvider
	uptime *Uptime
	logger *slog.Logger
	now    func() time.Time

	lastSend time.Duration
	hasSent  bool
	lastOK   bool

	reconnect *reconnectGate
}

func NewManager(cfg Config, sender Sender, link LinkProvider, uptime *Uptime, logger *slog.Logger) (*Manager, error) {
	if sender == nil {
		return nil, errors.New("uplink: sender required")
	}
	if link == nil {
		return nil, errors.New("uplink: link provider required")
	}
	if uptime == nil {
		uptime = NewUptime(SystemMillis())
	}
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = DefaultSendInterval
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.ReconnectMax < cfg.ReconnectInterval {
		cfg.ReconnectMax = max(DefaultReconnectMax, cfg.ReconnectInterval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:       cfg,
		sender:    sender,
		link:      link,
		uptime:    uptime,
		logger:    logger,
		now:       time.Now,
		reconnect: newReconnectGate(cfg.ReconnectInterval, cfg.ReconnectMax),
	}, nil
}

// IsTimeToSend reports whether the send interval has passed since the last
// successful binary delivery. A manager that never delivered is always due.
func (m *Manager) IsTimeToSend() bool {
	if !m.hasSent {
		return true
	}
	return m.uptime.Elapsed()-m.lastSend >= m.cfg.SendInterval
}

// LastSendSucceeded reports the outcome of the most recent binary send.
func (m *Manager) LastSendSucceeded() bool { return m.lastOK }

// SendDataAndGetAQI encodes and delivers the snapshot, then asks for the AQI.
// The last-send time moves only when the binary leg succeeded; the AQI leg
// is best effort and never undoes a delivery.
func (m *Manager) SendDataAndGetAQI(ctx context.Context, snap types.SensorSnapshot) Outcome {
	out := Outcome{
		ID:        uuid.NewString(),
		StartedAt: m.now(),
		Result:    aqi.Default(),
		LinkUp:    m.link.IsLinkUp(),
		RSSI:      m.link.SignalStrength(),
	}
	logger := m.logger.With("cycle_id", out.ID)

	snap.Uptime = m.uptime.Elapsed()
	snap.RSSI = out.RSSI
	pkt := packet.Encode(snap)
	logger.Debug("packet encoded", "size", packet.Size, "hex", hex.EncodeToString(pkt.Bytes()))

	out.Sent = m.sender.SendBinary(ctx, pkt.Bytes())
	m.lastOK = out.Sent
	if !out.Sent {
		logger.Warn("uplink cycle failed, will retry next cycle")
		out.Duration = m.now().Sub(out.StartedAt)
		return out
	}

	out.Result = m.fetchAQI(ctx, logger, snap)
	m.lastSend = m.uptime.Elapsed()
	m.hasSent = true

	out.Duration = m.now().Sub(out.StartedAt)
	logger.Info("uplink cycle complete",
		"aqi_success", out.Result.Success,
		"aqi", out.Result.AQI,
		"level", out.Result.Level,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out
}

func (m *Manager) fetchAQI(ctx context.Context, logger *slog.Logger, snap types.SensorSnapshot) aqi.Result {
	body, err := aqi.NewRequest(snap).Marshal()
	if err != nil {
		logger.Error("marshal aqi request", "error", err)
		return aqi.Default()
	}
	reply, ok := m.sender.SendJSON(ctx, body)
	if !ok {
		return aqi.Default()
	}
	return aqi.Decode(reply)
}

// CanAttemptReconnect reports whether the Wi-Fi backoff allows another
// reconnection attempt now. Independent of the send schedule.
func (m *Manager) CanAttemptReconnect() bool {
	return m.reconnect.canAttempt(m.uptime.Elapsed())
}

// RecordReconnect feeds the result of a reconnection attempt into the backoff.
func (m *Manager) RecordReconnect(success bool) {
	m.reconnect.record(m.uptime.Elapsed(), success)
	if success {
		m.logger.Info("wifi reconnected")
		return
	}
	m.logger.Warn("wifi reconnect failed",
		"failures", m.reconnect.failures,
		"next_attempt_in", m.reconnect.wait,
	)
}

// ReconnectDelay returns the current wait between reconnection attempts.
func (m *Manager) ReconnectDelay() time.Duration { return m.reconnect.wait }
