package app

import (
	"context"
	"log/slog"
	"time"

	"airmon-uplink/internal/aqi"
	"airmon-uplink/internal/mqtt"
	"airmon-uplink/internal/status"
	"airmon-uplink/internal/types"
	"airmon-uplink/internal/uplink"
)

type snapshotter interface {
	Snapshot() types.SensorSnapshot
}

type reconnector interface {
	Reconnect(ctx context.Context) bool
}

type cycleWriter interface {
	Insert(ctx context.Context, out uplink.Outcome) error
}

type statusPublisher interface {
	PublishResult(r aqi.Result) error
	PublishLink(s mqtt.LinkState) error
}

// controller drives the device main loop. Each step keeps the link alive
// and, when a send is due, fans the outcome out to the status consumers.
type controller struct {
	manager   *uplink.Manager
	link      uplink.LinkProvider
	sensors   snapshotter
	reconnect reconnector
	store     *status.Store

	// optional
	journal   cycleWriter
	publisher statusPublisher

	logger *slog.Logger
	now    func() time.Time
}

func (c *controller) step(ctx context.Context) {
	up := c.link.IsLinkUp()
	if !up && c.manager.CanAttemptReconnect() {
		c.logger.Info("wifi down, attempting reconnect")
		ok := c.reconnect.Reconnect(ctx) && c.link.IsLinkUp()
		c.manager.RecordReconnect(ok)
		up = ok
	}
	c.store.SetLink(up, c.link.SignalStrength())

	if !up || !c.manager.IsTimeToSend() {
		return
	}

	hadCycle := c.store.Get().Cycles > 0
	wasOK := c.manager.LastSendSucceeded()

	out := c.manager.SendDataAndGetAQI(ctx, c.sensors.Snapshot())
	c.store.RecordCycle(out)

	switch {
	case hadCycle && !wasOK && out.Sent:
		c.logger.Info("uplink recovered", "cycle_id", out.ID)
	case (!hadCycle || wasOK) && !out.Sent:
		c.logger.Warn("uplink send failing", "cycle_id", out.ID)
	}

	if c.journal != nil {
		if err := c.journal.Insert(ctx, out); err != nil {
			c.logger.Error("journal insert failed", "cycle_id", out.ID, "error", err)
		}
	}
	c.publish(out)
}

func (c *controller) publish(out uplink.Outcome) {
	if c.publisher == nil {
		return
	}
	if out.Sent {
		if err := c.publisher.PublishResult(out.Result); err != nil {
			c.logger.Warn("mqtt publish aqi failed", "error", err)
		}
	}
	err := c.publisher.PublishLink(mqtt.LinkState{
		LinkUp:    out.LinkUp,
		RSSI:      out.RSSI,
		Sent:      out.Sent,
		Timestamp: c.now().UTC(),
	})
	if err != nil {
		c.logger.Warn("mqtt publish link failed", "error", err)
	}
}

// loop runs step once immediately and then on every tick until ctx ends.
func (c *controller) loop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.step(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}
