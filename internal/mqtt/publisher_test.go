package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"airmon-uplink/internal/aqi"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPublisher_Validation(t *testing.T) {
	if _, err := NewPublisher(Options{DeviceID: "x"}, nil); err == nil {
		t.Error("expected error without broker")
	}
	if _, err := NewPublisher(Options{Broker: "localhost"}, nil); err == nil {
		t.Error("expected error without device id")
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		prefix   string
		wantAQI  string
		wantLink string
	}{
		{prefix: "airmon", wantAQI: "airmon/kitchen/aqi", wantLink: "airmon/kitchen/link"},
		{prefix: "home/air", wantAQI: "home/air/kitchen/aqi", wantLink: "home/air/kitchen/link"},
		{prefix: "", wantAQI: "kitchen/aqi", wantLink: "kitchen/link"},
	}
	for _, tt := range tests {
		p, err := NewPublisher(Options{Broker: "localhost", Port: 1883, TopicPrefix: tt.prefix, DeviceID: "kitchen"}, quietLogger())
		if err != nil {
			t.Fatalf("NewPublisher() error = %v", err)
		}
		if got := p.AQITopic(); got != tt.wantAQI {
			t.Errorf("AQITopic() = %q, want %q", got, tt.wantAQI)
		}
		if got := p.LinkTopic(); got != tt.wantLink {
			t.Errorf("LinkTopic() = %q, want %q", got, tt.wantLink)
		}
	}
}

func TestPublish_NotConnected(t *testing.T) {
	p, err := NewPublisher(Options{Broker: "localhost", Port: 1883, DeviceID: "kitchen"}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.PublishResult(aqi.Default()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishResult() error = %v, want ErrNotConnected", err)
	}
	if err := p.PublishLink(LinkState{}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishLink() error = %v, want ErrNotConnected", err)
	}
}

func TestConnect_HonoursContextAndStop(t *testing.T) {
	// Port 1 on loopback refuses; with ConnectRetry the token never completes.
	p, err := NewPublisher(Options{Broker: "127.0.0.1", Port: 1, ClientID: "t", DeviceID: "kitchen"}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := p.Connect(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Connect() error = %v, want deadline exceeded", err)
	}

	stopped, err := NewPublisher(Options{Broker: "127.0.0.1", Port: 1, ClientID: "s", DeviceID: "kitchen"}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	stopped.Disconnect()
	stopped.Disconnect()
	if err := stopped.Connect(context.Background()); !errors.Is(err, errStopped) {
		t.Errorf("Connect() after Disconnect error = %v, want errStopped", err)
	}
}
