package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts     = 3
	DefaultRetryDelay      = 2 * time.Second
	DefaultMaxRetryDelay   = 30 * time.Second
	DefaultBinaryTimeout   = 5 * time.Second
	DefaultJSONTimeout     = 3 * time.Second
	DefaultMaxResponseSize = 2048
)

var (
	errLinkDown         = errors.New("link down")
	errOversized        = errors.New("response too large")
	errUnexpectedStatus = errors.New("unexpected status")
)

// LinkChecker reports link-layer connectivity.
type LinkChecker interface {
	IsLinkUp() bool
}

type Config struct {
	SendURL string
	AQIURL  string

	MaxAttempts     int
	RetryDelay      time.Duration
	MaxRetryDelay   time.Duration
	BinaryTimeout   time.Duration
	JSONTimeout     time.Duration
	MaxResponseSize int64
}

// Client moves opaque bytes to the aggregator. It knows nothing about the
// packet or AQI formats.
type Client struct {
	cfg    Config
	http   *http.Client
	link   LinkChecker
	logger *slog.Logger

	// sleep waits for d or until ctx is done; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, link LinkChecker, logger *slog.Logger) (*Client, error) {
	if cfg.SendURL == "" {
		return nil, errors.New("transport: send url required")
	}
	if cfg.AQIURL == "" {
		return nil, errors.New("transport: aqi url required")
	}
	if link == nil {
		return nil, errors.New("transport: link checker required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = max(DefaultMaxRetryDelay, cfg.RetryDelay)
	}
	if cfg.BinaryTimeout <= 0 {
		cfg.BinaryTimeout = DefaultBinaryTimeout
	}
	if cfg.JSONTimeout <= 0 {
		cfg.JSONTimeout = DefaultJSONTimeout
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = DefaultMaxResponseSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		link:   link,
		logger: logger,
		sleep:  sleepContext,
	}, nil
}

// SendBinary posts payload to the send endpoint, retrying with exponential
// backoff up to MaxAttempts. A down link counts as a failed attempt.
// Any 2xx status is success.
func (c *Client) SendBinary(ctx context.Context, payload []byte) bool {
	delays := c.retryBackoff()

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		err := c.postBinary(ctx, payload)
		if err == nil {
			c.logger.Debug("binary packet delivered", "attempt", attempt, "size", len(payload))
			return true
		}

		c.logger.Warn("binary send failed",
			"attempt", attempt,
			"max_attempts", c.cfg.MaxAttempts,
			"error", err,
		)

		if attempt == c.cfg.MaxAttempts {
			break
		}
		d := delays.NextBackOff()
		if err := c.sleep(ctx, d); err != nil {
			c.logger.Warn("binary send aborted", "error", err)
			return false
		}
	}

	c.logger.Error("binary send gave up", "attempts", c.cfg.MaxAttempts)
	return false
}

func (c *Client) postBinary(ctx context.Context, payload []byte) error {
	if !c.link.IsLinkUp() {
		return errLinkDown
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.BinaryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Packet-Size", strconv.Itoa(len(payload)))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer closeBody(resp.Body)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.cfg.MaxResponseSize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// SendJSON posts body to the AQI endpoint once and returns the reply.
// The reply is dropped if the link is down, the status is not 2xx, or it is
// larger than MaxResponseSize by declaration or in fact.
func (c *Client) SendJSON(ctx context.Context, body []byte) ([]byte, bool) {
	reply, err := c.postJSON(ctx, body)
	if err != nil {
		c.logger.Warn("aqi request failed", "error", err)
		return nil, false
	}
	return reply, true
}

func (c *Client) postJSON(ctx context.Context, body []byte) ([]byte, error) {
	if !c.link.IsLinkUp() {
		return nil, errLinkDown
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.JSONTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AQIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}
	if resp.ContentLength > c.cfg.MaxResponseSize {
		return nil, fmt.Errorf("%w: declared %d bytes", errOversized, resp.ContentLength)
	}

	reply, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if int64(len(reply)) > c.cfg.MaxResponseSize {
		return nil, fmt.Errorf("%w: more than %d bytes", errOversized, c.cfg.MaxResponseSize)
	}
	return reply, nil
}

// retryBackoff returns a fresh doubling schedule for one SendBinary call.
func (c *Client) retryBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryDelay
	b.MaxInterval = c.cfg.MaxRetryDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		slog.Debug("close response body", "error", err)
	}
}
