package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"airmon-uplink/internal/aqi"
	"airmon-uplink/internal/uplink"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one persisted send cycle. The packet bytes are never stored.
type Entry struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	DurationMS int64      `json:"duration_ms"`
	Sent       bool       `json:"sent"`
	AQI        aqi.Result `json:"aqi"`
	LinkUp     bool       `json:"link_up"`
	RSSI       int8       `json:"rssi"`
}

// Journal records send cycles in SQLite.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) (*Journal, error) {
	if db == nil {
		return nil, errors.New("journal: db required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{db: db, logger: logger}, nil
}

const insertSQL = `
INSERT INTO uplink_cycles
  (id, started_at, duration_ms, sent, aqi_success, aqi, level, color, link_up, rssi)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (j *Journal) Insert(ctx context.Context, out uplink.Outcome) error {
	if out.ID == "" {
		return errors.New("journal: cycle id required")
	}
	_, err := j.db.ExecContext(ctx, insertSQL,
		out.ID,
		out.StartedAt.UTC().Format(timeLayout),
		out.Duration.Milliseconds(),
		out.Sent,
		out.Result.Success,
		out.Result.AQI,
		out.Result.Level,
		int64(out.Result.Color),
		out.LinkUp,
		int64(out.RSSI),
	)
	if err != nil {
		return fmt.Errorf("insert cycle %s: %w", out.ID, err)
	}
	return nil
}

const recentSQL = `
SELECT id, started_at, duration_ms, sent, aqi_success, aqi, level, color, link_up, rssi
FROM uplink_cycles
ORDER BY started_at DESC, rowid DESC
LIMIT ?`

// Recent returns up to limit cycles, newest first. The limit is clamped to
// 1..MaxLimit.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	limit = min(max(limit, 1), MaxLimit)

	rows, err := j.db.QueryContext(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent cycles: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			j.logger.Error("close cycle rows", "error", err)
		}
	}()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e     Entry
			ts    string
			color int64
			rssi  int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.DurationMS, &e.Sent,
			&e.AQI.Success, &e.AQI.AQI, &e.AQI.Level, &color, &e.LinkUp, &rssi); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", ts, err)
		}
		e.StartedAt = t
		e.AQI.Color = uint32(color)
		e.RSSI = int8(rssi)
		out = append(out, e)
	}
	return out, rows.Err()
}
