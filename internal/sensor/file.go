package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"airmon-uplink/internal/types"
)

// DefaultMaxAge is how old a snapshot file may be before it is treated as
// stale.
const DefaultMaxAge = 30 * time.Second

// FileSource reads the latest snapshot written by the acquisition process.
type FileSource struct {
	path   string
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewFileSource(path string, maxAge time.Duration, logger *slog.Logger) *FileSource {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, maxAge: maxAge, logger: logger, now: time.Now}
}

// Snapshot returns the current readings. A missing, stale or unparsable file
// yields a snapshot with every sensor marked unavailable.
func (f *FileSource) Snapshot() types.SensorSnapshot {
	snap, err := f.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Debug("snapshot file missing", "path", f.path)
		} else {
			f.logger.Warn("snapshot unavailable", "path", f.path, "error", err)
		}
		return types.SensorSnapshot{}
	}
	return snap
}

func (f *FileSource) read() (types.SensorSnapshot, error) {
	var snap types.SensorSnapshot

	info, err := os.Stat(f.path)
	if err != nil {
		return snap, err
	}
	if age := f.now().Sub(info.ModTime()); age > f.maxAge {
		return snap, fmt.Errorf("stale snapshot: %s old", age.Round(time.Second))
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return types.SensorSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
