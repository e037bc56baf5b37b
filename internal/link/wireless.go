package link

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultProcWireless = "/proc/net/wireless"
	DefaultSysClassNet  = "/sys/class/net"
)

// Wireless reads link state for one interface from the Linux proc and sys
// filesystems.
type Wireless struct {
	Interface    string
	ProcWireless string
	SysClassNet  string
	Logger       *slog.Logger
}

func NewWireless(iface string, logger *slog.Logger) *Wireless {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wireless{
		Interface:    iface,
		ProcWireless: DefaultProcWireless,
		SysClassNet:  DefaultSysClassNet,
		Logger:       logger,
	}
}

// IsLinkUp reports whether the interface operstate is "up".
func (w *Wireless) IsLinkUp() bool {
	raw, err := os.ReadFile(filepath.Join(w.SysClassNet, w.Interface, "operstate"))
	if err != nil {
		w.Logger.Debug("read operstate", "interface", w.Interface, "error", err)
		return false
	}
	return strings.TrimSpace(string(raw)) == "up"
}

// SignalStrength returns the signal level in dBm, or 0 when the interface
// is not associated.
func (w *Wireless) SignalStrength() int8 {
	level, err := w.readLevel()
	if err != nil {
		w.Logger.Debug("read signal level", "interface", w.Interface, "error", err)
		return 0
	}
	return clampInt8(level)
}

func (w *Wireless) readLevel() (float64, error) {
	raw, err := os.ReadFile(w.ProcWireless)
	if err != nil {
		return 0, err
	}
	return parseWirelessLevel(raw, w.Interface)
}

// parseWirelessLevel extracts the "level" column for iface from the
// /proc/net/wireless table.
func parseWirelessLevel(raw []byte, iface string) (float64, error) {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		name, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(name) != iface {
			continue
		}
		fields := strings.Fields(rest)
		// status, link, level, noise, ...
		if len(fields) < 3 {
			return 0, fmt.Errorf("short wireless line for %s", iface)
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], "."), 64)
		if err != nil {
			return 0, fmt.Errorf("parse level %q: %w", fields[2], err)
		}
		return v, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("interface %s not in wireless table", iface)
}

func clampInt8(v float64) int8 {
	if math.IsNaN(v) {
		return 0
	}
	return int8(min(max(v, math.MinInt8), math.MaxInt8))
}
