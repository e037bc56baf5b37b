package uplink

import (
	"sync"
	"time"
)

// MillisFunc is a free-running 32-bit millisecond counter that wraps after
// about 49.7 days.
type MillisFunc func() uint32

// SystemMillis returns a MillisFunc counting from the moment it is called.
func SystemMillis() MillisFunc {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}

// Uptime widens a 32-bit counter into a monotonic 64-bit one. It stays
// correct across wraparound as long as it is read at least once per wrap.
type Uptime struct {
	source MillisFunc

	mu    sync.Mutex
	last  uint32
	total uint64
}

func NewUptime(source MillisFunc) *Uptime {
	return &Uptime{source: source, last: source()}
}

// Millis returns milliseconds elapsed since the Uptime was created.
func (u *Uptime) Millis() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.source()
	u.total += uint64(now - u.last)
	u.last = now
	return u.total
}

// Elapsed is Millis as a Duration.
func (u *Uptime) Elapsed() time.Duration {
	return time.Duration(u.Millis()) * time.Millisecond
}
