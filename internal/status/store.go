package status

import (
	"sync"
	"time"

	"airmon-uplink/internal/aqi"
	"airmon-uplink/internal/uplink"
)

// Snapshot is the externally visible uplink state.
type Snapshot struct {
	AQI                 aqi.Result `json:"aqi"`
	LastSendSucceeded   bool       `json:"last_send_succeeded"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastCycleAt         *time.Time `json:"last_cycle_at,omitempty"`
	LastCycleID         string     `json:"last_cycle_id,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Cycles              int        `json:"cycles"`
	LinkUp              bool       `json:"link_up"`
	RSSI                int8       `json:"rssi"`
}

// Store holds the latest AQI and link status for display and LED
// consumers. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore() *Store {
	return &Store{snap: Snapshot{AQI: aqi.Default()}}
}

// RecordCycle folds a send cycle into the status. A failed cycle keeps the
// previous AQI so consumers keep showing the last known value.
func (s *Store) RecordCycle(out uplink.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := out.StartedAt
	s.snap.Cycles++
	s.snap.LastCycleAt = &at
	s.snap.LastCycleID = out.ID
	s.snap.LastSendSucceeded = out.Sent
	s.snap.LinkUp = out.LinkUp
	s.snap.RSSI = out.RSSI

	if !out.Sent {
		s.snap.ConsecutiveFailures++
		return
	}
	s.snap.ConsecutiveFailures = 0
	s.snap.LastSuccessAt = &at
	s.snap.AQI = out.Result
}

// SetLink updates the link fields between cycles.
func (s *Store) SetLink(up bool, rssi int8) {
	s.mu.Lock()
	s.snap.LinkUp = up
	s.snap.RSSI = rssi
	s.mu.Unlock()
}

// Get returns a copy of the current status.
func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.snap
	if s.snap.LastSuccessAt != nil {
		t := *s.snap.LastSuccessAt
		out.LastSuccessAt = &t
	}
	if s.snap.LastCycleAt != nil {
		t := *s.snap.LastCycleAt
		out.LastCycleAt = &t
	}
	return out
}
