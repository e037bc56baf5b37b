package aqi

import (
	"encoding/json"
	"math"

	"airmon-uplink/internal/types"
)

// Request bounds sent alongside the binary packet.
const (
	MaxPM  = 1000
	MaxIAQ = 500.0
	MinCO2 = 400.0
	MaxCO2 = 10000.0
)

// Request is the JSON body of the AQI calculation call.
type Request struct {
	PM2_5      int     `json:"pm2_5"`
	PM10       int     `json:"pm10"`
	IAQ        float64 `json:"iaq"`
	CO2        float64 `json:"co2"`
	Calibrated bool    `json:"calibrated"`
}

// NewRequest builds a request from a snapshot, clamping every value into the
// range the aggregator accepts.
func NewRequest(s types.SensorSnapshot) Request {
	return Request{
		PM2_5:      clampInt(int(s.PM2_5), 0, MaxPM),
		PM10:       clampInt(int(s.PM10), 0, MaxPM),
		IAQ:        clampFloat(s.IAQ, 0, MaxIAQ),
		CO2:        clampFloat(s.CO2Equivalent, MinCO2, MaxCO2),
		Calibrated: s.Calibrated,
	}
}

// Marshal returns the wire form of the request.
func (r Request) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return min(max(v, lo), hi)
}
