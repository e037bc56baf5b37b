package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrInvalidSize      = errors.New("invalid packet size")
	ErrChecksumMismatch = errors.New("packet checksum mismatch")
)

// Reading is the receiver-side view of a packet with scaling undone.
// Presence flags tell a zero reading apart from a missing sensor.
type Reading struct {
	Timestamp uint32

	GasSensorPresent    bool
	Calibrated          bool
	Temperature         float64
	Humidity            float64
	Pressure            float64
	GasResistance       uint32
	IAQ                 float64
	StaticIAQ           float64
	CO2Equivalent       float64
	BreathVOCEquivalent float64
	IAQAccuracy         uint8
	CO2Accuracy         uint8
	BreathVOCAccuracy   uint8

	ExternalPresent     bool
	ExternalTemperature float64

	ParticulatePresent bool
	PM1_0              uint16
	PM2_5              uint16
	PM10               uint16

	UptimeSeconds uint32
	RSSI          int8
}

// Decode parses a packet as the aggregator would.
// Returns an error if the length or checksum is wrong.
func Decode(data []byte) (*Reading, error) {
	if len(data) != Size {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, len(data))
	}
	var p Packet
	copy(p[:], data)
	if !p.Verify() {
		return nil, fmt.Errorf("%w: got %02X want %02X", ErrChecksumMismatch, p[offChecksum], p.Checksum())
	}

	le := binary.LittleEndian
	gasFlags := p[offGasFlags]

	return &Reading{
		Timestamp: le.Uint32(p[offTimestamp:]),

		GasSensorPresent:    gasFlags&FlagPresent != 0,
		Calibrated:          gasFlags&FlagCalibrated != 0,
		Temperature:         float64(int16(le.Uint16(p[offTemperature:]))) / scaleTemperature,
		Humidity:            float64(le.Uint16(p[offHumidity:])) / scaleHumidity,
		Pressure:            float64(le.Uint16(p[offPressure:])) / scalePressure,
		GasResistance:       le.Uint32(p[offGasResistance:]),
		IAQ:                 float64(le.Uint16(p[offIAQ:])) / scaleIAQ,
		StaticIAQ:           float64(le.Uint16(p[offStaticIAQ:])) / scaleIAQ,
		CO2Equivalent:       float64(le.Uint16(p[offCO2:])),
		BreathVOCEquivalent: float64(le.Uint16(p[offBreathVOC:])) / scaleBreathVOC,
		IAQAccuracy:         p[offIAQAccuracy],
		CO2Accuracy:         p[offCO2Accuracy],
		BreathVOCAccuracy:   p[offVOCAccuracy],

		ExternalPresent:     p[offExternalFlags]&FlagPresent != 0,
		ExternalTemperature: float64(int16(le.Uint16(p[offExternalTemperature:]))) / scaleTemperature,

		ParticulatePresent: p[offParticulateFlags]&FlagPresent != 0,
		PM1_0:              le.Uint16(p[offPM1_0:]),
		PM2_5:              le.Uint16(p[offPM2_5:]),
		PM10:               le.Uint16(p[offPM10:]),

		UptimeSeconds: le.Uint32(p[offUptime:]),
		RSSI:          int8(p[offRSSI]),
	}, nil
}
