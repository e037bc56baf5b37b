package packet

import (
	"encoding/binary"
	"math"
	"time"

	"airmon-uplink/internal/types"
)

// Packet is the wire form of one sensor snapshot.
type Packet [Size]byte

// Bytes returns the packet as a slice, ready to be written to the wire.
func (p *Packet) Bytes() []byte { return p[:] }

// Checksum returns the XOR of every byte before the checksum slot.
func (p *Packet) Checksum() byte {
	var sum byte
	for _, b := range p[:offChecksum] {
		sum ^= b
	}
	return sum
}

// Verify reports whether the stored checksum matches the packet contents.
func (p *Packet) Verify() bool {
	return p[offChecksum] == p.Checksum()
}

// Encode converts a snapshot into a packet.
// Blocks of unavailable sensors stay zero with their presence bit clear.
// No IO. Never fails.
func Encode(s types.SensorSnapshot) Packet {
	var p Packet
	le := binary.LittleEndian

	seconds := uptimeSeconds(s.Uptime)
	le.PutUint32(p[offTimestamp:], seconds)

	if s.GasSensorAvailable {
		le.PutUint16(p[offTemperature:], uint16(toInt16(s.Temperature*scaleTemperature)))
		le.PutUint16(p[offHumidity:], toUint16(s.Humidity*scaleHumidity))
		le.PutUint16(p[offPressure:], toUint16(s.Pressure*scalePressure))
		le.PutUint32(p[offGasResistance:], toUint32(s.GasResistance))
		le.PutUint16(p[offIAQ:], toUint16(s.IAQ*scaleIAQ))
		le.PutUint16(p[offStaticIAQ:], toUint16(s.StaticIAQ*scaleIAQ))
		le.PutUint16(p[offCO2:], toUint16(s.CO2Equivalent))
		le.PutUint16(p[offBreathVOC:], toUint16(s.BreathVOCEquivalent*scaleBreathVOC))
		p[offIAQAccuracy] = s.IAQAccuracy
		p[offCO2Accuracy] = s.CO2Accuracy
		p[offVOCAccuracy] = s.BreathVOCAccuracy

		flags := FlagPresent
		if s.Calibrated {
			flags |= FlagCalibrated
		}
		p[offGasFlags] = flags
	}

	if s.ExternalAvailable {
		le.PutUint16(p[offExternalTemperature:], uint16(toInt16(s.ExternalTemperature*scaleTemperature)))
		p[offExternalFlags] = FlagPresent
	}

	if s.ParticulateAvailable {
		le.PutUint16(p[offPM1_0:], s.PM1_0)
		le.PutUint16(p[offPM2_5:], s.PM2_5)
		le.PutUint16(p[offPM10:], s.PM10)
		p[offParticulateFlags] = FlagPresent
	}

	le.PutUint32(p[offUptime:], seconds)
	p[offRSSI] = byte(s.RSSI)

	p[offChecksum] = p.Checksum()
	return p
}

func uptimeSeconds(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(uint64(d / time.Second))
}

// Float to fixed-point conversions truncate toward zero and saturate at the
// field bounds. NaN encodes as zero.

func toInt16(f float64) int16 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt16:
		return math.MaxInt16
	case f <= math.MinInt16:
		return math.MinInt16
	}
	return int16(f)
}

func toUint16(f float64) uint16 {
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(f)
}

func toUint32(f float64) uint32 {
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(f)
}
