package packet

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"airmon-uplink/internal/types"
)

func fullSnapshot() types.SensorSnapshot {
	return types.SensorSnapshot{
		Temperature:          23.456,
		Humidity:             45.21,
		Pressure:             1013.27,
		GasResistance:        123456.7,
		IAQ:                  87.65,
		StaticIAQ:            80.1,
		CO2Equivalent:        612.9,
		BreathVOCEquivalent:  0.789,
		IAQAccuracy:          3,
		CO2Accuracy:          2,
		BreathVOCAccuracy:    1,
		Calibrated:           true,
		GasSensorAvailable:   true,
		ExternalTemperature:  -4.567,
		ExternalAvailable:    true,
		PM1_0:                5,
		PM2_5:                12,
		PM10:                 20,
		ParticulateAvailable: true,
		Uptime:               3723*time.Second + 900*time.Millisecond,
		RSSI:                 -67,
	}
}

func TestEncode_SizeAndChecksum(t *testing.T) {
	tests := []struct {
		name string
		snap types.SensorSnapshot
	}{
		{name: "all sensors", snap: fullSnapshot()},
		{name: "no sensors", snap: types.SensorSnapshot{}},
		{name: "gas only", snap: types.SensorSnapshot{GasSensorAvailable: true, Temperature: 21, IAQ: 25}},
		{name: "particulate only", snap: types.SensorSnapshot{ParticulateAvailable: true, PM2_5: 999}},
		{name: "external only", snap: types.SensorSnapshot{ExternalAvailable: true, ExternalTemperature: -12.5}},
		{name: "extreme values", snap: types.SensorSnapshot{
			GasSensorAvailable: true,
			Temperature:        1e9,
			Humidity:           -5,
			Pressure:           math.NaN(),
			GasResistance:      math.Inf(1),
			RSSI:               -128,
			Uptime:             200 * 24 * time.Hour,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Encode(tt.snap)
			b := p.Bytes()

			if len(b) != Size {
				t.Fatalf("len(Encode()) = %d, want %d", len(b), Size)
			}

			var want byte
			for _, x := range b[:Size-1] {
				want ^= x
			}
			if b[Size-1] != want {
				t.Errorf("checksum = %02X, want %02X", b[Size-1], want)
			}
			if !p.Verify() {
				t.Errorf("Verify() = false, want true")
			}
		})
	}
}

func TestEncode_FixedPointTruncates(t *testing.T) {
	p := Encode(types.SensorSnapshot{GasSensorAvailable: true, Temperature: 23.456})

	got := int16(binary.LittleEndian.Uint16(p[offTemperature:]))
	if got != 2345 {
		t.Fatalf("temperature field = %d, want 2345", got)
	}
}

func TestEncode_FieldLayout(t *testing.T) {
	p := Encode(fullSnapshot())
	le := binary.LittleEndian

	u16 := []struct {
		name string
		off  int
		want uint16
	}{
		{"humidity", offHumidity, 4521},
		{"pressure", offPressure, 10132},
		{"iaq", offIAQ, 876},
		{"static iaq", offStaticIAQ, 801},
		{"co2", offCO2, 612},
		{"breath voc", offBreathVOC, 78},
		{"pm1.0", offPM1_0, 5},
		{"pm2.5", offPM2_5, 12},
		{"pm10", offPM10, 20},
	}
	for _, f := range u16 {
		if got := le.Uint16(p[f.off:]); got != f.want {
			t.Errorf("%s = %d, want %d", f.name, got, f.want)
		}
	}

	if got := le.Uint32(p[offGasResistance:]); got != 123456 {
		t.Errorf("gas resistance = %d, want 123456", got)
	}
	if got := int16(le.Uint16(p[offExternalTemperature:])); got != -456 {
		t.Errorf("external temperature = %d, want -456", got)
	}
	if got := le.Uint32(p[offTimestamp:]); got != 3723 {
		t.Errorf("timestamp = %d, want 3723", got)
	}
	if got := le.Uint32(p[offUptime:]); got != 3723 {
		t.Errorf("uptime = %d, want 3723", got)
	}
	if got := int8(p[offRSSI]); got != -67 {
		t.Errorf("rssi = %d, want -67", got)
	}
	if p[offIAQAccuracy] != 3 || p[offCO2Accuracy] != 2 || p[offVOCAccuracy] != 1 {
		t.Errorf("accuracy bytes = %d %d %d, want 3 2 1", p[offIAQAccuracy], p[offCO2Accuracy], p[offVOCAccuracy])
	}
	if p[offGasFlags] != FlagPresent|FlagCalibrated {
		t.Errorf("gas flags = %02X, want %02X", p[offGasFlags], FlagPresent|FlagCalibrated)
	}
}

func TestEncode_PresenceBits(t *testing.T) {
	full := fullSnapshot()

	tests := []struct {
		name     string
		mutate   func(s *types.SensorSnapshot)
		flagOff  int
		dataFrom int
		dataTo   int
	}{
		{
			name:     "gas sensor absent",
			mutate:   func(s *types.SensorSnapshot) { s.GasSensorAvailable = false },
			flagOff:  offGasFlags,
			dataFrom: offTemperature,
			dataTo:   offGasFlags,
		},
		{
			name:     "external thermometer absent",
			mutate:   func(s *types.SensorSnapshot) { s.ExternalAvailable = false },
			flagOff:  offExternalFlags,
			dataFrom: offExternalTemperature,
			dataTo:   offExternalFlags,
		},
		{
			name:     "particulate sensor absent",
			mutate:   func(s *types.SensorSnapshot) { s.ParticulateAvailable = false },
			flagOff:  offParticulateFlags,
			dataFrom: offPM1_0,
			dataTo:   offParticulateFlags,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			present := Encode(full)
			if present[tt.flagOff]&FlagPresent == 0 {
				t.Fatalf("presence bit clear with sensor available")
			}

			s := full
			tt.mutate(&s)
			p := Encode(s)

			if p[tt.flagOff] != 0 {
				t.Errorf("flags byte = %02X, want 00", p[tt.flagOff])
			}
			for i := tt.dataFrom; i < tt.dataTo; i++ {
				if p[i] != 0 {
					t.Errorf("byte %d = %02X, want 00 for absent sensor", i, p[i])
				}
			}
		})
	}
}

func TestEncode_CalibrationBitNeedsGasSensor(t *testing.T) {
	p := Encode(types.SensorSnapshot{Calibrated: true})
	if p[offGasFlags] != 0 {
		t.Fatalf("gas flags = %02X, want 00 when sensor absent", p[offGasFlags])
	}
}

func TestEncode_Idempotent(t *testing.T) {
	s := fullSnapshot()
	a := Encode(s)
	b := Encode(s)
	if a != b {
		t.Fatalf("Encode() not deterministic:\n%X\n%X", a, b)
	}
}

func TestEncode_Saturates(t *testing.T) {
	p := Encode(types.SensorSnapshot{
		GasSensorAvailable: true,
		Temperature:        -500,
		Pressure:           1e7,
		Humidity:           math.NaN(),
	})
	le := binary.LittleEndian

	if got := int16(le.Uint16(p[offTemperature:])); got != math.MinInt16 {
		t.Errorf("temperature = %d, want %d", got, math.MinInt16)
	}
	if got := le.Uint16(p[offPressure:]); got != math.MaxUint16 {
		t.Errorf("pressure = %d, want %d", got, math.MaxUint16)
	}
	if got := le.Uint16(p[offHumidity:]); got != 0 {
		t.Errorf("humidity = %d, want 0", got)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	p := Encode(fullSnapshot())

	r, err := Decode(p.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !r.GasSensorPresent || !r.Calibrated || !r.ExternalPresent || !r.ParticulatePresent {
		t.Errorf("presence = %+v, want all set", r)
	}
	if r.Temperature != 23.45 {
		t.Errorf("Temperature = %v, want 23.45", r.Temperature)
	}
	if r.ExternalTemperature != -4.56 {
		t.Errorf("ExternalTemperature = %v, want -4.56", r.ExternalTemperature)
	}
	if r.PM2_5 != 12 || r.RSSI != -67 || r.UptimeSeconds != 3723 {
		t.Errorf("PM2_5=%d RSSI=%d Uptime=%d, want 12 -67 3723", r.PM2_5, r.RSSI, r.UptimeSeconds)
	}
}

func TestDecode_Rejects(t *testing.T) {
	good := Encode(fullSnapshot())
	corrupt := good
	corrupt[offPM2_5] ^= 0xFF

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "empty", data: nil, want: ErrInvalidSize},
		{name: "short", data: good[:Size-1], want: ErrInvalidSize},
		{name: "long", data: append(good.Bytes(), 0), want: ErrInvalidSize},
		{name: "corrupted", data: corrupt.Bytes(), want: ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}
