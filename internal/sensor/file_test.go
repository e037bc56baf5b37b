package sensor

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"airmon-uplink/internal/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource_Snapshot(t *testing.T) {
	path := writeSnapshot(t, `{
		"temperature_c": 22.4,
		"humidity_pct": 41.5,
		"iaq": 63.2,
		"co2_equivalent_ppm": 720,
		"calibrated": true,
		"gas_sensor_available": true,
		"pm2_5": 9,
		"pm10": 14,
		"particulate_available": true
	}`)

	got := NewFileSource(path, time.Minute, quietLogger()).Snapshot()

	want := types.SensorSnapshot{
		Temperature:          22.4,
		Humidity:             41.5,
		IAQ:                  63.2,
		CO2Equivalent:        720,
		Calibrated:           true,
		GasSensorAvailable:   true,
		PM2_5:                9,
		PM10:                 14,
		ParticulateAvailable: true,
	}
	if got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestFileSource_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "missing", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{name: "malformed", path: func(t *testing.T) string { return writeSnapshot(t, `{"temperature_c":`) }},
		{name: "wrong type", path: func(t *testing.T) string { return writeSnapshot(t, `{"pm2_5":"high","gas_sensor_available":true}`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFileSource(tt.path(t), time.Minute, quietLogger()).Snapshot()
			if got != (types.SensorSnapshot{}) {
				t.Errorf("Snapshot() = %+v, want zero", got)
			}
		})
	}
}

func TestFileSource_Stale(t *testing.T) {
	path := writeSnapshot(t, `{"gas_sensor_available":true,"iaq":40}`)
	src := NewFileSource(path, 30*time.Second, quietLogger())

	src.now = func() time.Time { return time.Now().Add(time.Minute) }
	if got := src.Snapshot(); got.GasSensorAvailable {
		t.Error("stale snapshot reported as available")
	}

	src.now = time.Now
	if got := src.Snapshot(); !got.GasSensorAvailable {
		t.Error("fresh snapshot reported as unavailable")
	}
}
