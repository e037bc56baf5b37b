package link

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

const wirelessTable = `Inter-| sta-|   Quality        |   Discarded packets               | Missed | WE
 face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22
  eth9: 0000    0.    0.     0        0      0      0      0      0        0
 wlan0: 0000   70.  -41.  -256        0      0      0      0      0        0
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWireless(t *testing.T, iface, table, operstate string) *Wireless {
	t.Helper()

	dir := t.TempDir()
	proc := filepath.Join(dir, "wireless")
	if table != "" {
		if err := os.WriteFile(proc, []byte(table), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sys := filepath.Join(dir, "net")
	if operstate != "" {
		if err := os.MkdirAll(filepath.Join(sys, iface), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(sys, iface, "operstate"), []byte(operstate+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	w := NewWireless(iface, quietLogger())
	w.ProcWireless = proc
	w.SysClassNet = sys
	return w
}

func TestParseWirelessLevel(t *testing.T) {
	tests := []struct {
		name    string
		iface   string
		table   string
		want    float64
		wantErr bool
	}{
		{name: "present", iface: "wlan0", table: wirelessTable, want: -41},
		{name: "other interface", iface: "eth9", table: wirelessTable, want: 0},
		{name: "missing", iface: "wlan1", table: wirelessTable, wantErr: true},
		{name: "short line", iface: "wlan0", table: " wlan0: 0000 70.\n", wantErr: true},
		{name: "garbage level", iface: "wlan0", table: " wlan0: 0000 70. abc 0\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWirelessLevel([]byte(tt.table), tt.iface)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWireless_SignalStrength(t *testing.T) {
	w := newTestWireless(t, "wlan0", wirelessTable, "up")
	if got := w.SignalStrength(); got != -41 {
		t.Errorf("SignalStrength() = %d, want -41", got)
	}

	missing := newTestWireless(t, "wlan0", "", "")
	if got := missing.SignalStrength(); got != 0 {
		t.Errorf("SignalStrength() without table = %d, want 0", got)
	}

	clamped := newTestWireless(t, "wlan0", " wlan0: 0000 70. -300. 0\n", "up")
	if got := clamped.SignalStrength(); got != -128 {
		t.Errorf("SignalStrength() = %d, want -128", got)
	}
}

func TestWireless_IsLinkUp(t *testing.T) {
	tests := []struct {
		operstate string
		want      bool
	}{
		{operstate: "up", want: true},
		{operstate: "down", want: false},
		{operstate: "dormant", want: false},
		{operstate: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.operstate, func(t *testing.T) {
			w := newTestWireless(t, "wlan0", wirelessTable, tt.operstate)
			if got := w.IsLinkUp(); got != tt.want {
				t.Errorf("IsLinkUp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewCommandReconnector_Validation(t *testing.T) {
	if _, err := NewCommandReconnector("", 0, nil); err == nil {
		t.Error("expected error for empty command")
	}
	if _, err := NewCommandReconnector(`wpa_cli "unterminated`, 0, nil); err == nil {
		t.Error("expected error for unbalanced quotes")
	}

	r, err := NewCommandReconnector(`wpa_cli -i "wlan 0" reconnect`, 0, nil)
	if err != nil {
		t.Fatalf("NewCommandReconnector() error = %v", err)
	}
	want := []string{"wpa_cli", "-i", "wlan 0", "reconnect"}
	if len(r.argv) != len(want) {
		t.Fatalf("argv = %q, want %q", r.argv, want)
	}
	for i := range want {
		if r.argv[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, r.argv[i], want[i])
		}
	}
	if r.timeout != DefaultReconnectTimeout {
		t.Errorf("timeout = %v, want %v", r.timeout, DefaultReconnectTimeout)
	}
}

func TestCommandReconnector_Reconnect(t *testing.T) {
	for _, bin := range []string{"true", "false", "sleep"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available: %v", bin, err)
		}
	}

	tests := []struct {
		name    string
		command string
		timeout time.Duration
		want    bool
	}{
		{name: "exit zero", command: "true", want: true},
		{name: "exit nonzero", command: "false", want: false},
		{name: "not found", command: "airmon-no-such-binary", want: false},
		{name: "timeout", command: "sleep 5", timeout: 50 * time.Millisecond, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewCommandReconnector(tt.command, tt.timeout, quietLogger())
			if err != nil {
				t.Fatalf("NewCommandReconnector() error = %v", err)
			}
			if got := r.Reconnect(context.Background()); got != tt.want {
				t.Errorf("Reconnect() = %v, want %v", got, tt.want)
			}
		})
	}
}
