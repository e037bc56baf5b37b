package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	SendURL      string
	AQIURL       string
	SendInterval time.Duration
	MaxRetries   int
	RetryDelay   time.Duration

	WiFiInterface     string
	LinkSysDir        string
	LinkProcWireless  string
	ReconnectInterval time.Duration
	ReconnectMax      time.Duration
	ReconnectCmd      string

	SnapshotPath   string
	SnapshotMaxAge time.Duration
	LoopInterval   time.Duration

	HTTPAddr string

	MQTTEnabled     bool
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTTopicPrefix string
	DeviceID        string

	JournalEnabled bool
	SQLitePath     string
}

// source resolves a setting from the environment first, then from the
// optional YAML file. YAML keys are the lowercased variable names.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(s.file[strings.ToLower(key)])
}

func (s source) str(key, def string) string {
	if v := s.get(key); v != "" {
		return v
	}
	return def
}

func (s source) duration(key string, def time.Duration) (time.Duration, error) {
	v := s.get(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

func (s source) integer(key string, def int) (int, error) {
	v := s.get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func (s source) boolean(key string, def bool) (bool, error) {
	v := s.get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func LoadFromEnv() (Config, error) {
	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		file, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = file
	}

	appEnv := src.str("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(src.str("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:           appEnv,
		LogLevel:         level,
		SendURL:          src.str("UPLINK_SEND_URL", "http://localhost:1880/sensor-data"),
		AQIURL:           src.str("UPLINK_AQI_URL", "http://localhost:1880/calculate-aqi"),
		WiFiInterface:    src.str("WIFI_INTERFACE", "wlan0"),
		LinkSysDir:       src.str("LINK_SYS_DIR", "/sys/class/net"),
		LinkProcWireless: src.str("LINK_PROC_WIRELESS", "/proc/net/wireless"),
		SnapshotPath:     src.str("SNAPSHOT_PATH", "/run/airmon/snapshot.json"),
		HTTPAddr:         src.str("HTTP_ADDR", ":8080"),
		MQTTBroker:       src.str("MQTT_BROKER", "localhost"),
		MQTTClientID:     src.str("MQTT_CLIENT_ID", "airmon-uplink"),
		MQTTTopicPrefix:  strings.Trim(src.str("MQTT_TOPIC_PREFIX", "airmon"), "/"),
		DeviceID:         src.str("DEVICE_ID", "airmon"),
		SQLitePath:       src.str("SQLITE_PATH", "data/uplink.db"),
	}

	cfg.ReconnectCmd = src.str("WIFI_RECONNECT_CMD", "wpa_cli -i "+cfg.WiFiInterface+" reconnect")

	for _, u := range []struct{ key, val string }{
		{"UPLINK_SEND_URL", cfg.SendURL},
		{"UPLINK_AQI_URL", cfg.AQIURL},
	} {
		if err := validateURL(u.key, u.val); err != nil {
			return Config{}, err
		}
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"UPLINK_SEND_INTERVAL", 10 * time.Second, &cfg.SendInterval},
		{"UPLINK_RETRY_DELAY", 2 * time.Second, &cfg.RetryDelay},
		{"WIFI_RECONNECT_INTERVAL", 60 * time.Second, &cfg.ReconnectInterval},
		{"WIFI_RECONNECT_MAX", 10 * time.Minute, &cfg.ReconnectMax},
		{"SNAPSHOT_MAX_AGE", 30 * time.Second, &cfg.SnapshotMaxAge},
		{"LOOP_INTERVAL", 3 * time.Second, &cfg.LoopInterval},
	}
	for _, d := range durations {
		if *d.dst, err = src.duration(d.key, d.def); err != nil {
			return Config{}, err
		}
	}
	if cfg.ReconnectMax < cfg.ReconnectInterval {
		return Config{}, fmt.Errorf("invalid WIFI_RECONNECT_MAX %s: below WIFI_RECONNECT_INTERVAL %s", cfg.ReconnectMax, cfg.ReconnectInterval)
	}

	if cfg.MaxRetries, err = src.integer("UPLINK_MAX_RETRIES", 3); err != nil {
		return Config{}, err
	}
	if cfg.MaxRetries < 1 {
		return Config{}, fmt.Errorf("invalid UPLINK_MAX_RETRIES %d: must be at least 1", cfg.MaxRetries)
	}

	if cfg.MQTTPort, err = src.integer("MQTT_PORT", 1883); err != nil {
		return Config{}, err
	}
	if cfg.MQTTPort < 1 || cfg.MQTTPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d", cfg.MQTTPort)
	}

	if cfg.MQTTEnabled, err = src.boolean("MQTT_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.JournalEnabled, err = src.boolean("JOURNAL_ENABLED", true); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// readFile loads a flat YAML mapping of setting names to scalar values.
func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CONFIG_FILE: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}

	out := make(map[string]string, len(doc))
	for k, v := range doc {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("parse CONFIG_FILE %s: key %q must be a scalar", path, k)
		case nil:
			continue
		}
		out[strings.ToLower(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: want http(s)://host/path", key, raw)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
