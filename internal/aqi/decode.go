package aqi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
)

const (
	// MaxResponseSize caps the raw reply; larger bodies are not parsed.
	MaxResponseSize = 2048
	// MaxDocumentSize bounds the compacted JSON reply the parser will look at.
	MaxDocumentSize = 256
)

// Decode extracts the nested "aqi" object from an aggregator reply.
// It never fails: every problem leaves the defaults in place with Success false.
// Each field is guarded on its own, so a bad "combined" value still lets
// level and color through.
func Decode(body []byte) Result {
	res := Default()

	if len(body) == 0 {
		slog.Debug("aqi: empty response")
		return res
	}
	if len(body) > MaxResponseSize {
		slog.Warn("aqi: response too large",
			"size", len(body),
			"max", MaxResponseSize,
		)
		return res
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		slog.Warn("aqi: malformed response", "error", err, "size", len(body))
		return res
	}
	if compact.Len() > MaxDocumentSize {
		slog.Warn("aqi: response exceeds document budget",
			"size", compact.Len(),
			"max", MaxDocumentSize,
		)
		return res
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(compact.Bytes(), &doc); err != nil {
		slog.Warn("aqi: response is not an object", "error", err)
		return res
	}

	var fields map[string]json.RawMessage
	raw, ok := doc["aqi"]
	if !ok || json.Unmarshal(raw, &fields) != nil || fields == nil {
		slog.Warn("aqi: response has no aqi object")
		return res
	}

	combinedOK := false
	if raw, ok := fields["combined"]; ok {
		var v *float64
		switch err := json.Unmarshal(raw, &v); {
		case err != nil || v == nil:
			slog.Warn("aqi: combined is not a number", "value", string(raw))
		case math.IsNaN(*v) || *v < MinAQI || *v > MaxAQI:
			slog.Warn("aqi: combined out of range, using default",
				"value", *v,
				"default", DefaultAQI,
			)
		default:
			res.AQI = *v
			combinedOK = true
		}
	}

	if raw, ok := fields["level"]; ok {
		var level string
		if err := json.Unmarshal(raw, &level); err == nil {
			res.Level = truncate(level, MaxLevelLen)
		}
	}

	if raw, ok := fields["color"]; ok {
		var color string
		if err := json.Unmarshal(raw, &color); err == nil {
			res.Color = ParseColor(color)
		}
	}

	res.Success = combinedOK
	return res
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
