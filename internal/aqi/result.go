package aqi

// Defaults hold whenever the aggregator reply is absent, malformed or out of range.
const (
	DefaultAQI   = 50.0
	DefaultLevel = "Good"
	DefaultColor = ColorGood

	MinAQI = 0.0
	MaxAQI = 1000.0

	MaxLevelLen = 32
)

// Result is the air-quality index returned by the aggregator, as handed to
// the display and LED consumers.
type Result struct {
	Success bool    `json:"success"`
	AQI     float64 `json:"aqi"`
	Level   string  `json:"level"`
	Color   uint32  `json:"color"`
}

// Default returns the neutral fallback result.
func Default() Result {
	return Result{
		AQI:   DefaultAQI,
		Level: DefaultLevel,
		Color: DefaultColor,
	}
}
