package aqi

import (
	"slices"
	"strings"
	"unicode"
)

const (
	ColorGood          uint32 = 0x00FF00
	ColorModerate      uint32 = 0xFFFF00
	ColorSensitive     uint32 = 0xFF8000
	ColorUnhealthy     uint32 = 0xFF0000
	ColorVeryUnhealthy uint32 = 0x800080
	ColorHazardous     uint32 = 0x800000
)

// Category labels the aggregator may send instead of a hex code. Labels match
// case-insensitively anywhere in the string and are checked in order, so the
// more specific ones come before the ones they contain. Names are plain colour
// words and only match as whole words.
var categoryColors = []struct {
	labels []string
	names  []string
	color  uint32
}{
	{[]string{"hazardous", "gefährlich"}, []string{"maroon"}, ColorHazardous},
	{[]string{"very unhealthy", "sehr ungesund"}, []string{"purple"}, ColorVeryUnhealthy},
	{[]string{"sensitive", "empfindlich"}, []string{"orange"}, ColorSensitive},
	{[]string{"unhealthy", "ungesund"}, []string{"red"}, ColorUnhealthy},
	{[]string{"moderate", "mäßig"}, []string{"yellow"}, ColorModerate},
	{[]string{"good"}, []string{"gut", "green"}, ColorGood},
}

// ParseColor converts a "#RRGGBB" code or a category word into an RGB value.
// Anything unrecognised is green.
func ParseColor(s string) uint32 {
	if s == "" {
		return DefaultColor
	}
	if c, ok := parseHexColor(s); ok {
		return c
	}

	lower := strings.ToLower(s)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, cat := range categoryColors {
		for _, l := range cat.labels {
			if strings.Contains(lower, l) {
				return cat.color
			}
		}
		for _, n := range cat.names {
			if slices.Contains(words, n) {
				return cat.color
			}
		}
	}
	return DefaultColor
}

func parseHexColor(s string) (uint32, bool) {
	if len(s) != 7 || s[0] != '#' {
		return 0, false
	}
	var v uint32
	for i := 1; i < len(s); i++ {
		d, ok := hexDigit(s[i])
		if !ok {
			return 0, false
		}
		v = v<<4 | uint32(d)
	}
	return v, true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
