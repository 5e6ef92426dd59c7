// Package timeutil converts between seconds and the clock strings ffmpeg
// prints and accepts.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSeconds converts seconds to HH:MM:SS.MS format.
//
// Example:
//
//	FormatSeconds(0)      // "00:00:00.00"
//	FormatSeconds(90)     // "00:01:30.00"
//	FormatSeconds(3661)   // "01:01:01.00"
//	FormatSeconds(30.5)   // "00:00:30.50"
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
}

// ParseClock parses an ffmpeg clock value ("HH:MM:SS.micro", "MM:SS" or a
// bare number of seconds) into seconds.
func ParseClock(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("no time value")
	}

	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time value %q", value)
	}

	var total float64
	for _, part := range parts {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time value %q: %w", value, err)
		}
		total = total*60 + n
	}

	if negative {
		total = -total
	}
	return total, nil
}
