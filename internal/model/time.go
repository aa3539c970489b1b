package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClockTime parses a 24h "HH:MM" string into minutes since midnight.
func ParseClockTime(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %q", s)
	}

	return hour*60 + minute, nil
}

// FormatClockTime formats minutes since midnight as zero-padded "HH:MM".
func FormatClockTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
