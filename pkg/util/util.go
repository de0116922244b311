package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is how timestamps are written to and read from the sheet (YYYY-MM-DD HH:MM:SS).
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders an optional timestamp as a sheet cell. Absent times are empty cells.
func FormatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a sheet cell in local time. An empty cell is absent, not an error.
func ParseTimestamp(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}
	return &t, nil
}

// FormatHours converts accumulated seconds into the two-decimal hours value stored in the sheet.
func FormatHours(seconds float64) string {
	return fmt.Sprintf("%.2f", seconds/3600)
}

// ParseHours converts an hours cell back into seconds. Empty cells are zero.
func ParseHours(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	hours, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hours value: %w", err)
	}
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return 0, fmt.Errorf("hours out of range: %s", s)
	}
	return hours * 3600, nil
}

// FormatDuration renders seconds as H:MM:SS for terminal output.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	s := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
