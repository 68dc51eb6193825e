package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedTimestamp is wrapped by every timestamp parse failure.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// ParseTimestamp reads a "YYYY-MM-DD HH:MM:SS" value. A bare date is
// accepted as midnight.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD HH:MM:SS)", ErrMalformedTimestamp, s)
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
