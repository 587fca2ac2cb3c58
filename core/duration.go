package core

import (
	"fmt"
	"strconv"
	"time"
)

// ParseExtendedDuration extends time.ParseDuration to support days (d),
// weeks (w), and years (y).
func ParseExtendedDuration(s string) (time.Duration, error) {
	d, originalErr := time.ParseDuration(s)
	if originalErr == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, originalErr
	}
	unit := s[len(s)-1]
	if unit != 'd' && unit != 'w' && unit != 'y' {
		return 0, originalErr
	}
	valueStr := s[:len(s)-1]
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value in %q: %w", s, err)
	}
	var customDuration time.Duration
	switch unit {
	case 'd':
		customDuration = time.Hour * 24 * time.Duration(value)
	case 'w':
		customDuration = time.Hour * 24 * 7 * time.Duration(value)
	case 'y':
		customDuration = time.Hour * 24 * 365 * time.Duration(value)
	}
	return customDuration, nil
}
