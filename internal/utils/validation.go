package utils

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Operator ids are alphanumeric with underscores, hyphens and dots.
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ParseEpochMillis parses a non-negative epoch millisecond timestamp into loc. A nil loc keeps the
// local zone.
func ParseEpochMillis(raw string, loc *time.Location) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms < 0 {
		return time.Time{}, errors.New("invalid time, use epoch milliseconds")
	}
	t := time.UnixMilli(ms)
	if loc != nil {
		t = t.In(loc)
	}
	return t, nil
}
