// Package timespec parses the date specifications accepted by --date,
// --from and --to flags.
package timespec

import (
	"strings"
	"time"

	"github.com/dyluth/frontdesk/pkg/desk"
	"gitlab.com/tozd/go/errors"
)

// Parse parses a time specification relative to now.
// Supports these formats:
//   - "today", "yesterday", "tomorrow"
//   - calendar dates: "2024-03-01"
//   - RFC3339 timestamps: "2024-03-01T13:00:00Z"
//   - Go duration format: "1h", "30m", "48h" (that long before now)
//
// Calendar dates are interpreted in now's location.
func Parse(spec string, now time.Time) (time.Time, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return time.Time{}, errors.New("empty time specification")
	}

	switch strings.ToLower(spec) {
	case "today", "now":
		return now, nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	}

	if t, err := time.ParseInLocation(desk.DateLayout, spec, now.Location()); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t, nil
	}

	// Duration is relative to now (subtract from current time)
	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(-d), nil
	}

	return time.Time{}, errors.Errorf("invalid time specification: %s (use today, yesterday, 2024-03-01, RFC3339, or a duration like '48h')", spec)
}

// ParseDate parses spec like Parse and returns the calendar date as YYYY-MM-DD.
// RFC3339 timestamps keep their own offset, so the date matches the one written in them.
func ParseDate(spec string, now time.Time) (string, error) {
	t, err := Parse(spec, now)
	if err != nil {
		return "", err
	}
	return t.Format(desk.DateLayout), nil
}

// ParseRange parses --from and --until into an inclusive date range.
// Empty values mean "no bound" for that end of the range.
//
// Validates that from is not after until when both are specified.
func ParseRange(from, until string, now time.Time) (string, string, error) {
	var fromDate, untilDate string
	var err error

	if from != "" {
		fromDate, err = ParseDate(from, now)
		if err != nil {
			return "", "", errors.Errorf("invalid --from: %w", err)
		}
	}

	if until != "" {
		untilDate, err = ParseDate(until, now)
		if err != nil {
			return "", "", errors.Errorf("invalid --until: %w", err)
		}
	}

	// YYYY-MM-DD compares chronologically as a string.
	if fromDate != "" && untilDate != "" && fromDate > untilDate {
		return "", "", errors.New("--from must not be after --until")
	}

	return fromDate, untilDate, nil
}
