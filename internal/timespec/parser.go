// Package timespec parses the --since/--until flag values of the watch
// command.
package timespec

import (
	"fmt"
	"time"
)

// Parse resolves one time specification to a Unix timestamp in milliseconds.
// Two forms are accepted: a Go duration ("1h", "30m", "1h30m"), read as that
// long ago, and an absolute RFC3339 timestamp ("2026-08-25T13:00:00Z").
func Parse(spec string) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		return time.Now().Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use duration like '1h30m' or RFC3339 like '2026-08-25T13:00:00Z')", spec)
}

// ParseRange resolves the --since and --until values together. An empty
// string leaves that bound open and yields zero. When both bounds are given,
// since must fall before until.
func ParseRange(since, until string) (int64, int64, error) {
	var sinceMS, untilMS int64
	var err error

	if since != "" {
		sinceMS, err = Parse(since)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		untilMS, err = Parse(until)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if sinceMS > 0 && untilMS > 0 && sinceMS >= untilMS {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}

	return sinceMS, untilMS, nil
}
