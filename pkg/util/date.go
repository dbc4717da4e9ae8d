package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// AlignMilli rounds a unix-millisecond timestamp down to the step boundary.
func AlignMilli(ms int64, step time.Duration) int64 {
	stepMs := step.Milliseconds()
	if stepMs <= 0 {
		return ms
	}
	return ms - ms%stepMs
}

// IsAlignedMilli reports whether a unix-millisecond timestamp sits exactly
// on a step boundary. Exchange kline open times always do; a misaligned
// open time means a malformed or truncated frame.
func IsAlignedMilli(ms int64, step time.Duration) bool {
	stepMs := step.Milliseconds()
	if stepMs <= 0 {
		return true
	}
	return ms%stepMs == 0
}
