package repository

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF3m  Timeframe = "3m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF3m, TF5m, TF15m, TF30m, TF1h, TF4h:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF15m }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// CandlesPerDay returns how many bars of tf fit in one day.
func CandlesPerDay(tf Timeframe) int {
	switch tf {
	case TF1m:
		return 1440
	case TF3m:
		return 480
	case TF5m:
		return 288
	case TF15m:
		return 96
	case TF30m:
		return 48
	case TF1h:
		return 24
	case TF4h:
		return 6
	default:
		return 96
	}
}

// HigherTimeframe returns the next timeframe up, used by the trend filter.
func HigherTimeframe(tf Timeframe) Timeframe {
	switch tf {
	case TF1m:
		return TF5m
	case TF3m, TF5m:
		return TF15m
	case TF15m:
		return TF1h
	case TF30m, TF1h:
		return TF4h
	default:
		return TF4h
	}
}
