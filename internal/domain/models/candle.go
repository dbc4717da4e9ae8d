package models

import (
	"fmt"
	"math"
)

// Candle represents one OHLCV bar. Time is a unix millisecond timestamp
// as delivered by the exchange.
type Candle struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool { return c.Close > c.Open }

// Body returns the absolute open-to-close size.
func (c Candle) Body() float64 { return math.Abs(c.Close - c.Open) }

// Range returns the high-to-low span.
func (c Candle) Range() float64 { return c.High - c.Low }

// ValidateSeries checks a candle sequence for structural integrity:
// finite numeric fields, low <= min(open,close) <= max(open,close) <= high,
// and strictly ascending timestamps. Corrupt input fails fast here so no
// downstream detector fabricates signals from it.
func ValidateSeries(candles []Candle) error {
	var prev int64
	for i, c := range candles {
		for _, v := range [5]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("candle %d: non-finite field", i)
			}
		}
		if c.Low > math.Min(c.Open, c.Close) || c.High < math.Max(c.Open, c.Close) {
			return fmt.Errorf("candle %d: OHLC bounds violated", i)
		}
		if i > 0 && c.Time <= prev {
			return fmt.Errorf("candle %d: non-monotonic timestamp %d", i, c.Time)
		}
		prev = c.Time
	}
	return nil
}

// VolatilityLevel buckets the current volume regime.
type VolatilityLevel string

const (
	VolatilityLow    VolatilityLevel = "low"
	VolatilityNormal VolatilityLevel = "normal"
	VolatilityHigh   VolatilityLevel = "high"
)

// VolumeProfile summarizes candle geometry and volume over a window.
// Recomputed per window, never persisted.
type VolumeProfile struct {
	AvgHeight         float64
	ATR               float64
	AvgBodyRatio      float64
	AvgUpperWickRatio float64
	AvgLowerWickRatio float64
	VolumeRatio       float64
	VolatilityLevel   VolatilityLevel
	PredictedHeight   float64
}
