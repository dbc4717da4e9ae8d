package indicators

import (
	"math"

	"TradePulse/internal/domain/models"
)

// Stateless indicator functions over candle windows. Every function given
// fewer candles than it needs returns a neutral/degenerate value instead of
// failing; callers must treat those as insufficient evidence, not as a live
// reading.

const (
	// DefaultRSIPeriod is the standard Wilder lookback.
	DefaultRSIPeriod = 14
	// DefaultATRPeriod is the standard true-range lookback.
	DefaultATRPeriod = 14
	// pivotLookback bounds the window used for pivot and Fibonacci levels.
	pivotLookback = 50
)

// RSI computes the relative strength index over the last period closes.
// Returns 50 with insufficient data and 100 when the average loss is
// exactly zero.
func RSI(candles []models.Candle, period int) float64 {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(candles) < period+1 {
		return 50
	}
	var gains, losses float64
	for i := len(candles) - period; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// SMA is the arithmetic mean of the last period closes. With fewer candles
// than period it degrades to the last close rather than erroring.
func SMA(candles []models.Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if period <= 0 || len(candles) < period {
		return candles[len(candles)-1].Close
	}
	sum := 0.0
	for _, c := range candles[len(candles)-period:] {
		sum += c.Close
	}
	return sum / float64(period)
}

// ATR computes the mean true range over the last period candles. ok is
// false with fewer than period+1 candles.
func ATR(candles []models.Candle, period int) (atr float64, ok bool) {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	if len(candles) < period+1 {
		return 0, false
	}
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trs = append(trs, tr)
	}
	sum := 0.0
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period), true
}

// PivotLevels holds classic floor-trader pivot levels derived from the
// recent window extreme high/low and last close.
type PivotLevels struct {
	Pivot      float64
	Resistance [3]float64 // R1..R3
	Support    [3]float64 // S1..S3
	Current    float64
}

// Pivots derives pivot support/resistance from the last 50 candles.
// ok is false with fewer than 20 candles.
func Pivots(candles []models.Candle) (PivotLevels, bool) {
	if len(candles) < 20 {
		return PivotLevels{}, false
	}
	recent := tail(candles, pivotLookback)
	high := recent[0].High
	low := recent[0].Low
	for _, c := range recent {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}
	closePrice := recent[len(recent)-1].Close

	pivot := (high + low + closePrice) / 3
	return PivotLevels{
		Pivot: pivot,
		Resistance: [3]float64{
			2*pivot - low,
			pivot + (high - low),
			high + 2*(pivot-low),
		},
		Support: [3]float64{
			2*pivot - high,
			pivot - (high - low),
			low - 2*(high-pivot),
		},
		Current: closePrice,
	}, true
}

// FibLevels are retracement prices between the recent extreme high (Level0)
// and low (Level100).
type FibLevels struct {
	Level0   float64
	Level236 float64
	Level382 float64
	Level500 float64
	Level618 float64
	Level786 float64
	Level100 float64
}

// Fibonacci computes retracement levels over the last 50 candles.
// ok is false with fewer than 20 candles.
func Fibonacci(candles []models.Candle) (FibLevels, bool) {
	if len(candles) < 20 {
		return FibLevels{}, false
	}
	recent := tail(candles, pivotLookback)
	high := recent[0].High
	low := recent[0].Low
	for _, c := range recent {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}
	diff := high - low
	return FibLevels{
		Level0:   high,
		Level236: high - diff*0.236,
		Level382: high - diff*0.382,
		Level500: high - diff*0.500,
		Level618: high - diff*0.618,
		Level786: high - diff*0.786,
		Level100: low,
	}, true
}

// tail returns the last n candles (or all of them when fewer exist).
func tail(candles []models.Candle, n int) []models.Candle {
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
