package smartmoney

import "TradePulse/internal/domain/models"

// Gap is a price zone left untraded: a fair value gap (3-candle imbalance)
// or a liquidity void (true gap between consecutive candles).
type Gap struct {
	Index int
	Low   float64
	High  float64
}

// FairValueGaps holds the most recent unfilled 3-candle imbalances.
type FairValueGaps struct {
	Bullish []Gap
	Bearish []Gap
}

const keepGaps = 2

// FindFairValueGaps detects 3-candle imbalances: bullish when the third
// candle's low clears the first candle's high, bearish mirrored. The most
// recent 2 of each are kept.
func FindFairValueGaps(candles []models.Candle) FairValueGaps {
	var out FairValueGaps
	for i := 2; i < len(candles); i++ {
		first := candles[i-2]
		third := candles[i]

		if third.Low > first.High {
			out.Bullish = append(out.Bullish, Gap{Index: i, Low: first.High, High: third.Low})
		}
		if third.High < first.Low {
			out.Bearish = append(out.Bearish, Gap{Index: i, Low: third.High, High: first.Low})
		}
	}
	out.Bullish = keepLastGaps(out.Bullish, keepGaps)
	out.Bearish = keepLastGaps(out.Bearish, keepGaps)
	return out
}

// LiquidityVoids holds true price gaps between consecutive candles.
type LiquidityVoids struct {
	Bullish []Gap
	Bearish []Gap
}

// FindLiquidityVoids detects gaps where the next candle opens entirely
// beyond the previous candle's range.
func FindLiquidityVoids(candles []models.Candle) LiquidityVoids {
	var out LiquidityVoids
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1]
		curr := candles[i]

		if curr.Low > prev.High {
			out.Bullish = append(out.Bullish, Gap{Index: i, Low: prev.High, High: curr.Low})
		}
		if curr.High < prev.Low {
			out.Bearish = append(out.Bearish, Gap{Index: i, Low: curr.High, High: prev.Low})
		}
	}
	out.Bullish = keepLastGaps(out.Bullish, keepGaps)
	out.Bearish = keepLastGaps(out.Bearish, keepGaps)
	return out
}

func keepLastGaps(gaps []Gap, n int) []Gap {
	if len(gaps) <= n {
		return gaps
	}
	return gaps[len(gaps)-n:]
}
