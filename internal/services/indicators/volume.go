package indicators

import "TradePulse/internal/domain/models"

// Volume-flow estimation. A candle's traded volume is split into buy and
// sell parts by where its close landed inside the high-low range, weighted
// toward the close side of bullish/bearish candles. This is the building
// block for cumulative delta and every downstream flow heuristic.

// VolumeDelta estimates buy minus sell volume inside a single candle.
func VolumeDelta(c models.Candle) (buy, sell float64) {
	rng := c.Range()
	closePos := 0.5
	if rng > 0 {
		closePos = (c.Close - c.Low) / rng
	}
	vol := c.Volume
	if c.IsBullish() {
		buy = vol * (0.5 + closePos*0.5)
		sell = vol - buy
	} else {
		sell = vol * (0.5 + (1-closePos)*0.5)
		buy = vol - sell
	}
	return buy, sell
}

// DeltaInfo summarizes net volume flow over a window.
type DeltaInfo struct {
	Delta    float64 // cumulative buy-sell volume
	Strength float64 // |delta| / total volume, 0..1
}

// CumulativeDelta sums per-candle volume deltas over the last n candles.
func CumulativeDelta(candles []models.Candle, n int) DeltaInfo {
	recent := tail(candles, n)
	var delta, total float64
	for _, c := range recent {
		buy, sell := VolumeDelta(c)
		delta += buy - sell
		total += c.Volume
	}
	strength := 0.0
	if total > 0 {
		strength = abs(delta) / total
	}
	return DeltaInfo{Delta: delta, Strength: strength}
}

// Profile summarizes candle geometry and volume over the last 30 candles.
// Returns the zero profile when the window is empty.
func Profile(candles []models.Candle) models.VolumeProfile {
	if len(candles) == 0 {
		return models.VolumeProfile{}
	}
	recent := tail(candles, 30)
	n := float64(len(recent))

	var totalVolume, totalHeight, totalBody, totalUpperWick, totalLowerWick float64
	for _, c := range recent {
		totalVolume += c.Volume
		totalHeight += c.Range()
		totalBody += c.Body()
		bodyTop := c.Open
		bodyBottom := c.Close
		if c.IsBullish() {
			bodyTop, bodyBottom = c.Close, c.Open
		}
		totalUpperWick += c.High - bodyTop
		totalLowerWick += bodyBottom - c.Low
	}

	avgVolume := totalVolume / n
	avgHeight := totalHeight / n
	currentVolume := candles[len(candles)-1].Volume
	if currentVolume == 0 {
		currentVolume = avgVolume
	}
	volumeRatio := 1.0
	if avgVolume > 0 {
		volumeRatio = currentVolume / avgVolume
	}

	level := models.VolatilityNormal
	switch {
	case volumeRatio > 1.5:
		level = models.VolatilityHigh
	case volumeRatio < 0.7:
		level = models.VolatilityLow
	}

	p := models.VolumeProfile{
		AvgHeight:       avgHeight,
		VolumeRatio:     volumeRatio,
		VolatilityLevel: level,
		PredictedHeight: avgHeight * (0.8 + volumeRatio*0.4),
	}
	if avgHeight > 0 {
		p.AvgBodyRatio = (totalBody / n) / avgHeight
		p.AvgUpperWickRatio = (totalUpperWick / n) / avgHeight
		p.AvgLowerWickRatio = (totalLowerWick / n) / avgHeight
	}
	if atr, ok := ATR(candles, DefaultATRPeriod); ok {
		p.ATR = atr
	}
	return p
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
