package prediction

import (
	"math"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/indicators"
)

// WindowPrediction derives a directional call purely from the window
// itself: candle-count trend vote, momentum, volume ratio, moving-average
// alignment, price position, cumulative delta and a coarse volume
// footprint. The backtest runner uses it so no network call happens inside
// the simulation loop; the precedence of the votes is a fixed heuristic
// contract, not a claim of optimality.
func WindowPrediction(candles []models.Candle) (models.Prediction, models.TrendFilter) {
	if len(candles) < 20 {
		return models.Prediction{Signal: models.SideNeutral, Confidence: 50, Source: "window"}, models.TrendFilter{}
	}

	recent := candles[len(candles)-20:]
	last10 := recent[10:]

	var (
		upCount, downCount      int
		totalVolume, bullVolume float64
		cumulativeDelta         float64
		positiveDelta, negDelta int
	)
	for _, c := range last10 {
		totalVolume += c.Volume
		buy, sell := indicators.VolumeDelta(c)
		if c.IsBullish() {
			upCount++
			bullVolume += c.Volume
		} else {
			downCount++
		}
		delta := buy - sell
		cumulativeDelta += delta
		if delta > 0 {
			positiveDelta++
		} else {
			negDelta++
		}
	}

	momentum := 0.0
	if last10[0].Close != 0 {
		momentum = (last10[9].Close - last10[0].Close) / last10[0].Close * 100
	}

	volumeRatio := 0.5
	if totalVolume > 0 {
		volumeRatio = bullVolume / totalVolume
	}

	ma5 := indicators.SMA(recent, 5)
	ma10 := indicators.SMA(recent, 10)
	ma20 := indicators.SMA(recent, 20)
	currentPrice := last10[9].Close

	resistance, support := recent[0].High, recent[0].Low
	for _, c := range recent {
		resistance = math.Max(resistance, c.High)
		support = math.Min(support, c.Low)
	}
	pricePosition := 0.5
	if resistance > support {
		pricePosition = (currentPrice - support) / (resistance - support)
	}

	fp := footprint(recent, support, resistance)

	var bullish, bearish int

	// Trend vote, weighted when clearly one-sided.
	switch {
	case float64(upCount) > float64(downCount)*1.3:
		bullish += 2
	case upCount > downCount:
		bullish++
	case float64(downCount) > float64(upCount)*1.3:
		bearish += 2
	default:
		bearish++
	}

	switch {
	case momentum > 1.0:
		bullish += 2
	case momentum > 0.3:
		bullish++
	case momentum < -1.0:
		bearish += 2
	case momentum < -0.3:
		bearish++
	}

	switch {
	case volumeRatio > 0.6:
		bullish += 2
	case volumeRatio > 0.52:
		bullish++
	case volumeRatio < 0.4:
		bearish += 2
	case volumeRatio < 0.48:
		bearish++
	}

	// Full MA stack alignment outweighs a single crossing.
	switch {
	case ma5 > ma10 && ma10 > ma20 && currentPrice > ma5:
		bullish += 3
	case ma5 < ma10 && ma10 < ma20 && currentPrice < ma5:
		bearish += 3
	case currentPrice > ma20:
		bullish++
	default:
		bearish++
	}

	if pricePosition < 0.25 {
		bullish += 2
	} else if pricePosition > 0.75 {
		bearish += 2
	}

	if cumulativeDelta > 0 {
		bullish += 3
		if float64(positiveDelta) > float64(negDelta)*1.5 {
			bullish += 2
		}
	} else {
		bearish += 3
		if float64(negDelta) > float64(positiveDelta)*1.5 {
			bearish += 2
		}
	}

	if fp.abovePOC && fp.buyPressureAtPOC {
		bullish += 3
	} else if !fp.abovePOC && !fp.buyPressureAtPOC {
		bearish += 3
	}

	if fp.currentLevel >= 0 && fp.currentLevel < footprintLevels {
		buyAt := fp.buyVolume[fp.currentLevel]
		sellAt := fp.sellVolume[fp.currentLevel]
		if buyAt > sellAt*1.5 {
			bullish += 2
		} else if sellAt > buyAt*1.5 {
			bearish += 2
		}
	}

	total := bullish + bearish
	dominant := bullish
	if bearish > dominant {
		dominant = bearish
	}
	ratio := 0.5
	if total > 0 {
		ratio = float64(dominant) / float64(total)
	}
	strength := math.Abs(float64(bullish - bearish))
	confidence := 45 + ratio*35 + math.Min(strength, 12)*1.5
	confidence = math.Min(confidence, 90)

	side := models.SideSell
	if upCount > downCount {
		side = models.SideBuy
	}

	pred := models.Prediction{Signal: side, Confidence: confidence, Source: "window"}
	filter := models.TrendFilter{
		Bullish:    upCount > downCount,
		Confidence: math.Abs(float64(upCount-downCount)) / 10,
	}
	return pred, filter
}

const footprintLevels = 10

type footprintInfo struct {
	buyVolume        [footprintLevels]float64
	sellVolume       [footprintLevels]float64
	abovePOC         bool
	buyPressureAtPOC bool
	currentLevel     int
}

// footprint distributes each candle's estimated buy/sell volume across ten
// equal price levels between support and resistance and locates the point
// of control.
func footprint(candles []models.Candle, support, resistance float64) footprintInfo {
	var fp footprintInfo
	priceRange := resistance - support
	if priceRange <= 0 {
		return fp
	}
	priceStep := priceRange / footprintLevels

	var volume [footprintLevels]float64
	for _, c := range candles {
		rng := c.Range()
		closePos := 0.5
		if rng > 0 {
			closePos = (c.Close - c.Low) / rng
		}
		lowLevel := int((c.Low - support) / priceStep)
		highLevel := int((c.High - support) / priceStep)
		if lowLevel < 0 {
			lowLevel = 0
		}
		if highLevel > footprintLevels-1 {
			highLevel = footprintLevels - 1
		}
		span := float64(highLevel - lowLevel + 1)
		for level := lowLevel; level <= highLevel; level++ {
			volume[level] += c.Volume / span
			fp.buyVolume[level] += c.Volume * closePos / span
			fp.sellVolume[level] += c.Volume * (1 - closePos) / span
		}
	}

	pocLevel := 0
	for i, v := range volume {
		if v > volume[pocLevel] {
			pocLevel = i
		}
	}
	pocPrice := support + float64(pocLevel)*priceStep
	currentPrice := candles[len(candles)-1].Close

	fp.abovePOC = currentPrice > pocPrice
	fp.buyPressureAtPOC = fp.buyVolume[pocLevel] > fp.sellVolume[pocLevel]
	fp.currentLevel = int((currentPrice - support) / priceStep)
	return fp
}
