package smartmoney

import (
	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/indicators"
)

// Market-cycle phase classification: accumulation (range contraction),
// manipulation (spike beyond the prior range that reverses), distribution
// (sustained directional break). Two variants are run side by side: the
// price-range model (power of 3) and the volume/delta-confirmed model
// (AMD).

// CyclePhase is one leg of the accumulation/manipulation/distribution cycle.
type CyclePhase string

const (
	PhaseUnknown      CyclePhase = "UNKNOWN"
	PhaseAccumulation CyclePhase = "ACCUMULATION"
	PhaseManipulation CyclePhase = "MANIPULATION"
	PhaseDistribution CyclePhase = "DISTRIBUTION"
)

// CycleDirection is the directional bias of a detected phase.
type CycleDirection string

const (
	DirectionNone    CycleDirection = ""
	DirectionBullish CycleDirection = "BULLISH"
	DirectionBearish CycleDirection = "BEARISH"
)

// Cycle is a classified market-cycle phase with its bias.
type Cycle struct {
	Phase     CyclePhase
	Direction CycleDirection
	Delta     float64 // AMD only: cumulative delta of the last 5 candles
}

// DetectPowerOf3 classifies the last 20 candles by comparing the recent
// 10-candle range against the prior 10. Distribution wins over
// manipulation which wins over accumulation.
func DetectPowerOf3(candles []models.Candle) Cycle {
	if len(candles) < 20 {
		return Cycle{Phase: PhaseUnknown}
	}
	recent := candles[len(candles)-20:]
	prev10 := recent[:10]
	last10 := recent[10:]

	prevHigh, prevLow := extremes(prev10)
	lastHigh, lastLow := extremes(last10)

	isAccumulation := (lastHigh - lastLow) < (prevHigh-prevLow)*0.7

	last3 := last10[7:]
	spikedUp := last3[0].High > prevHigh && last3[2].Close < last3[0].Close
	spikedDown := last3[0].Low < prevLow && last3[2].Close > last3[0].Close

	lastClose := last10[9].Close
	strongUpMove := lastClose > prevHigh*1.01
	strongDownMove := lastClose < prevLow*0.99

	switch {
	case strongUpMove || strongDownMove:
		dir := DirectionBullish
		if strongDownMove {
			dir = DirectionBearish
		}
		return Cycle{Phase: PhaseDistribution, Direction: dir}
	case spikedUp || spikedDown:
		// Bias runs opposite to the spike: the fake move took liquidity.
		dir := DirectionBullish
		if spikedUp {
			dir = DirectionBearish
		}
		return Cycle{Phase: PhaseManipulation, Direction: dir}
	case isAccumulation:
		return Cycle{Phase: PhaseAccumulation}
	default:
		return Cycle{Phase: PhaseUnknown}
	}
}

// DetectAMD classifies the last 15 candles using volume and delta
// confirmation on top of the price move.
func DetectAMD(candles []models.Candle) Cycle {
	if len(candles) < 15 {
		return Cycle{Phase: PhaseUnknown}
	}
	recent := candles[len(candles)-15:]
	prev10 := recent[:10]
	last5 := recent[10:]

	var prevVolume float64
	for _, c := range prev10 {
		prevVolume += c.Volume
	}
	avgVolume := prevVolume / float64(len(prev10))

	var last5Volume float64
	for _, c := range last5 {
		last5Volume += c.Volume
	}
	last5Volume /= float64(len(last5))

	var delta float64
	for _, c := range last5 {
		buy, sell := indicators.VolumeDelta(c)
		delta += buy - sell
	}

	priceChange := last5[4].Close - last5[0].Close
	priceChangePercent := 0.0
	if last5[0].Close != 0 {
		priceChangePercent = abs(priceChange/last5[0].Close) * 100
	}

	isAccumulation := last5Volume < avgVolume*0.8 && priceChangePercent < 0.5
	hasVolumeSpike := last5Volume > avgVolume*1.5
	hasReversal := (delta > 0 && priceChange < 0) || (delta < 0 && priceChange > 0)
	deltaConfirms := (delta > 0 && priceChange > 0) || (delta < 0 && priceChange < 0)
	strongMove := priceChangePercent > 1.0

	switch {
	case hasVolumeSpike && strongMove && deltaConfirms:
		dir := DirectionBullish
		if priceChange < 0 {
			dir = DirectionBearish
		}
		return Cycle{Phase: PhaseDistribution, Direction: dir, Delta: delta}
	case hasVolumeSpike && hasReversal:
		dir := DirectionBullish
		if delta < 0 {
			dir = DirectionBearish
		}
		return Cycle{Phase: PhaseManipulation, Direction: dir, Delta: delta}
	case isAccumulation:
		return Cycle{Phase: PhaseAccumulation, Delta: delta}
	default:
		return Cycle{Phase: PhaseUnknown, Delta: delta}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
