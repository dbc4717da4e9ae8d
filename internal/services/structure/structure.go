package structure

import (
	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// Params control how much history the analyzer consumes. Higher timeframes
// read wider windows with less sensitive swing detection.
type Params struct {
	Lookback       int // candles inspected
	SwingWindow    int // candles on each side of a swing extreme
	MomentumPeriod int // close-to-close net change lookback
}

// ParamsForTimeframe returns the tuned analyzer parameters for a timeframe.
func ParamsForTimeframe(tf repository.Timeframe) Params {
	switch tf {
	case repository.TF1m:
		return Params{Lookback: 30, SwingWindow: 2, MomentumPeriod: 5}
	case repository.TF3m:
		return Params{Lookback: 40, SwingWindow: 3, MomentumPeriod: 7}
	case repository.TF5m:
		return Params{Lookback: 50, SwingWindow: 3, MomentumPeriod: 10}
	case repository.TF15m:
		return Params{Lookback: 60, SwingWindow: 4, MomentumPeriod: 12}
	case repository.TF30m:
		return Params{Lookback: 70, SwingWindow: 4, MomentumPeriod: 15}
	case repository.TF1h:
		return Params{Lookback: 80, SwingWindow: 4, MomentumPeriod: 15}
	case repository.TF4h:
		return Params{Lookback: 100, SwingWindow: 4, MomentumPeriod: 15}
	default:
		return Params{Lookback: 50, SwingWindow: 4, MomentumPeriod: 12}
	}
}

// SwingPoint marks a local extreme inside the analyzed window.
type SwingPoint struct {
	Index int
	Price float64
}

// Swings detects swing highs and lows: a candle whose high (low) exceeds
// (undercuts) the highs (lows) of window candles on each side.
func Swings(candles []models.Candle, window int) (highs, lows []SwingPoint) {
	for i := window; i < len(candles)-window; i++ {
		isHigh, isLow := true, true
		for j := 1; j <= window; j++ {
			if candles[i].High <= candles[i-j].High || candles[i].High <= candles[i+j].High {
				isHigh = false
			}
			if candles[i].Low >= candles[i-j].Low || candles[i].Low >= candles[i+j].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, SwingPoint{Index: i, Price: candles[i].High})
		}
		if isLow {
			lows = append(lows, SwingPoint{Index: i, Price: candles[i].Low})
		}
	}
	return highs, lows
}

// Analyze summarizes the swing structure of a candle window. Returns nil
// with fewer than 30 candles.
func Analyze(candles []models.Candle, p Params) *models.MarketStructure {
	if len(candles) < 30 {
		return nil
	}
	lookback := p.Lookback
	if lookback > len(candles) {
		lookback = len(candles)
	}
	recent := candles[len(candles)-lookback:]

	highs, lows := Swings(recent, p.SwingWindow)

	phase := models.PhaseRanging
	if len(highs) >= 2 && len(lows) >= 2 {
		h0, h1 := highs[len(highs)-2], highs[len(highs)-1]
		l0, l1 := lows[len(lows)-2], lows[len(lows)-1]
		switch {
		case h1.Price > h0.Price && l1.Price > l0.Price:
			phase = models.PhaseUptrend
		case h1.Price < h0.Price && l1.Price < l0.Price:
			phase = models.PhaseDowntrend
		}
	}

	momentum := 0.0
	mp := p.MomentumPeriod
	if mp > len(recent) {
		mp = len(recent)
	}
	momWindow := recent[len(recent)-mp:]
	for i := 1; i < len(momWindow); i++ {
		momentum += momWindow[i].Close - momWindow[i-1].Close
	}

	currentPrice := recent[len(recent)-1].Close
	recentHigh, recentLow := windowExtremes(recent, 10)

	resistance := recentHigh
	if len(highs) > 0 {
		resistance = highs[len(highs)-1].Price
	}
	support := recentLow
	if len(lows) > 0 {
		support = lows[len(lows)-1].Price
	}

	pricePosition := 0.5
	if resistance > support {
		pricePosition = (currentPrice - support) / (resistance - support)
	}

	return &models.MarketStructure{
		Phase:          phase,
		Momentum:       momentum,
		TrendStrength:  abs(momentum) / float64(mp),
		Resistance:     resistance,
		Support:        support,
		SwingHighCount: len(highs),
		SwingLowCount:  len(lows),
		PricePosition:  pricePosition,
		KeyLevel:       classifyKeyLevel(pricePosition),
	}
}

// classifyKeyLevel buckets a 0..1 price position with fixed thresholds.
func classifyKeyLevel(pos float64) models.KeyLevel {
	switch {
	case pos > 0.9:
		return models.LevelResistance
	case pos < 0.1:
		return models.LevelSupport
	case pos > 0.7:
		return models.LevelNearResistance
	case pos < 0.3:
		return models.LevelNearSupport
	default:
		return models.LevelMiddle
	}
}

func windowExtremes(candles []models.Candle, n int) (high, low float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	start := len(candles) - n
	if start < 0 {
		start = 0
	}
	high, low = candles[start].High, candles[start].Low
	for _, c := range candles[start:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
