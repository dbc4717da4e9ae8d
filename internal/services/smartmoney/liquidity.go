package smartmoney

import "TradePulse/internal/domain/models"

// StructureBreakType classifies a break of structure.
type StructureBreakType string

const (
	BreakNone    StructureBreakType = "NONE"
	BreakBullish StructureBreakType = "BULLISH"
	BreakBearish StructureBreakType = "BEARISH"
)

// StructureBreak reports a break beyond the prior 10-candle extreme.
type StructureBreak struct {
	Type     StructureBreakType
	Strength float64 // fractional magnitude of the break
}

// DetectBreakOfStructure compares the extremes of the most recent 10
// candles against the prior 10; a break beyond 0.5% either way signals a
// structure break.
func DetectBreakOfStructure(candles []models.Candle) StructureBreak {
	if len(candles) < 20 {
		return StructureBreak{Type: BreakNone}
	}
	recent := candles[len(candles)-20:]
	prevHigh, prevLow := extremes(recent[:10])
	recentHigh, recentLow := extremes(recent[10:])

	if recentHigh > prevHigh*1.005 {
		return StructureBreak{Type: BreakBullish, Strength: (recentHigh - prevHigh) / prevHigh}
	}
	if recentLow < prevLow*0.995 {
		return StructureBreak{Type: BreakBearish, Strength: (prevLow - recentLow) / prevLow}
	}
	return StructureBreak{Type: BreakNone}
}

// LiquiditySweep marks a stop-hunt: price pierced the prior swing extreme
// within the last 3 candles and closed back the other way.
type LiquiditySweep struct {
	Bullish   bool
	Bearish   bool
	SwingHigh float64
	SwingLow  float64
}

// DetectLiquiditySweep inspects the last 3 candles against the swing
// extremes of the 12 candles before them.
func DetectLiquiditySweep(candles []models.Candle) LiquiditySweep {
	if len(candles) < 15 {
		return LiquiditySweep{}
	}
	recent := candles[len(candles)-15:]
	swingHigh, swingLow := extremes(recent[:12])
	last3 := recent[12:]

	brokeBelow, brokeAbove := false, false
	for _, c := range last3 {
		if c.Low < swingLow {
			brokeBelow = true
		}
		if c.High > swingHigh {
			brokeAbove = true
		}
	}
	reversedUp := last3[2].Close > last3[0].Close
	reversedDown := last3[2].Close < last3[0].Close

	return LiquiditySweep{
		Bullish:   brokeBelow && reversedUp,
		Bearish:   brokeAbove && reversedDown,
		SwingHigh: swingHigh,
		SwingLow:  swingLow,
	}
}

// Displacement reports an abnormally large directional candle.
type Displacement struct {
	Bullish  bool
	Bearish  bool
	Strength float64 // last body relative to the preceding average
}

// DetectDisplacement flags the most recent candle when its body exceeds
// twice the average body of the 4 candles before it.
func DetectDisplacement(candles []models.Candle) Displacement {
	if len(candles) < 5 {
		return Displacement{}
	}
	last5 := candles[len(candles)-5:]
	avgBody := 0.0
	for _, c := range last5[:4] {
		avgBody += c.Body()
	}
	avgBody /= 4

	last := last5[4]
	if avgBody == 0 {
		return Displacement{}
	}
	strength := last.Body() / avgBody
	isDisplacement := last.Body() > avgBody*2
	return Displacement{
		Bullish:  isDisplacement && last.IsBullish(),
		Bearish:  isDisplacement && !last.IsBullish(),
		Strength: strength,
	}
}

func extremes(candles []models.Candle) (high, low float64) {
	high, low = candles[0].High, candles[0].Low
	for _, c := range candles {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}
