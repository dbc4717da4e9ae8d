package usecase

import (
	"math"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/indicators"
	"TradePulse/internal/services/smartmoney"
	"TradePulse/pkg/config"
)

// Generator turns a candle window plus a directional prediction into a
// scored trade setup. Generate is a deterministic pure function of its
// inputs; any lock/debounce policy is the caller's concern.
type Generator struct {
	cfg config.AnalysisConfig
}

func NewGenerator(cfg config.AnalysisConfig) *Generator {
	return &Generator{cfg: cfg}
}

// ConfluenceBreakdown itemizes every scoring contribution so the policy
// can be inspected and asserted factor by factor.
type ConfluenceBreakdown struct {
	Delta            int
	OrderBlock       int
	BreakerBlock     int
	FairValueGap     int
	LiquiditySweep   int
	Displacement     int
	PO3Distribution  int
	AMDDistribution  int
	BreakOfStructure int
	KeyLevelRetest   int
}

// Total sums all contributions.
func (b ConfluenceBreakdown) Total() int {
	return b.Delta + b.OrderBlock + b.BreakerBlock + b.FairValueGap +
		b.LiquiditySweep + b.Displacement + b.PO3Distribution +
		b.AMDDistribution + b.BreakOfStructure + b.KeyLevelRetest
}

// Generate evaluates one setup. A nil return means no qualifying signal;
// callers must report that distinctly from an error.
func (g *Generator) Generate(symbol string, tf string, candles []models.Candle, pred *models.Prediction, htf *models.TrendFilter) *models.Signal {
	if len(candles) < 20 {
		return nil
	}
	if pred == nil || pred.Signal == models.SideNeutral {
		return nil
	}

	currentPrice := candles[len(candles)-1].Close
	atr, ok := indicators.ATR(candles, indicators.DefaultATRPeriod)
	if !ok || atr <= 0 {
		return nil
	}
	pivots, ok := indicators.Pivots(candles)
	if !ok {
		return nil
	}

	strength := pred.Confidence
	isBullish := pred.Signal == models.SideBuy

	// Higher-timeframe guard: veto strong counter-trend setups, boost
	// aligned ones.
	if htf != nil {
		if isBullish != htf.Bullish && htf.Confidence > g.cfg.TrendVetoConf {
			return nil
		}
		if isBullish == htf.Bullish && htf.Confidence > g.cfg.TrendBoostConf {
			strength = math.Min(strength+g.cfg.TrendBoost, 100)
		}
	}
	if strength < g.cfg.MinStrength {
		return nil
	}

	obs := smartmoney.FindOrderBlocks(candles)
	breakdown := g.Score(candles, obs, pivots, atr, isBullish)
	if breakdown.Total() < g.cfg.MinConfluence {
		return nil
	}

	stopLoss := g.stopLoss(candles, obs, atr, isBullish)

	dir := 1.0
	if !isBullish {
		dir = -1
	}
	risk := dir * (currentPrice - stopLoss)
	if risk <= 0 {
		return nil
	}

	targets := make([]models.Target, 0, len(g.cfg.TargetATRMultiples))
	bestRR := 0.0
	for i, mult := range g.cfg.TargetATRMultiples {
		price := currentPrice + dir*atr*mult
		rr := dir * (price - currentPrice) / risk
		bestRR = math.Max(bestRR, rr)
		targets = append(targets, models.Target{
			Price:             price,
			RiskReward:        rr,
			AllocationPercent: g.cfg.TargetAllocations[i],
		})
	}
	if targets[0].RiskReward < g.cfg.MinRiskReward {
		return nil
	}

	side := models.SideBuy
	if !isBullish {
		side = models.SideSell
	}
	return &models.Signal{
		Symbol:      symbol,
		Timeframe:   tf,
		Timestamp:   time.UnixMilli(candles[len(candles)-1].Time),
		Type:        side,
		Strength:    int(strength),
		Entry:       currentPrice,
		StopLoss:    stopLoss,
		Targets:     targets,
		RiskAmount:  risk,
		RiskPercent: risk / currentPrice * 100,
		BestRR:      bestRR,
		Confluence:  breakdown.Total(),
		ATR:         atr,
		Support:     pivots.Support[0],
		Resistance:  pivots.Resistance[0],
	}
}

// Score runs every smart-money detector directionally filtered and sums
// the weighted contributions from the policy table.
func (g *Generator) Score(candles []models.Candle, obs smartmoney.OrderBlocks, pivots indicators.PivotLevels, atr float64, isBullish bool) ConfluenceBreakdown {
	w := g.cfg.Weights
	currentPrice := candles[len(candles)-1].Close
	var b ConfluenceBreakdown

	delta := indicators.CumulativeDelta(candles, 10)
	if (isBullish && delta.Delta > 0) || (!isBullish && delta.Delta < 0) {
		switch {
		case delta.Strength > 0.7:
			b.Delta = w.DeltaStrong
		case delta.Strength > 0.5:
			b.Delta = w.DeltaMedium
		default:
			b.Delta = w.DeltaWeak
		}
	}

	if isBullish {
		for _, ob := range obs.Bullish {
			if currentPrice >= ob.Low*0.98 && currentPrice <= ob.High*1.03 {
				b.OrderBlock = w.OrderBlock
				break
			}
		}
	} else {
		for _, ob := range obs.Bearish {
			if currentPrice <= ob.High*1.02 && currentPrice >= ob.Low*0.97 {
				b.OrderBlock = w.OrderBlock
				break
			}
		}
	}

	// A broken bearish block reclaimed downward backs a buy; the flipped
	// role makes it the strongest zone in the table.
	breakers := smartmoney.FindBreakerBlocks(candles, obs)
	if isBullish {
		for _, bb := range breakers.Bearish {
			if currentPrice >= bb.Low*0.98 && currentPrice <= bb.High*1.03 {
				b.BreakerBlock = w.BreakerBlock
				break
			}
		}
	} else {
		for _, bb := range breakers.Bullish {
			if currentPrice <= bb.High*1.02 && currentPrice >= bb.Low*0.97 {
				b.BreakerBlock = w.BreakerBlock
				break
			}
		}
	}

	fvg := smartmoney.FindFairValueGaps(candles)
	gaps := fvg.Bullish
	if !isBullish {
		gaps = fvg.Bearish
	}
	for _, gap := range gaps {
		if currentPrice >= gap.Low*0.98 && currentPrice <= gap.High*1.02 {
			b.FairValueGap = w.FairValueGap
			break
		}
	}

	sweep := smartmoney.DetectLiquiditySweep(candles)
	if (isBullish && sweep.Bullish) || (!isBullish && sweep.Bearish) {
		b.LiquiditySweep = w.LiquiditySweep
	}

	disp := smartmoney.DetectDisplacement(candles)
	if ((isBullish && disp.Bullish) || (!isBullish && disp.Bearish)) && disp.Strength > 2.5 {
		b.Displacement = w.Displacement
	}

	wantDir := smartmoney.DirectionBullish
	if !isBullish {
		wantDir = smartmoney.DirectionBearish
	}
	if po3 := smartmoney.DetectPowerOf3(candles); po3.Phase == smartmoney.PhaseDistribution && po3.Direction == wantDir {
		b.PO3Distribution = w.PO3Distribution
	}
	if amd := smartmoney.DetectAMD(candles); amd.Phase == smartmoney.PhaseDistribution && amd.Direction == wantDir {
		b.AMDDistribution = w.AMDDistribution
	}

	bos := smartmoney.DetectBreakOfStructure(candles)
	if (isBullish && bos.Type == smartmoney.BreakBullish) || (!isBullish && bos.Type == smartmoney.BreakBearish) {
		b.BreakOfStructure = w.BreakOfStructure
	}

	if level := keyLevelRetest(currentPrice, pivots, atr); (isBullish && level == models.LevelSupport) || (!isBullish && level == models.LevelResistance) {
		b.KeyLevelRetest = w.KeyLevelRetest
	}

	return b
}

// stopLoss places the stop behind the nearest supportive order block, or
// behind the 15-candle extreme when no block exists.
func (g *Generator) stopLoss(candles []models.Candle, obs smartmoney.OrderBlocks, atr float64, isBullish bool) float64 {
	if isBullish {
		if len(obs.Bullish) > 0 {
			nearest := obs.Bullish[len(obs.Bullish)-1]
			return nearest.Low - atr*g.cfg.StopATROrderBlock
		}
		low := candles[len(candles)-1].Low
		for _, c := range lastN(candles, 15) {
			low = math.Min(low, c.Low)
		}
		return low - atr*g.cfg.StopATRSwing
	}
	if len(obs.Bearish) > 0 {
		nearest := obs.Bearish[len(obs.Bearish)-1]
		return nearest.High + atr*g.cfg.StopATROrderBlock
	}
	high := candles[len(candles)-1].High
	for _, c := range lastN(candles, 15) {
		high = math.Max(high, c.High)
	}
	return high + atr*g.cfg.StopATRSwing
}

// keyLevelRetest reports whether price sits within half an ATR of a pivot
// support or resistance level. Support wins when both are in range.
func keyLevelRetest(price float64, pivots indicators.PivotLevels, atr float64) models.KeyLevel {
	tolerance := atr * 0.5
	for _, s := range pivots.Support {
		if math.Abs(price-s) < tolerance {
			return models.LevelSupport
		}
	}
	for _, r := range pivots.Resistance {
		if math.Abs(price-r) < tolerance {
			return models.LevelResistance
		}
	}
	return models.LevelMiddle
}

func lastN(candles []models.Candle, n int) []models.Candle {
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
