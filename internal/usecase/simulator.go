package usecase

import (
	"math"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/config"
)

// Simulator walks a signal forward through future candles applying
// stop-loss, take-profit and trailing-stop exits. The per-trade state
// machine is Open -> TrailingActive -> Closed(reason); the trailed stop
// only ever moves in the trade's favor.
type Simulator struct {
	cfg config.BacktestConfig
}

func NewSimulator(cfg config.BacktestConfig) *Simulator {
	return &Simulator{cfg: cfg}
}

// Simulate replays future candles against the signal and returns the
// realized trade. riskAmount is the account currency at risk; position
// size derives from it and the stop distance.
func (s *Simulator) Simulate(signal *models.Signal, future []models.Candle, riskAmount float64) models.Trade {
	entry := signal.Entry
	stop := signal.StopLoss
	initialStop := signal.StopLoss
	isBuy := signal.Type == models.SideBuy

	// Nothing to walk: close flat at entry.
	if len(future) == 0 {
		return models.Trade{
			Type:       signal.Type,
			Entry:      entry,
			Exit:       entry,
			StopLoss:   stop,
			ExitReason: models.ExitTimeout,
		}
	}

	riskDist := math.Abs(entry - initialStop)

	var (
		exitPrice   float64
		exitReason  models.ExitReason
		candlesHeld int
		peak        = entry // highest seen for BUY, lowest for SELL
		trailing    bool
		exited      bool
	)

	for _, candle := range future {
		candlesHeld++

		if isBuy {
			if candle.High > peak {
				peak = candle.High
				// Activate trailing once unrealized profit clears the
				// configured R multiple, then ratchet the stop to lock a
				// fraction of peak profit. Never moves down.
				if riskDist > 0 && (peak-entry)/riskDist > s.cfg.TrailingActivate {
					trailing = true
					stop = math.Max(stop, entry+(peak-entry)*s.cfg.TrailingLock)
				}
			}
			if candle.Low <= stop {
				exitPrice = stop
				exitReason = models.ExitStopLoss
				if trailing {
					exitReason = models.ExitTrailingStop
				}
				exited = true
				break
			}
			if candle.High >= signal.Targets[0].Price {
				exitPrice = signal.Targets[0].Price
				exitReason = models.ExitTakeProfit1
				exited = true
				break
			}
		} else {
			if candle.Low < peak {
				peak = candle.Low
				if riskDist > 0 && (entry-peak)/riskDist > s.cfg.TrailingActivate {
					trailing = true
					stop = math.Min(stop, entry-(entry-peak)*s.cfg.TrailingLock)
				}
			}
			if candle.High >= stop {
				exitPrice = stop
				exitReason = models.ExitStopLoss
				if trailing {
					exitReason = models.ExitTrailingStop
				}
				exited = true
				break
			}
			if candle.Low <= signal.Targets[0].Price {
				exitPrice = signal.Targets[0].Price
				exitReason = models.ExitTakeProfit1
				exited = true
				break
			}
		}
	}

	if !exited {
		exitPrice = future[len(future)-1].Close
		exitReason = models.ExitTimeout
	}

	priceDiff := exitPrice - entry
	if !isBuy {
		priceDiff = entry - exitPrice
	}

	positionSize := 0.0
	if riskDist > 0 {
		positionSize = riskAmount / riskDist
	}
	grossProfit := priceDiff * positionSize

	// Entry plus exit frictions, both proportional to notional size.
	slippage := entry * (s.cfg.SlippageBps / 10000) * 2 * positionSize
	fees := entry * (s.cfg.FeeBps / 10000) * 2 * positionSize
	profit := clampFinite(grossProfit - slippage - fees)

	profitPercent := 0.0
	if riskAmount > 0 {
		profitPercent = clampFinite(profit / riskAmount * 100)
	}
	realizedRR := 0.0
	if riskDist > 0 {
		realizedRR = clampFinite(math.Abs(priceDiff / riskDist))
	}

	return models.Trade{
		Type:          signal.Type,
		Entry:         entry,
		Exit:          exitPrice,
		StopLoss:      stop,
		ExitReason:    exitReason,
		Profit:        profit,
		ProfitPercent: profitPercent,
		CandlesHeld:   candlesHeld,
		RealizedRR:    realizedRR,
	}
}

// clampFinite maps NaN/Inf to zero so degenerate arithmetic never leaks
// into persisted records.
func clampFinite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
