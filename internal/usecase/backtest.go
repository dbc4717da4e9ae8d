package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/prediction"
	"TradePulse/pkg/config"
	xlogger "TradePulse/pkg/logger"
)

// ErrInsufficientData is returned when the series cannot cover one
// analysis window plus lookahead. Callers report it distinctly from a
// zero-trade run over sufficient data.
var ErrInsufficientData = errors.New("insufficient historical data")

// Backtester slides a fixed window across a historical series, generates
// a signal per step from a window-local prediction, simulates each hit
// against the lookahead slice and accumulates the ledger. One run owns
// its ledger exclusively; nothing is shared across runs.
type Backtester struct {
	cfg    config.BacktestConfig
	gen    *Generator
	sim    *Simulator
	logger *xlogger.Logger
}

func NewBacktester(cfg config.BacktestConfig, gen *Generator, sim *Simulator, logger *xlogger.Logger) *Backtester {
	return &Backtester{cfg: cfg, gen: gen, sim: sim, logger: logger}
}

// Params override the configured window geometry for one run. Zero values
// fall back to config.
type Params struct {
	WindowSize   int
	Lookahead    int
	SkipOnSignal int
}

// Run replays the series. The context is honored at every iteration so a
// long run can be cancelled promptly.
func (b *Backtester) Run(ctx context.Context, symbol string, tf string, candles []models.Candle, p Params) (*models.Ledger, error) {
	if err := models.ValidateSeries(candles); err != nil {
		return nil, fmt.Errorf("candle series: %w", err)
	}

	window := p.WindowSize
	if window <= 0 {
		window = b.cfg.WindowSize
	}
	lookahead := p.Lookahead
	if lookahead <= 0 {
		lookahead = b.cfg.Lookahead
	}
	skip := p.SkipOnSignal
	if skip <= 0 {
		skip = b.cfg.SkipOnSignal
	}

	if len(candles) < window+lookahead {
		return nil, ErrInsufficientData
	}

	ledger := &models.Ledger{
		Trades:          []models.Trade{},
		StartingBalance: b.cfg.StartingBalance,
		CurrentBalance:  b.cfg.StartingBalance,
		PeakBalance:     b.cfg.StartingBalance,
	}

	for i := window; i < len(candles)-lookahead; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dataWindow := candles[i-window : i]
		future := candles[i : i+lookahead]

		pred, filter := prediction.WindowPrediction(dataWindow)
		signal := b.gen.Generate(symbol, tf, dataWindow, &pred, &filter)
		if signal == nil {
			continue
		}

		trade := b.sim.Simulate(signal, future, b.riskAmount(ledger))
		trade.EntryIndex = i
		b.record(ledger, trade)

		if b.logger != nil {
			b.logger.Debug("backtest trade",
				xlogger.String("symbol", symbol),
				xlogger.String("side", string(trade.Type)),
				xlogger.String("exit", string(trade.ExitReason)),
				xlogger.Float64("profit", trade.Profit),
			)
		}

		// Skip ahead so trades never overlap.
		i += skip
	}

	b.finalize(ledger)
	return ledger, nil
}

// riskAmount applies the configured sizing policy. "fixed" risks a flat
// amount per trade; "percent" risks a fraction of the running balance,
// capped at a multiple of the starting balance. The two produce materially
// different equity curves; fixed is the default policy.
func (b *Backtester) riskAmount(ledger *models.Ledger) float64 {
	if b.cfg.RiskPolicy == "percent" {
		uncapped := ledger.CurrentBalance * b.cfg.RiskPercent
		ceiling := ledger.StartingBalance * b.cfg.RiskCapMultiple
		return math.Min(uncapped, ceiling)
	}
	return b.cfg.RiskAmount
}

func (b *Backtester) record(ledger *models.Ledger, trade models.Trade) {
	ledger.Trades = append(ledger.Trades, trade)
	ledger.TotalTrades++

	if trade.Profit > 0 {
		ledger.WinningTrades++
		ledger.TotalProfit += trade.Profit
	} else {
		ledger.LosingTrades++
		ledger.TotalLoss += math.Abs(trade.Profit)
	}

	ledger.CurrentBalance += trade.Profit
	if ledger.CurrentBalance > ledger.PeakBalance {
		ledger.PeakBalance = ledger.CurrentBalance
	}
	if ledger.PeakBalance > 0 {
		drawdown := (ledger.PeakBalance - ledger.CurrentBalance) / ledger.PeakBalance
		if drawdown > ledger.MaxDrawdown {
			ledger.MaxDrawdown = drawdown
		}
	}
}

func (b *Backtester) finalize(ledger *models.Ledger) {
	ledger.NetProfit = ledger.CurrentBalance - ledger.StartingBalance
	if ledger.StartingBalance > 0 {
		ledger.ReturnPercent = ledger.NetProfit / ledger.StartingBalance * 100
	}
	if ledger.TotalTrades == 0 {
		return
	}
	ledger.WinRate = float64(ledger.WinningTrades) / float64(ledger.TotalTrades) * 100
	if ledger.TotalLoss > 0 {
		ledger.ProfitFactor = ledger.TotalProfit / ledger.TotalLoss
	}
	totalRR := 0.0
	for _, t := range ledger.Trades {
		totalRR += t.RealizedRR
	}
	ledger.AverageRR = totalRR / float64(ledger.TotalTrades)
}
