package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/config"
)

func newTestBacktester(analysis config.AnalysisConfig, bt config.BacktestConfig) *Backtester {
	return NewBacktester(bt, NewGenerator(analysis), NewSimulator(bt), nil)
}

func flatCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Time: int64(i+1) * 60_000,
			Open: 100, High: 100, Low: 100, Close: 100,
			Volume: 10,
		}
	}
	return candles
}

func TestBacktestInsufficientData(t *testing.T) {
	bt := newTestBacktester(config.DefaultAnalysis(), config.DefaultBacktest())
	_, err := bt.Run(context.Background(), "BTCUSDT", "15m", flatCandles(30), Params{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestBacktestRejectsCorruptSeries(t *testing.T) {
	bt := newTestBacktester(config.DefaultAnalysis(), config.DefaultBacktest())
	candles := flatCandles(80)
	candles[40].Time = candles[39].Time // non-monotonic
	_, err := bt.Run(context.Background(), "BTCUSDT", "15m", candles, Params{})
	if err == nil || !strings.Contains(err.Error(), "candle series") {
		t.Fatalf("expected series validation error, got %v", err)
	}
}

func TestBacktestCancellation(t *testing.T) {
	bt := newTestBacktester(config.DefaultAnalysis(), config.DefaultBacktest())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := bt.Run(ctx, "BTCUSDT", "15m", flatCandles(120), Params{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBacktestFlatSeriesNoTrades(t *testing.T) {
	bt := newTestBacktester(config.DefaultAnalysis(), config.DefaultBacktest())
	ledger, err := bt.Run(context.Background(), "BTCUSDT", "15m", flatCandles(120), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.TotalTrades != 0 {
		t.Fatalf("expected no trades on a flat series, got %d", ledger.TotalTrades)
	}
	if ledger.CurrentBalance != ledger.StartingBalance {
		t.Fatalf("balance must be untouched, got %v", ledger.CurrentBalance)
	}
	for _, v := range []float64{ledger.WinRate, ledger.ProfitFactor, ledger.NetProfit, ledger.ReturnPercent, ledger.MaxDrawdown} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite stat leaked: %+v", ledger)
		}
	}
}

func TestBacktestTrendingSeriesProducesTrades(t *testing.T) {
	analysis := permissiveAnalysis()
	btCfg := config.DefaultBacktest()
	btCfg.SlippageBps = 0
	btCfg.FeeBps = 0
	bt := newTestBacktester(analysis, btCfg)

	candles := trendingCandles(200, 0.2)
	ledger, err := bt.Run(context.Background(), "BTCUSDT", "15m", candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.TotalTrades == 0 {
		t.Fatalf("expected trades on a trending series with open thresholds")
	}
	if len(ledger.Trades) != ledger.TotalTrades {
		t.Fatalf("trade count mismatch: %d vs %d", len(ledger.Trades), ledger.TotalTrades)
	}
	if ledger.WinningTrades+ledger.LosingTrades != ledger.TotalTrades {
		t.Fatalf("win/loss split inconsistent: %+v", ledger)
	}

	// Signal steps skip ahead so simulated trades never overlap.
	for i := 1; i < len(ledger.Trades); i++ {
		gap := ledger.Trades[i].EntryIndex - ledger.Trades[i-1].EntryIndex
		if gap <= btCfg.SkipOnSignal {
			t.Fatalf("trades %d and %d overlap: entry indexes %d and %d",
				i-1, i, ledger.Trades[i-1].EntryIndex, ledger.Trades[i].EntryIndex)
		}
	}

	sum := 0.0
	for _, tr := range ledger.Trades {
		sum += tr.Profit
	}
	if math.Abs(ledger.CurrentBalance-(ledger.StartingBalance+sum)) > 1e-6 {
		t.Fatalf("balance does not reconcile with trade profits: %+v", ledger)
	}
	if ledger.TotalTrades > 0 && (ledger.WinRate < 0 || ledger.WinRate > 100) {
		t.Fatalf("win rate out of range: %v", ledger.WinRate)
	}
}

func TestBacktestWindowOverride(t *testing.T) {
	bt := newTestBacktester(config.DefaultAnalysis(), config.DefaultBacktest())
	// 45 candles fail the default 50-candle window but pass an explicit
	// smaller one.
	candles := flatCandles(45)
	if _, err := bt.Run(context.Background(), "BTCUSDT", "15m", candles, Params{}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected default window to reject 45 candles")
	}
	if _, err := bt.Run(context.Background(), "BTCUSDT", "15m", candles, Params{WindowSize: 30, Lookahead: 5}); err != nil {
		t.Fatalf("expected override to accept, got %v", err)
	}
}
