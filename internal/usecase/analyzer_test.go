package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/config"
	applogger "TradePulse/pkg/logger"
)

type stubCandleSource struct {
	candles []models.Candle
	err     error
}

func (s *stubCandleSource) Candles(context.Context, string, domrepo.Timeframe, int) ([]models.Candle, error) {
	return s.candles, s.err
}

func (s *stubCandleSource) MaxPerCall() int { return 1000 }

type stubPredictor struct {
	pred models.Prediction
	err  error
}

func (s *stubPredictor) Predict(context.Context, string, []models.Candle) (models.Prediction, error) {
	return s.pred, s.err
}

type recordingSink struct {
	mu      sync.Mutex
	signals []*models.Signal
}

func (s *recordingSink) Notify(_ context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, sig)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.signals)
}

type recordingStore struct {
	mu      sync.Mutex
	signals []*models.Signal
	trades  []models.Trade
}

func (s *recordingStore) Init(context.Context) error { return nil }

func (s *recordingStore) StoreSignal(_ context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, sig)
	return nil
}

func (s *recordingStore) StoreTrades(_ context.Context, _ string, _ domrepo.Timeframe, trades []models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trades...)
	return nil
}

func (s *recordingStore) Health(context.Context) error { return nil }
func (s *recordingStore) Close() error                 { return nil }

func (s *recordingStore) tradeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: make(map[string]int)}
}

func (m *countingMetrics) bump(k string) {
	m.mu.Lock()
	m.counts[k]++
	m.mu.Unlock()
}

func (m *countingMetrics) get(k string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[k]
}

func (m *countingMetrics) RecordSignal(string, string) { m.bump("signal") }
func (m *countingMetrics) RecordTrade(string, string) { m.bump("trade") }
func (m *countingMetrics) RecordError(kind string) { m.bump("error:" + kind) }
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64) {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestAnalyzer(t *testing.T, source domrepo.CandleSource, pred *stubPredictor, metrics *countingMetrics, opts ...AnalyzerOption) *Analyzer {
	t.Helper()
	analysis := permissiveAnalysis()
	btCfg := config.DefaultBacktest()
	gen := NewGenerator(analysis)
	bt := NewBacktester(btCfg, gen, NewSimulator(btCfg), nil)
	deb := NewDebouncer(analysis.DebounceEntryDrift)
	return NewAnalyzer(source, pred, gen, bt, deb, metrics, testLogger(t), opts...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAnalyzerEmitsAndDispatches(t *testing.T) {
	source := &stubCandleSource{candles: trendingCandles(120, 0.2)}
	pred := &stubPredictor{pred: models.Prediction{Signal: models.SideBuy, Confidence: 80, Source: "stub"}}
	metrics := newCountingMetrics()
	sink := &recordingSink{}
	store := &recordingStore{}
	a := newTestAnalyzer(t, source, pred, metrics, WithAlertSink(sink), WithSignalStore(store))

	res, err := a.Analyze(context.Background(), "BTCUSDT", domrepo.TF15m, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Signal == nil {
		t.Fatalf("expected a signal")
	}
	if res.Price != source.candles[len(source.candles)-1].Close {
		t.Fatalf("expected last close as price, got %v", res.Price)
	}
	if res.Structure == nil {
		t.Fatalf("expected market structure")
	}
	if res.Fibonacci.Level0 <= res.Fibonacci.Level100 {
		t.Fatalf("expected fib levels spanning the window range, got %+v", res.Fibonacci)
	}
	if math.Abs(res.Fibonacci.Level500-(res.Fibonacci.Level0+res.Fibonacci.Level100)/2) > 1e-9 {
		t.Fatalf("expected 50%% level midway, got %+v", res.Fibonacci)
	}
	// The rising triangle wave jumps more than its candle range on every
	// up-leg, so the window must expose untraded voids.
	if len(res.Voids.Bullish) == 0 {
		t.Fatalf("expected bullish liquidity voids in the read-model")
	}
	waitFor(t, "sink delivery", func() bool { return sink.count() == 1 })
	waitFor(t, "store persistence", func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.signals) == 1
	})
	if metrics.get("signal") != 1 {
		t.Fatalf("expected one recorded signal, got %d", metrics.get("signal"))
	}
}

func TestAnalyzerDebouncesRepeatSignals(t *testing.T) {
	source := &stubCandleSource{candles: trendingCandles(120, 0.2)}
	pred := &stubPredictor{pred: models.Prediction{Signal: models.SideBuy, Confidence: 80, Source: "stub"}}
	metrics := newCountingMetrics()
	sink := &recordingSink{}
	a := newTestAnalyzer(t, source, pred, metrics, WithAlertSink(sink))

	first, err := a.Analyze(context.Background(), "BTCUSDT", domrepo.TF15m, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Analyze(context.Background(), "BTCUSDT", domrepo.TF15m, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Signal != first.Signal {
		t.Fatalf("expected the locked signal to be returned again")
	}
	waitFor(t, "sink delivery", func() bool { return sink.count() == 1 })
	time.Sleep(50 * time.Millisecond)
	if sink.count() != 1 {
		t.Fatalf("repeat signal must not re-dispatch, got %d deliveries", sink.count())
	}
	if metrics.get("signal") != 1 {
		t.Fatalf("expected one recorded signal, got %d", metrics.get("signal"))
	}
}

func TestAnalyzerPredictionFailureDegradesToNeutral(t *testing.T) {
	source := &stubCandleSource{candles: trendingCandles(120, 0.2)}
	pred := &stubPredictor{err: errors.New("model offline")}
	metrics := newCountingMetrics()
	a := newTestAnalyzer(t, source, pred, metrics)

	res, err := a.Analyze(context.Background(), "BTCUSDT", domrepo.TF15m, 120)
	if err != nil {
		t.Fatalf("prediction failure must not fail analysis: %v", err)
	}
	if res.Prediction.Signal != models.SideNeutral || res.Prediction.Source != "none" {
		t.Fatalf("expected neutral fallback, got %+v", res.Prediction)
	}
	if res.Signal != nil {
		t.Fatalf("neutral prediction must not generate a signal")
	}
	if metrics.get("error:prediction") != 1 {
		t.Fatalf("expected prediction error recorded")
	}
}

func TestAnalyzerRejectsShortSeries(t *testing.T) {
	source := &stubCandleSource{candles: trendingCandles(10, 0.2)}
	pred := &stubPredictor{pred: models.Prediction{Signal: models.SideBuy, Confidence: 80}}
	a := newTestAnalyzer(t, source, pred, newCountingMetrics())

	if _, err := a.Analyze(context.Background(), "BTCUSDT", domrepo.TF15m, 10); err == nil {
		t.Fatalf("expected error on short series")
	}
	if _, err := a.Analyze(context.Background(), "", domrepo.TF15m, 10); err == nil {
		t.Fatalf("expected error on empty symbol")
	}
}

func TestAnalyzerBacktestPersistsTrades(t *testing.T) {
	source := &stubCandleSource{candles: trendingCandles(200, 0.2)}
	pred := &stubPredictor{pred: models.Prediction{Signal: models.SideBuy, Confidence: 80}}
	metrics := newCountingMetrics()
	store := &recordingStore{}
	a := newTestAnalyzer(t, source, pred, metrics, WithSignalStore(store))

	ledger, err := a.Backtest(context.Background(), "BTCUSDT", domrepo.TF15m, 200, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.TotalTrades == 0 {
		t.Fatalf("expected trades")
	}
	if store.tradeCount() != ledger.TotalTrades {
		t.Fatalf("expected %d persisted trades, got %d", ledger.TotalTrades, store.tradeCount())
	}
	if metrics.get("trade") != ledger.TotalTrades {
		t.Fatalf("expected %d trade metrics, got %d", ledger.TotalTrades, metrics.get("trade"))
	}
}
