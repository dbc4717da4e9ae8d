package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	svccache "TradePulse/internal/service/cache"
	"TradePulse/internal/services/indicators"
	"TradePulse/internal/services/prediction"
	"TradePulse/internal/services/smartmoney"
	"TradePulse/internal/services/structure"
	pkgcache "TradePulse/pkg/cache"
	applogger "TradePulse/pkg/logger"
)

const (
	defaultAnalysisCandles = 200
	htfCandles             = 120
	minAnalysisCandles     = 30
	dispatchTimeout        = 5 * time.Second
)

// Analyzer is the live/API signal path: fetch candles, obtain a directional
// prediction, apply the higher-timeframe filter, and generate a signal.
// Emitted signals are dispatched to the alert sink and the store without
// blocking the caller.
type Analyzer struct {
	source  domrepo.CandleSource
	pred    domsvc.PredictionSource
	gen     *Generator
	bt      *Backtester
	deb     *Debouncer
	sink    domrepo.AlertSink   // optional
	store   domrepo.SignalStore // optional
	metrics domrepo.Metrics
	l       *applogger.Logger

	pages    pkgcache.Service // optional candle-page cache
	pagesTTL time.Duration

	htfCache *svccache.TTLCache
	htfTTL   time.Duration

	mu   sync.Mutex
	last map[string]*models.Signal // symbol|tf -> last emitted signal
}

// AnalyzerOption configures optional collaborators.
type AnalyzerOption func(*Analyzer)

// WithAlertSink attaches a delivery sink for emitted signals.
func WithAlertSink(s domrepo.AlertSink) AnalyzerOption {
	return func(a *Analyzer) { a.sink = s }
}

// WithSignalStore attaches persistence for signals and backtest trades.
func WithSignalStore(s domrepo.SignalStore) AnalyzerOption {
	return func(a *Analyzer) { a.store = s }
}

// WithCandleCache caches fetched candle pages keyed by symbol/timeframe.
func WithCandleCache(c pkgcache.Service, ttl time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		a.pages = c
		a.pagesTTL = ttl
	}
}

// WithHTFTTL overrides how long a higher-timeframe trend read is reused.
func WithHTFTTL(ttl time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if ttl > 0 {
			a.htfTTL = ttl
		}
	}
}

func NewAnalyzer(
	source domrepo.CandleSource,
	pred domsvc.PredictionSource,
	gen *Generator,
	bt *Backtester,
	deb *Debouncer,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts ...AnalyzerOption,
) *Analyzer {
	a := &Analyzer{
		source:   source,
		pred:     pred,
		gen:      gen,
		bt:       bt,
		deb:      deb,
		metrics:  metrics,
		l:        l,
		htfCache: svccache.NewTTLCache(),
		htfTTL:   5 * time.Minute,
		last:     make(map[string]*models.Signal),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalysisResult is the full read-model returned by Analyze. Signal is nil
// when no setup clears the gates, which is the common case.
type AnalysisResult struct {
	Symbol     string
	Timeframe  string
	Price      float64
	Candles    int
	Prediction models.Prediction
	Trend      models.TrendFilter
	Structure  *models.MarketStructure
	Volume     models.VolumeProfile
	Fibonacci  indicators.FibLevels
	Voids      smartmoney.LiquidityVoids
	Signal     *models.Signal
}

// Analyze runs the signal path once for symbol/timeframe.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, tf domrepo.Timeframe, count int) (*AnalysisResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("analyze: symbol required")
	}
	if !domrepo.IsValidTimeframe(tf) {
		tf = domrepo.DefaultTimeframe()
	}
	if count <= 0 {
		count = defaultAnalysisCandles
	}

	candles, err := a.fetchCandles(ctx, symbol, tf, count)
	if err != nil {
		a.metrics.RecordError("fetch_candles")
		return nil, fmt.Errorf("analyze %s %s: %w", symbol, tf, err)
	}
	return a.AnalyzeSeries(ctx, symbol, tf, candles)
}

// AnalyzeSeries runs the signal path over a caller-supplied window. The
// live collector uses this directly with its rolling window.
func (a *Analyzer) AnalyzeSeries(ctx context.Context, symbol string, tf domrepo.Timeframe, candles []models.Candle) (*AnalysisResult, error) {
	start := time.Now()
	if len(candles) < minAnalysisCandles {
		return nil, fmt.Errorf("analyze %s %s: only %d candles, need %d", symbol, tf, len(candles), minAnalysisCandles)
	}
	price := candles[len(candles)-1].Close
	a.metrics.RecordLastPrice(symbol, price)

	pred, err := a.pred.Predict(ctx, symbol, candles)
	if err != nil {
		// prediction sources are advisory; fall back to neutral
		a.metrics.RecordError("prediction")
		pred = models.Prediction{Signal: models.SideNeutral, Confidence: 50, Source: "none"}
	}

	trend := a.higherTimeframeTrend(ctx, symbol, tf)

	res := &AnalysisResult{
		Symbol:     symbol,
		Timeframe:  string(tf),
		Price:      price,
		Candles:    len(candles),
		Prediction: pred,
		Trend:      trend,
		Structure:  structure.Analyze(candles, structure.ParamsForTimeframe(tf)),
		Volume:     indicators.Profile(candles),
		Voids:      smartmoney.FindLiquidityVoids(candles),
	}
	if fib, ok := indicators.Fibonacci(candles); ok {
		res.Fibonacci = fib
	}

	candidate := a.gen.Generate(symbol, string(tf), candles, &pred, &trend)
	res.Signal = a.emit(ctx, symbol, tf, candidate)

	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	return res, nil
}

// emit debounces the candidate against the previous signal and dispatches
// a newly accepted one.
func (a *Analyzer) emit(ctx context.Context, symbol string, tf domrepo.Timeframe, candidate *models.Signal) *models.Signal {
	key := symbol + "|" + string(tf)
	a.mu.Lock()
	prev := a.last[key]
	kept := a.deb.Keep(prev, candidate)
	fresh := kept != nil && kept != prev
	a.last[key] = kept
	a.mu.Unlock()

	if !fresh {
		return kept
	}
	a.metrics.RecordSignal(symbol, string(kept.Type))
	a.dispatch(kept)
	return kept
}

// dispatch delivers a signal to the sink and the store off the hot path.
// Failures are logged and counted; they never affect the caller.
func (a *Analyzer) dispatch(sig *models.Signal) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if a.sink != nil {
			if err := a.sink.Notify(ctx, sig); err != nil {
				a.metrics.RecordError("alert_notify")
				a.l.Warn("alert delivery failed",
					applogger.String("symbol", sig.Symbol),
					applogger.Error(err),
				)
			}
		}
		if a.store != nil {
			if err := a.store.StoreSignal(ctx, sig); err != nil {
				a.metrics.RecordError("store_signal")
				a.l.Warn("signal persistence failed",
					applogger.String("symbol", sig.Symbol),
					applogger.Error(err),
				)
			}
		}
	}()
}

// Backtest fetches history and replays the strategy over it. Trades are
// persisted best-effort after the run completes.
func (a *Analyzer) Backtest(ctx context.Context, symbol string, tf domrepo.Timeframe, count int, p Params) (*models.Ledger, error) {
	if symbol == "" {
		return nil, fmt.Errorf("backtest: symbol required")
	}
	if !domrepo.IsValidTimeframe(tf) {
		tf = domrepo.DefaultTimeframe()
	}
	if count <= 0 {
		count = 500
	}

	candles, err := a.fetchCandles(ctx, symbol, tf, count)
	if err != nil {
		a.metrics.RecordError("fetch_candles")
		return nil, fmt.Errorf("backtest %s %s: %w", symbol, tf, err)
	}

	ledger, err := a.bt.Run(ctx, symbol, string(tf), candles, p)
	if err != nil {
		return nil, err
	}
	for _, t := range ledger.Trades {
		a.metrics.RecordTrade(symbol, string(t.ExitReason))
	}

	if a.store != nil && len(ledger.Trades) > 0 {
		sctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := a.store.StoreTrades(sctx, symbol, tf, ledger.Trades); err != nil {
			a.metrics.RecordError("store_trades")
			a.l.Warn("trade persistence failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}
	return ledger, nil
}

// fetchCandles reads through the page cache when one is configured.
func (a *Analyzer) fetchCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, count int) ([]models.Candle, error) {
	if a.pages == nil {
		return a.source.Candles(ctx, symbol, tf, count)
	}
	key := fmt.Sprintf("candles:%s:%s:%d", symbol, tf, count)
	var cached []models.Candle
	if err := a.pages.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}
	candles, err := a.source.Candles(ctx, symbol, tf, count)
	if err != nil {
		return nil, err
	}
	if err := a.pages.Set(ctx, key, candles, a.pagesTTL); err != nil {
		a.metrics.RecordError("candle_cache_set")
	}
	return candles, nil
}

// higherTimeframeTrend computes (and caches) the HTF trend filter used to
// veto or boost candidates. A missing or failed read degrades to a neutral
// filter rather than blocking the signal path.
func (a *Analyzer) higherTimeframeTrend(ctx context.Context, symbol string, tf domrepo.Timeframe) models.TrendFilter {
	htf := domrepo.HigherTimeframe(tf)
	if htf == tf {
		return models.TrendFilter{}
	}
	key := symbol + "|" + string(htf)
	if v, ok := a.htfCache.Get(key); ok {
		if t, ok2 := v.(models.TrendFilter); ok2 {
			return t
		}
	}
	candles, err := a.fetchCandles(ctx, symbol, htf, htfCandles)
	if err != nil || len(candles) < minAnalysisCandles {
		a.metrics.RecordError("htf_fetch")
		return models.TrendFilter{}
	}
	_, trend := prediction.WindowPrediction(candles)
	a.htfCache.Set(key, trend, a.htfTTL)
	return trend
}
