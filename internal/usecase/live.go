package usecase

import (
	"context"
	"fmt"
	"sync"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	applogger "TradePulse/pkg/logger"
)

// LiveAnalyzer keeps a rolling candle window per symbol and re-runs the
// signal path whenever a closed bar arrives. It is the downstream of the
// live pipeline.
type LiveAnalyzer struct {
	analyzer   *Analyzer
	tf         domrepo.Timeframe
	windowSize int

	mu      sync.Mutex
	windows map[string][]models.Candle
}

func NewLiveAnalyzer(analyzer *Analyzer, tf domrepo.Timeframe, windowSize int) *LiveAnalyzer {
	if windowSize < minAnalysisCandles {
		windowSize = defaultAnalysisCandles
	}
	return &LiveAnalyzer{
		analyzer:   analyzer,
		tf:         tf,
		windowSize: windowSize,
		windows:    make(map[string][]models.Candle),
	}
}

// Seed installs history fetched at startup so the first live bar already
// has a full window behind it.
func (r *LiveAnalyzer) Seed(symbol string, candles []models.Candle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := append([]models.Candle(nil), candles...)
	if len(w) > r.windowSize {
		w = w[len(w)-r.windowSize:]
	}
	r.windows[symbol] = w
}

// ProcessCandle appends a closed bar to the symbol's window and analyzes.
func (r *LiveAnalyzer) ProcessCandle(ctx context.Context, symbol string, c models.Candle) error {
	r.mu.Lock()
	w := append(r.windows[symbol], c)
	if len(w) > r.windowSize {
		w = w[len(w)-r.windowSize:]
	}
	r.windows[symbol] = w
	snapshot := append([]models.Candle(nil), w...)
	r.mu.Unlock()

	if len(snapshot) < minAnalysisCandles {
		return nil
	}
	_, err := r.analyzer.AnalyzeSeries(ctx, symbol, r.tf, snapshot)
	return err
}

// CandlePipe is the validation/buffering stage between a stream and the
// live analyzer.
type CandlePipe interface {
	ProcessCandle(ctx context.Context, symbol string, c models.Candle) error
	Start(ctx context.Context)
	Stop()
}

// StreamFactory builds a candle stream for one symbol.
type StreamFactory func(symbol string) domrepo.CandleStream

// LiveCollector owns one kline stream per configured symbol and feeds
// closed candles through the pipeline into the live analyzer.
type LiveCollector struct {
	symbols []string
	factory StreamFactory
	source  domrepo.CandleSource
	live    *LiveAnalyzer
	pipe    CandlePipe
	metrics domrepo.Metrics
	l       *applogger.Logger

	mu      sync.Mutex
	streams map[string]domrepo.CandleStream
}

func NewLiveCollector(
	symbols []string,
	factory StreamFactory,
	source domrepo.CandleSource,
	live *LiveAnalyzer,
	pipe CandlePipe,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *LiveCollector {
	return &LiveCollector{
		symbols: symbols,
		factory: factory,
		source:  source,
		live:    live,
		pipe:    pipe,
		metrics: metrics,
		l:       l,
		streams: make(map[string]domrepo.CandleStream),
	}
}

// Start seeds windows from history and launches one consumer per symbol.
func (c *LiveCollector) Start(ctx context.Context) error {
	if len(c.symbols) == 0 {
		return fmt.Errorf("live collector: no symbols configured")
	}
	c.pipe.Start(ctx)
	for _, sym := range c.symbols {
		history, err := c.source.Candles(ctx, sym, c.live.tf, c.live.windowSize)
		if err != nil {
			return fmt.Errorf("seed %s: %w", sym, err)
		}
		c.live.Seed(sym, history)

		stream := c.factory(sym)
		if err := stream.Connect(ctx); err != nil {
			return fmt.Errorf("connect %s: %w", sym, err)
		}
		c.mu.Lock()
		c.streams[sym] = stream
		c.mu.Unlock()
		go c.consume(ctx, sym, stream)
		c.l.Info("live stream started",
			applogger.String("symbol", sym),
			applogger.String("tf", string(c.live.tf)),
			applogger.Int("window", c.live.windowSize),
		)
	}
	return nil
}

func (c *LiveCollector) consume(ctx context.Context, symbol string, stream domrepo.CandleStream) {
	for {
		candles, errs := stream.Read(ctx)
	inner:
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					break inner
				}
				if err != nil {
					c.metrics.RecordError("stream")
					c.l.Warn("stream error, reconnecting",
						applogger.String("symbol", symbol),
						applogger.Error(err),
					)
					break inner
				}
			case candle, ok := <-candles:
				if !ok {
					break inner
				}
				if err := c.pipe.ProcessCandle(ctx, symbol, candle); err != nil {
					c.l.Warn("candle processing failed",
						applogger.String("symbol", symbol),
						applogger.Error(err),
					)
				}
			}
		}
		if ctx.Err() != nil {
			return
		}
		if err := stream.Reconnect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.metrics.RecordError("stream_reconnect")
		}
	}
}

// IsConnected reports whether every stream is currently connected.
func (c *LiveCollector) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.streams) == 0 {
		return false
	}
	for _, s := range c.streams {
		if !s.IsConnected() {
			return false
		}
	}
	return true
}

// Shutdown stops the pipeline and closes all streams.
func (c *LiveCollector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	for sym, s := range c.streams {
		if err := s.Close(); err != nil && first == nil {
			first = fmt.Errorf("close stream %s: %w", sym, err)
		}
	}
	return first
}
