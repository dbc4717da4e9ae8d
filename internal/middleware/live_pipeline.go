package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/util"
)

// Proc is the minimal downstream interface the pipeline needs.
type Proc interface {
	ProcessCandle(ctx context.Context, symbol string, c models.Candle) error
}

// LivePipeline sits between the kline WebSocket and the analyzer. It
// validates candles, drops per-symbol duplicates, and buffers when the
// downstream is unavailable.
type LivePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	bufSize int
	barStep time.Duration // expected open-time grid, 0 disables the check
	bufCh   chan queued
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	lastBar map[string]int64 // per-symbol open time of last accepted candle
}

type queued struct {
	symbol string
	candle models.Candle
}

type PipelineOption func(*LivePipeline)

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *LivePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBarStep enables open-time grid validation: candles whose open time
// does not sit on a step boundary are rejected.
func WithBarStep(step time.Duration) PipelineOption {
	return func(p *LivePipeline) {
		p.barStep = step
	}
}

// NewLivePipeline creates a new pipeline.
func NewLivePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *LivePipeline {
	p := &LivePipeline{
		proc:    proc,
		metrics: metrics,
		bufSize: 256,
		stopCh:  make(chan struct{}),
		lastBar: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan queued, p.bufSize)
	return p
}

// Start launches background flushing of buffered candles.
func (p *LivePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case q := <-p.bufCh:
				if err := p.proc.ProcessCandle(ctx, q.symbol, q.candle); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- q:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *LivePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// ProcessCandle validates and forwards a closed candle downstream,
// buffering on errors. Replays of an already-seen bar are dropped.
func (p *LivePipeline) ProcessCandle(ctx context.Context, symbol string, c models.Candle) error {
	start := time.Now()
	if err := validateCandle(symbol, c); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !util.IsAlignedMilli(c.Time, p.barStep) {
		p.metrics.RecordError("pipeline_validate")
		return fmt.Errorf("open time %d off the %s grid", c.Time, p.barStep)
	}
	if !p.accept(symbol, c.Time) {
		p.metrics.RecordError("pipeline_duplicate")
		return nil
	}

	if err := p.proc.ProcessCandle(ctx, symbol, c); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- queued{symbol: symbol, candle: c}:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateCandle(symbol string, c models.Candle) error {
	if symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if c.Time <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("candle field invalid")
		}
	}
	if c.High < c.Low || c.High < c.Open || c.High < c.Close || c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("ohlc bounds violated")
	}
	return nil
}

// accept tracks per-symbol bar open times so replayed frames after a
// reconnect do not re-trigger analysis.
func (p *LivePipeline) accept(symbol string, openTime int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.lastBar[symbol]; ok && openTime <= last {
		return false
	}
	p.lastBar[symbol] = openTime
	return true
}
