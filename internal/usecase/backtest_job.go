package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domrepo "TradePulse/internal/domain/repository"
	icache "TradePulse/internal/service/cache"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/queue"
)

// BacktestJobType is the queue message type for async backtests.
const BacktestJobType = "backtest"

const backtestResultTTL = time.Hour

// BacktestResultKey is the cache key holding the outcome of job id.
func BacktestResultKey(id string) string {
	return "backtest:result:" + id
}

// BacktestJobPayload is the queued request.
type BacktestJobPayload struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	TF        string `json:"tf"`
	Days      int    `json:"days"`
	Window    int    `json:"window"`
	Lookahead int    `json:"lookahead"`
	Skip      int    `json:"skip"`
}

// BacktestJob executes queued backtests and publishes the ledger (or the
// failure) into the result cache for the jobs endpoint to read.
type BacktestJob struct {
	analyzer *Analyzer
	results  icache.BytesCache
	l        *applogger.Logger
	maxLen   int
}

func NewBacktestJob(analyzer *Analyzer, results icache.BytesCache, l *applogger.Logger, maxLen int) *BacktestJob {
	if maxLen <= 0 {
		maxLen = 5000
	}
	return &BacktestJob{analyzer: analyzer, results: results, l: l, maxLen: maxLen}
}

var _ queue.Job = (*BacktestJob)(nil)

func (j *BacktestJob) Name() string { return "backtest_runner" }
func (j *BacktestJob) Type() string { return BacktestJobType }

func (j *BacktestJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[BacktestJobPayload](payload)
	if err != nil {
		return fmt.Errorf("backtest job payload: %w", err)
	}
	j.setStatus(p.ID, map[string]interface{}{"status": "running"})

	tf := domrepo.NormalizeTimeframe(p.TF)
	count := p.Days * domrepo.CandlesPerDay(tf)
	if count > j.maxLen {
		count = j.maxLen
	}

	ledger, err := j.analyzer.Backtest(ctx, p.Symbol, tf, count, Params{
		WindowSize:   p.Window,
		Lookahead:    p.Lookahead,
		SkipOnSignal: p.Skip,
	})
	if err != nil {
		j.l.Warn("backtest job failed",
			applogger.String("job_id", p.ID),
			applogger.String("symbol", p.Symbol),
			applogger.Error(err),
		)
		j.setStatus(p.ID, map[string]interface{}{"status": "failed", "error": err.Error()})
		return err
	}

	j.setStatus(p.ID, map[string]interface{}{"status": "done", "ledger": ledger})
	j.l.Info("backtest job done",
		applogger.String("job_id", p.ID),
		applogger.String("symbol", p.Symbol),
		applogger.Int("trades", ledger.TotalTrades),
	)
	return nil
}

func (j *BacktestJob) setStatus(id string, v map[string]interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := j.results.SetBytes(BacktestResultKey(id), b, backtestResultTTL); err != nil {
		j.l.Warn("backtest job status write failed",
			applogger.String("job_id", id),
			applogger.Error(err),
		)
	}
}
