package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	models "TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	icache "TradePulse/internal/service/cache"
	"TradePulse/internal/service/metrics"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/internal/usecase"
	xhttp "TradePulse/pkg/http"
	"TradePulse/pkg/queue"

	"github.com/labstack/echo/v4"
)

const (
	signalCacheTTL = 15 * time.Second
	jobResultTTL   = time.Hour
	maxBacktestLen = 5000
)

// SignalsHandler exposes the analysis and backtest endpoints.
type SignalsHandler struct {
	analyzer *usecase.Analyzer
	rl       *ratelimit.Limiter
	cache    icache.BytesCache    // short-lived response cache + job results
	jobs     queue.QueueService   // optional async backtest queue
	healthFn func() (bool, error) // optional liveness probe for /healthz
}

func NewSignalsHandler(analyzer *usecase.Analyzer) *SignalsHandler {
	metrics.Register()
	return &SignalsHandler{analyzer: analyzer, rl: ratelimit.New()}
}

// SetCache injects a byte cache for responses and job results.
func (h *SignalsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetQueue enables the async backtest endpoints.
func (h *SignalsHandler) SetQueue(q queue.QueueService) { h.jobs = q }

// SetHealthCheck wires the liveness probe.
func (h *SignalsHandler) SetHealthCheck(fn func() (bool, error)) { h.healthFn = fn }

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signal", h.Signal)
	g.POST("/backtest", h.Backtest)
	g.POST("/backtest/jobs", h.EnqueueBacktest)
	g.GET("/backtest/jobs/:id", h.BacktestJobResult)
	e.GET("/healthz", h.Health)
}

// Signal runs the analysis path once and returns the read-model, signal
// included when one cleared the gates.
func (h *SignalsHandler) Signal(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("signal").Observe(time.Since(start).Seconds()) }()

	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":signal", 5, 2) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	cacheKey := "signal:" + req.Symbol + ":" + string(tf)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err == nil && ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	res, err := h.analyzer.Analyze(c.Request().Context(), req.Symbol, tf, req.Limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues("signal").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, signalCacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// Backtest runs a backtest synchronously and returns the ledger.
func (h *SignalsHandler) Backtest(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("backtest").Observe(time.Since(start).Seconds()) }()

	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":backtest", 2, 0.5) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	ledger, err := h.analyzer.Backtest(c.Request().Context(), req.Symbol, tf, backtestLength(req, tf), usecase.Params{
		WindowSize:   req.Window,
		Lookahead:    req.Lookahead,
		SkipOnSignal: req.Skip,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("backtest").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, ledger)
}

// EnqueueBacktest queues a backtest for background execution and returns
// the job id immediately.
func (h *SignalsHandler) EnqueueBacktest(c echo.Context) error {
	if h.jobs == nil || h.cache == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "job queue not configured")
	}
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	id := fmt.Sprintf("%s-%s-%d", req.Symbol, req.TF, time.Now().UnixNano())
	payload := usecase.BacktestJobPayload{
		ID:        id,
		Symbol:    req.Symbol,
		TF:        req.TF,
		Days:      req.Days,
		Window:    req.Window,
		Lookahead: req.Lookahead,
		Skip:      req.Skip,
	}
	if err := h.jobs.PublishMessage(c.Request().Context(), usecase.BacktestJobType, payload); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	status, _ := json.Marshal(map[string]string{"status": "queued"})
	_ = h.cache.SetBytes(usecase.BacktestResultKey(id), status, jobResultTTL)
	return xhttp.CreatedResponse(c, map[string]string{"job_id": id})
}

// BacktestJobResult returns the stored outcome of an async backtest.
func (h *SignalsHandler) BacktestJobResult(c echo.Context) error {
	if h.cache == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "job queue not configured")
	}
	id := c.Param("id")
	b, ok, err := h.cache.GetBytes(usecase.BacktestResultKey(id))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if !ok {
		return xhttp.NotFoundResponse(c, map[string]string{"job_id": id})
	}
	return c.JSONBlob(http.StatusOK, b)
}

// Health reports process liveness plus collaborator status when wired.
func (h *SignalsHandler) Health(c echo.Context) error {
	if h.healthFn == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
	ok, err := h.healthFn()
	if !ok {
		msg := "degraded"
		if err != nil {
			msg = err.Error()
		}
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": msg})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// backtestLength converts a day span into a candle count, capped so a
// single request cannot demand unbounded upstream pagination.
func backtestLength(req *models.BacktestRequest, tf domrepo.Timeframe) int {
	n := req.Days * domrepo.CandlesPerDay(tf)
	if n > maxBacktestLen {
		n = maxBacktestLen
	}
	return n
}
