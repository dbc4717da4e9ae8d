package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/handler/api"
	mid "TradePulse/internal/middleware"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/service/alert"
	"TradePulse/internal/service/binance"
	icache "TradePulse/internal/service/cache"
	"TradePulse/internal/services/prediction"
	"TradePulse/internal/usecase"
	pkgcache "TradePulse/pkg/cache"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	pkgqueue "TradePulse/pkg/queue"
	"TradePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// store is disabled in config.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSignalStore creates the ClickHouse-backed signal store.
func ProvideSignalStore(chClient *pkgch.Client, l *applogger.Logger) repository.SignalStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHSignalStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideKafkaProducer creates a Kafka producer, or nil without brokers.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAlertSink fans signals out to the log and, when configured, Kafka.
func ProvideAlertSink(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.AlertSink {
	sinks := []repository.AlertSink{alert.NewLogSink(l)}
	if producer != nil && cfg.Kafka.Topic != "" {
		sinks = append(sinks, alert.NewKafkaSink(producer, cfg.Kafka.Topic))
	}
	return alert.NewFanout(sinks...)
}

// ProvideKafkaConsumer creates the signal-archiving consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Consumer.GroupID == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaSignalsHandler archives consumed alerts into the store.
func ProvideKafkaSignalsHandler(store repository.SignalStore, m repository.Metrics, cfg *config.Config) pkgkafka.MessageHandler {
	if store == nil || cfg.Kafka.Topic == "" {
		return nil
	}
	return usecase.NewKafkaSignalsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideCandleSource creates the Binance REST candle source.
func ProvideCandleSource(cfg *config.Config) repository.CandleSource {
	return binance.NewRestSource(
		cfg.Binance.BaseURL,
		cfg.Binance.MaxPerCall,
		cfg.Binance.RateLimitDelay,
		cfg.Binance.RequestTimeout,
	)
}

// ProvideRedisCache creates the shared Redis cache, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, port := splitAddr(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("tradepulse"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvidePageCache builds the candle-page cache: memory-over-Redis when
// Redis is available, in-process memory otherwise.
func ProvidePageCache(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc != nil {
		return pkgcache.NewLayeredCache(rc)
	}
	return pkgcache.NewMemoryCache()
}

// ProvideBytesCache backs the response/job-result cache.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideGenerator creates the signal generator.
func ProvideGenerator(cfg *config.Config) *usecase.Generator {
	return usecase.NewGenerator(cfg.Analysis)
}

// ProvideSimulator creates the trade simulator.
func ProvideSimulator(cfg *config.Config) *usecase.Simulator {
	return usecase.NewSimulator(cfg.Backtest)
}

// ProvideBacktester creates the backtest runner.
func ProvideBacktester(cfg *config.Config, gen *usecase.Generator, sim *usecase.Simulator, l *applogger.Logger) *usecase.Backtester {
	return usecase.NewBacktester(cfg.Backtest, gen, sim, l)
}

// ProvideDebouncer creates the signal debouncer.
func ProvideDebouncer(cfg *config.Config) *usecase.Debouncer {
	return usecase.NewDebouncer(cfg.Analysis.DebounceEntryDrift)
}

// ProvidePredictionSource assembles the prediction ensemble: the external
// HTTP service when configured, weighted above the local fallback.
func ProvidePredictionSource(cfg *config.Config) domsvc.PredictionSource {
	sources := []prediction.WeightedSource{
		{Source: prediction.NewLocalSource(), Weight: 1.0},
	}
	if cfg.Prediction.ServiceURL != "" {
		sources = append(sources, prediction.WeightedSource{
			Source: prediction.NewHTTPSource(cfg),
			Weight: 1.3,
		})
	}
	return prediction.NewEnsemble(sources...)
}

// ProvideAnalyzer wires the live/API signal path.
func ProvideAnalyzer(
	source repository.CandleSource,
	pred domsvc.PredictionSource,
	gen *usecase.Generator,
	bt *usecase.Backtester,
	deb *usecase.Debouncer,
	m repository.Metrics,
	l *applogger.Logger,
	sink repository.AlertSink,
	store repository.SignalStore,
	pages pkgcache.Service,
	cfg *config.Config,
) *usecase.Analyzer {
	opts := []usecase.AnalyzerOption{
		usecase.WithAlertSink(sink),
		usecase.WithCandleCache(pages, cfg.Redis.CacheTTL),
	}
	if store != nil {
		opts = append(opts, usecase.WithSignalStore(store))
	}
	return usecase.NewAnalyzer(source, pred, gen, bt, deb, m, l, opts...)
}

// ProvideBacktestJob creates the async backtest worker.
func ProvideBacktestJob(analyzer *usecase.Analyzer, results icache.BytesCache, l *applogger.Logger) *usecase.BacktestJob {
	return usecase.NewBacktestJob(analyzer, results, l, 0)
}

// ProvideJobQueue creates the Redis-backed job queue, or nil without Redis.
func ProvideJobQueue(l *applogger.Logger, rc *pkgcache.RedisCache, job *usecase.BacktestJob) *pkgqueue.RedisQueue {
	if rc == nil {
		return nil
	}
	q := pkgqueue.NewRedisQueue(l, &pkgqueue.QueueConfig{
		Workers:    2,
		QueueSize:  64,
		RetryLimit: 2,
		RetryDelay: 30 * time.Second,
	}, rc.Client(), pkgqueue.ModeProducerConsumer, pkgqueue.WithKeyPrefix("tradepulse"))
	q.RegisterJob(job)
	return q
}

// ProvideLiveCollector wires streams into the analyzer when live mode is on.
func ProvideLiveCollector(
	cfg *config.Config,
	analyzer *usecase.Analyzer,
	source repository.CandleSource,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.LiveCollector {
	if !cfg.Live.Enabled {
		return nil
	}
	tf := repository.NormalizeTimeframe(cfg.Live.Timeframe)
	live := usecase.NewLiveAnalyzer(analyzer, tf, cfg.Live.WindowSize)
	step := 24 * time.Hour / time.Duration(repository.CandlesPerDay(tf))
	pipe := mid.NewLivePipeline(live, m, mid.WithBufferSize(256), mid.WithBarStep(step))
	factory := func(symbol string) repository.CandleStream {
		return binance.NewStream(cfg.Binance.WebSocketURL, symbol, tf, cfg.Binance.ReconnectDelay)
	}
	return usecase.NewLiveCollector(cfg.Binance.Symbols, factory, source, live, pipe, m, l)
}

// ProvideHTTPHandler assembles the API handler.
func ProvideHTTPHandler(
	analyzer *usecase.Analyzer,
	bytes icache.BytesCache,
	q *pkgqueue.RedisQueue,
	store repository.SignalStore,
	collector *usecase.LiveCollector,
) xhttp.Handler {
	h := api.NewSignalsHandler(analyzer)
	h.SetCache(bytes)
	if q != nil {
		h.SetQueue(q)
	}
	h.SetHealthCheck(func() (bool, error) {
		if collector != nil && !collector.IsConnected() {
			return false, fmt.Errorf("stream disconnected")
		}
		if store != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := store.Health(ctx); err != nil {
				return false, fmt.Errorf("store: %w", err)
			}
		}
		return true, nil
	})
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.LiveCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	jobQueue *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	store repository.SignalStore,
	sink repository.AlertSink,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, l, handler, collector, consumer, kh, jobQueue, chClient, store, sink)
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
