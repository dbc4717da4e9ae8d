package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"TradePulse/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Binance struct {
		BaseURL        string        `yaml:"base_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		MaxPerCall     int           `yaml:"max_per_call"`
		RateLimitDelay time.Duration `yaml:"rate_limit_delay"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	} `yaml:"binance"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Backtest BacktestConfig `yaml:"backtest"`
	Live     struct {
		Enabled    bool          `yaml:"enabled"`
		Timeframe  string        `yaml:"timeframe"`
		WindowSize int           `yaml:"window_size"`
		Interval   time.Duration `yaml:"interval"`
	} `yaml:"live"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"redis"`
	Prediction struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"prediction"`
}

// ConfluenceWeights is the scoring policy table: each detector contributes
// its weight when its condition holds. Tunable policy, not hard physics.
type ConfluenceWeights struct {
	DeltaWeak        int `yaml:"delta_weak"`
	DeltaMedium      int `yaml:"delta_medium"`
	DeltaStrong      int `yaml:"delta_strong"`
	OrderBlock       int `yaml:"order_block"`
	BreakerBlock     int `yaml:"breaker_block"`
	FairValueGap     int `yaml:"fair_value_gap"`
	LiquiditySweep   int `yaml:"liquidity_sweep"`
	Displacement     int `yaml:"displacement"`
	PO3Distribution  int `yaml:"po3_distribution"`
	AMDDistribution  int `yaml:"amd_distribution"`
	BreakOfStructure int `yaml:"break_of_structure"`
	KeyLevelRetest   int `yaml:"key_level_retest"`
}

// AnalysisConfig tunes signal generation.
type AnalysisConfig struct {
	MinStrength        float64           `yaml:"min_strength"`
	MinConfluence      int               `yaml:"min_confluence"`
	MinRiskReward      float64           `yaml:"min_risk_reward"`
	TrendVetoConf      float64           `yaml:"trend_veto_confidence"`
	TrendBoostConf     float64           `yaml:"trend_boost_confidence"`
	TrendBoost         float64           `yaml:"trend_boost"`
	StopATROrderBlock  float64           `yaml:"stop_atr_order_block"`
	StopATRSwing       float64           `yaml:"stop_atr_swing"`
	TargetATRMultiples []float64         `yaml:"target_atr_multiples"`
	TargetAllocations  []float64         `yaml:"target_allocations"`
	Weights            ConfluenceWeights `yaml:"weights"`
	DebounceEntryDrift float64           `yaml:"debounce_entry_drift"`
}

// BacktestConfig tunes the runner and simulator.
type BacktestConfig struct {
	WindowSize       int     `yaml:"window_size"`
	Lookahead        int     `yaml:"lookahead"`
	SkipOnSignal     int     `yaml:"skip_on_signal"`
	StartingBalance  float64 `yaml:"starting_balance"`
	RiskPolicy       string  `yaml:"risk_policy"` // "fixed" or "percent"
	RiskAmount       float64 `yaml:"risk_amount"`
	RiskPercent      float64 `yaml:"risk_percent"`
	RiskCapMultiple  float64 `yaml:"risk_cap_multiple"`
	TrailingActivate float64 `yaml:"trailing_activate_r"`
	TrailingLock     float64 `yaml:"trailing_lock_fraction"`
	SlippageBps      float64 `yaml:"slippage_bps"`
	FeeBps           float64 `yaml:"fee_bps"`
}

// DefaultWeights is the shipped confluence policy table.
func DefaultWeights() ConfluenceWeights {
	return ConfluenceWeights{
		DeltaWeak:        1,
		DeltaMedium:      2,
		DeltaStrong:      3,
		OrderBlock:       4,
		BreakerBlock:     5,
		FairValueGap:     3,
		LiquiditySweep:   4,
		Displacement:     3,
		PO3Distribution:  4,
		AMDDistribution:  3,
		BreakOfStructure: 2,
		KeyLevelRetest:   3,
	}
}

// DefaultAnalysis returns the shipped signal-generation policy.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		MinStrength:        55,
		MinConfluence:      8,
		MinRiskReward:      1.5,
		TrendVetoConf:      0.75,
		TrendBoostConf:     0.65,
		TrendBoost:         15,
		StopATROrderBlock:  0.3,
		StopATRSwing:       0.5,
		TargetATRMultiples: []float64{2.5, 4.5, 7.0},
		TargetAllocations:  []float64{40, 30, 30},
		Weights:            DefaultWeights(),
		DebounceEntryDrift: 0.005,
	}
}

// DefaultBacktest returns the shipped backtest policy.
func DefaultBacktest() BacktestConfig {
	return BacktestConfig{
		WindowSize:       50,
		Lookahead:        10,
		SkipOnSignal:     5,
		StartingBalance:  500,
		RiskPolicy:       "fixed",
		RiskAmount:       100,
		RiskPercent:      0.02,
		RiskCapMultiple:  10,
		TrailingActivate: 1.0,
		TrailingLock:     0.50,
		SlippageBps:      5,
		FeeBps:           10,
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := &Config{}
	c.Analysis = DefaultAnalysis()
	c.Backtest = DefaultBacktest()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		c.Binance.BaseURL = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Binance.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	c.Server.Port = util.ParseIntDefault(os.Getenv("SERVER_PORT"), c.Server.Port)
	c.Binance.MaxPerCall = util.ParseIntDefault(os.Getenv("BINANCE_MAX_PER_CALL"), c.Binance.MaxPerCall)

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Binance.BaseURL == "" {
		return fmt.Errorf("binance.base_url is required")
	}
	if len(c.Binance.Symbols) == 0 {
		return fmt.Errorf("binance.symbols cannot be empty")
	}
	if c.Binance.MaxPerCall <= 0 {
		return fmt.Errorf("binance.max_per_call must be positive")
	}
	if c.Analysis.MinConfluence <= 0 {
		return fmt.Errorf("analysis.min_confluence must be positive")
	}
	if len(c.Analysis.TargetATRMultiples) != len(c.Analysis.TargetAllocations) {
		return fmt.Errorf("analysis.target_atr_multiples and target_allocations length mismatch")
	}
	if c.Backtest.RiskPolicy != "fixed" && c.Backtest.RiskPolicy != "percent" {
		return fmt.Errorf("backtest.risk_policy must be 'fixed' or 'percent', got '%s'", c.Backtest.RiskPolicy)
	}
	if c.Backtest.TrailingLock < 0 || c.Backtest.TrailingLock > 1 {
		return fmt.Errorf("backtest.trailing_lock_fraction must be in [0,1]")
	}
	if c.Backtest.Lookahead < 1 {
		return fmt.Errorf("backtest.lookahead must be at least 1")
	}
	return nil
}
