package models

import "time"

// Side is the direction of a prediction or signal.
type Side string

const (
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
	SideNeutral Side = "NEUTRAL"
)

// Prediction is a directional call supplied by an external source (or the
// local fallback). Confidence is a percentage in [0,100].
type Prediction struct {
	Signal     Side
	Confidence float64
	Source     string
}

// TrendFilter carries the higher-timeframe trend used to veto or boost a
// candidate signal. Confidence is in [0,1].
type TrendFilter struct {
	Bullish    bool
	Confidence float64
}

// Target is one take-profit level with its risk:reward ratio and the
// position fraction allocated to it.
type Target struct {
	Price             float64
	RiskReward        float64
	AllocationPercent float64
}

// Signal is a fully specified trade setup. Immutable once emitted.
type Signal struct {
	Symbol      string
	Timeframe   string
	Timestamp   time.Time
	Type        Side
	Strength    int // 0..100
	Entry       float64
	StopLoss    float64
	Targets     []Target
	RiskAmount  float64 // entry-to-stop distance in price units
	RiskPercent float64
	BestRR      float64
	Confluence  int
	ATR         float64
	Support     float64
	Resistance  float64
}

// MarketPhase classifies the swing structure of a window.
type MarketPhase string

const (
	PhaseUptrend   MarketPhase = "UPTREND"
	PhaseDowntrend MarketPhase = "DOWNTREND"
	PhaseRanging   MarketPhase = "RANGING"
)

// KeyLevel buckets the normalized price position between support and
// resistance.
type KeyLevel string

const (
	LevelSupport        KeyLevel = "SUPPORT"
	LevelNearSupport    KeyLevel = "NEAR_SUPPORT"
	LevelMiddle         KeyLevel = "MIDDLE"
	LevelNearResistance KeyLevel = "NEAR_RESISTANCE"
	LevelResistance     KeyLevel = "RESISTANCE"
)

// MarketStructure is the swing/trend summary of a candle window.
type MarketStructure struct {
	Phase          MarketPhase
	Momentum       float64
	TrendStrength  float64
	Resistance     float64
	Support        float64
	SwingHighCount int
	SwingLowCount  int
	PricePosition  float64 // 0..1 between support and resistance
	KeyLevel       KeyLevel
}
