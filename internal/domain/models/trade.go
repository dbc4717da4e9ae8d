package models

// ExitReason states how a simulated trade was closed.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "Stop Loss"
	ExitTrailingStop ExitReason = "Trailing Stop"
	ExitTakeProfit1  ExitReason = "TP1"
	ExitTakeProfit2  ExitReason = "TP2"
	ExitTakeProfit3  ExitReason = "TP3"
	ExitTimeout      ExitReason = "Timeout"
)

// Trade is the realized outcome of walking a Signal through future
// candles. Terminal; never mutated after creation.
type Trade struct {
	Type          Side
	Entry         float64
	Exit          float64
	StopLoss      float64 // final stop, possibly trailed
	ExitReason    ExitReason
	Profit        float64
	ProfitPercent float64
	CandlesHeld   int
	RealizedRR    float64
	EntryIndex    int // window index inside the backtest series
}

// Ledger accumulates trades and running balance for one backtest run.
// Owned exclusively by the runner; reset at the start of each run.
type Ledger struct {
	Trades          []Trade
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	TotalProfit     float64
	TotalLoss       float64
	StartingBalance float64
	CurrentBalance  float64
	PeakBalance     float64
	MaxDrawdown     float64

	// Derived once at the end of the run.
	WinRate       float64
	ProfitFactor  float64
	AverageRR     float64
	NetProfit     float64
	ReturnPercent float64
}
