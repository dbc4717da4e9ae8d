package models

// Requests for the signal/backtest HTTP endpoints. Defined in domain for
// consistency and reuse.

type SignalRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"15m" validate:"oneof=1m 3m 5m 15m 30m 1h 4h"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=30,lte=1000"`
}

type BacktestRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	TF        string `query:"tf" json:"tf" default:"15m" validate:"oneof=1m 3m 5m 15m 30m 1h 4h"`
	Days      int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
	Window    int    `query:"window" json:"window" default:"50" validate:"gte=30,lte=500"`
	Lookahead int    `query:"lookahead" json:"lookahead" default:"10" validate:"gte=1,lte=100"`
	Skip      int    `query:"skip" json:"skip" default:"5" validate:"gte=0,lte=100"`
}
