package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal statuses produced by the RSI screen
const (
	SignalStatusOversold   = "OVERSOLD"
	SignalStatusOverbought = "OVERBOUGHT"
	SignalStatusNeutral    = "NEUTRAL"
)

// Signal represents one stock's result from a strategy scan
type Signal struct {
	ID        int             `json:"id"`
	Strategy  string          `json:"strategy"`
	TsCode    string          `json:"ts_code"`
	TradeDate time.Time       `json:"trade_date"`
	Score     decimal.Decimal `json:"score"`
	Status    string          `json:"status,omitempty"`
	Rank      int             `json:"rank"`
	Details   string          `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
