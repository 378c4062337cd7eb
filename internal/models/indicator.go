package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Indicator type constants
const (
	IndicatorRSI14  = "RSI_14"
	IndicatorRSIMA6 = "RSI_MA_6"
	IndicatorSMA20  = "SMA_20"
	IndicatorSMA60  = "SMA_60"
	IndicatorMom20  = "MOM_20"
)

// TechnicalIndicator represents a computed indicator value for one stock and date
type TechnicalIndicator struct {
	ID            int             `json:"id"`
	TsCode        string          `json:"ts_code"`
	TradeDate     time.Time       `json:"trade_date"`
	IndicatorType string          `json:"indicator_type"`
	Value         decimal.Decimal `json:"value"`
	CreatedAt     time.Time       `json:"created_at"`
}
