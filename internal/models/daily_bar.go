package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyBar represents one stock's daily trading record in the daily_data table.
// Vol is in lots (100 shares) and Amount in thousands of yuan, matching the
// upstream provider's units.
type DailyBar struct {
	ID        int             `json:"id"`
	TsCode    string          `json:"ts_code"`
	TradeDate time.Time       `json:"trade_date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	PreClose  decimal.Decimal `json:"pre_close"`
	Change    decimal.Decimal `json:"change"`
	PctChg    decimal.Decimal `json:"pct_chg"`
	Vol       decimal.Decimal `json:"vol"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MonthlyBar represents one stock's month-end trading record
type MonthlyBar struct {
	ID        int             `json:"id"`
	TsCode    string          `json:"ts_code"`
	TradeDate time.Time       `json:"trade_date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	PreClose  decimal.Decimal `json:"pre_close"`
	Change    decimal.Decimal `json:"change"`
	PctChg    decimal.Decimal `json:"pct_chg"`
	Vol       decimal.Decimal `json:"vol"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// IndexDailyBar represents one index's daily record in the index_daily table
type IndexDailyBar struct {
	ID        int             `json:"id"`
	TsCode    string          `json:"ts_code"`
	TradeDate time.Time       `json:"trade_date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	PreClose  decimal.Decimal `json:"pre_close"`
	Change    decimal.Decimal `json:"change"`
	PctChg    decimal.Decimal `json:"pct_chg"`
	Vol       decimal.Decimal `json:"vol"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// ClosePrice is the minimal projection used by indicator computations
type ClosePrice struct {
	TradeDate time.Time       `json:"trade_date"`
	Close     decimal.Decimal `json:"close"`
}

// TradeDateLayout is the YYYYMMDD date format the provider uses
const TradeDateLayout = "20060102"

// ParseTradeDate parses a provider-format YYYYMMDD date
func ParseTradeDate(s string) (time.Time, error) {
	return time.Parse(TradeDateLayout, s)
}
