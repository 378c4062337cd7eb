package models

import "time"

// Event type constants
const (
	EventTypeBarUpsert     = "BAR_UPSERT"
	EventTypeSignalCreated = "SIGNAL_CREATED"
)

// BarEvent is the Kafka envelope for daily bar updates published by upstream
// collectors. Numeric fields are strings on the wire so producers in other
// languages don't lose precision to float encoding.
type BarEvent struct {
	EventType string       `json:"event_type"`
	Source    string       `json:"source"`
	Data      BarEventData `json:"data"`
	Timestamp time.Time    `json:"timestamp"`
}

// BarEventData carries one daily bar
type BarEventData struct {
	TsCode    string `json:"ts_code"`
	TradeDate string `json:"trade_date"` // YYYYMMDD
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	PreClose  string `json:"pre_close,omitempty"`
	Change    string `json:"change,omitempty"`
	PctChg    string `json:"pct_chg,omitempty"`
	Vol       string `json:"vol,omitempty"`
	Amount    string `json:"amount,omitempty"`
}

// SignalEvent is published after a strategy scan persists its results
type SignalEvent struct {
	EventType string    `json:"event_type"`
	Strategy  string    `json:"strategy"`
	TradeDate string    `json:"trade_date"`
	Signals   []*Signal `json:"signals"`
	Timestamp time.Time `json:"timestamp"`
}
