package models

import "time"

// Company represents a listed company from the stock_basic feed
type Company struct {
	TsCode    string     `json:"ts_code"`
	Symbol    string     `json:"symbol"`
	Name      string     `json:"name"`
	Area      string     `json:"area,omitempty"`
	Industry  string     `json:"industry,omitempty"`
	Market    string     `json:"market,omitempty"`
	ListDate  *time.Time `json:"list_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
