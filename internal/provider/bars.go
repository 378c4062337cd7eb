package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantrey/stock-data-service/internal/models"
)

const barFields = "ts_code,trade_date,open,high,low,close,pre_close,change,pct_chg,vol,amount"

// Daily fetches daily bars. Either tsCode or tradeDate may be empty, matching
// the upstream API: a code with a date range backfills one stock, a date with
// no code fetches the whole market for one day.
func (c *Client) Daily(ctx context.Context, tsCode, tradeDate, startDate, endDate string) ([]*models.DailyBar, error) {
	params := map[string]string{}
	if tsCode != "" {
		params["ts_code"] = tsCode
	}
	if tradeDate != "" {
		params["trade_date"] = tradeDate
	}
	if startDate != "" {
		params["start_date"] = startDate
	}
	if endDate != "" {
		params["end_date"] = endDate
	}

	rows, err := c.call(ctx, "daily", params, barFields)
	if err != nil {
		return nil, err
	}

	bars := make([]*models.DailyBar, 0, len(rows))
	for _, row := range rows {
		b, err := dailyBarFromRow(row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// Monthly fetches month-end bars for one stock over a date range
func (c *Client) Monthly(ctx context.Context, tsCode, startDate, endDate string) ([]*models.MonthlyBar, error) {
	params := map[string]string{"ts_code": tsCode}
	if startDate != "" {
		params["start_date"] = startDate
	}
	if endDate != "" {
		params["end_date"] = endDate
	}

	rows, err := c.call(ctx, "monthly", params, barFields)
	if err != nil {
		return nil, err
	}

	bars := make([]*models.MonthlyBar, 0, len(rows))
	for _, row := range rows {
		d, err := dailyBarFromRow(row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, &models.MonthlyBar{
			TsCode:    d.TsCode,
			TradeDate: d.TradeDate,
			Open:      d.Open,
			High:      d.High,
			Low:       d.Low,
			Close:     d.Close,
			PreClose:  d.PreClose,
			Change:    d.Change,
			PctChg:    d.PctChg,
			Vol:       d.Vol,
			Amount:    d.Amount,
		})
	}
	return bars, nil
}

// IndexDaily fetches daily bars for an index
func (c *Client) IndexDaily(ctx context.Context, tsCode, startDate, endDate string) ([]*models.IndexDailyBar, error) {
	params := map[string]string{"ts_code": tsCode}
	if startDate != "" {
		params["start_date"] = startDate
	}
	if endDate != "" {
		params["end_date"] = endDate
	}

	rows, err := c.call(ctx, "index_daily", params, barFields)
	if err != nil {
		return nil, err
	}

	bars := make([]*models.IndexDailyBar, 0, len(rows))
	for _, row := range rows {
		d, err := dailyBarFromRow(row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, &models.IndexDailyBar{
			TsCode:    d.TsCode,
			TradeDate: d.TradeDate,
			Open:      d.Open,
			High:      d.High,
			Low:       d.Low,
			Close:     d.Close,
			PreClose:  d.PreClose,
			Change:    d.Change,
			PctChg:    d.PctChg,
			Vol:       d.Vol,
			Amount:    d.Amount,
		})
	}
	return bars, nil
}

// StockBasic fetches the listed-company roster
func (c *Client) StockBasic(ctx context.Context) ([]*models.Company, error) {
	rows, err := c.call(ctx, "stock_basic",
		map[string]string{"list_status": "L"},
		"ts_code,symbol,name,area,industry,market,list_date",
	)
	if err != nil {
		return nil, err
	}

	companies := make([]*models.Company, 0, len(rows))
	for _, row := range rows {
		co := &models.Company{
			TsCode:   stringField(row, "ts_code"),
			Symbol:   stringField(row, "symbol"),
			Name:     stringField(row, "name"),
			Area:     stringField(row, "area"),
			Industry: stringField(row, "industry"),
			Market:   stringField(row, "market"),
		}
		if s := stringField(row, "list_date"); s != "" {
			if d, err := models.ParseTradeDate(s); err == nil {
				co.ListDate = &d
			}
		}
		if co.TsCode == "" {
			return nil, fmt.Errorf("stock_basic row missing ts_code")
		}
		companies = append(companies, co)
	}
	return companies, nil
}

func dailyBarFromRow(row map[string]json.RawMessage) (*models.DailyBar, error) {
	tsCode := stringField(row, "ts_code")
	dateStr := stringField(row, "trade_date")
	if tsCode == "" || dateStr == "" {
		return nil, fmt.Errorf("bar row missing ts_code or trade_date")
	}

	tradeDate, err := models.ParseTradeDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trade_date %q: %w", dateStr, err)
	}

	return &models.DailyBar{
		TsCode:    tsCode,
		TradeDate: tradeDate,
		Open:      decimalField(row, "open"),
		High:      decimalField(row, "high"),
		Low:       decimalField(row, "low"),
		Close:     decimalField(row, "close"),
		PreClose:  decimalField(row, "pre_close"),
		Change:    decimalField(row, "change"),
		PctChg:    decimalField(row, "pct_chg"),
		Vol:       decimalField(row, "vol"),
		Amount:    decimalField(row, "amount"),
	}, nil
}

func stringField(row map[string]json.RawMessage, field string) string {
	raw, ok := row[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return strings.Trim(string(raw), `"`)
	}
	return s
}

// decimalField parses a numeric field, treating null, empty and non-numeric
// values as zero the way the upstream feed's gaps are normalized
func decimalField(row map[string]json.RawMessage, field string) decimal.Decimal {
	raw, ok := row[field]
	if !ok {
		return decimal.Zero
	}
	s := strings.Trim(string(raw), `"`)
	if s == "" || s == "null" || strings.EqualFold(s, "nan") {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
