package database

import (
	"fmt"
	"time"

	"github.com/quantrey/stock-data-service/internal/models"
)

// UpsertIndexBarBatch inserts or updates multiple index daily bars in one transaction
func (db *DB) UpsertIndexBarBatch(bars []*models.IndexDailyBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO index_daily (ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			open = VALUES(open),
			high = VALUES(high),
			low = VALUES(low),
			close = VALUES(close),
			pre_close = VALUES(pre_close),
			` + "`change`" + ` = VALUES(` + "`change`" + `),
			pct_chg = VALUES(pct_chg),
			vol = VALUES(vol),
			amount = VALUES(amount)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, b := range bars {
		_, err := stmt.Exec(
			b.TsCode, b.TradeDate, b.Open, b.High, b.Low, b.Close,
			b.PreClose, b.Change, b.PctChg, b.Vol, b.Amount, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert index bar for %s: %w", b.TsCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetIndexBarRange retrieves one index's bars between from and to inclusive,
// ordered by trade date ascending
func (db *DB) GetIndexBarRange(tsCode string, from, to time.Time) ([]*models.IndexDailyBar, error) {
	query := `
		SELECT id, ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at
		FROM index_daily
		WHERE ts_code = ? AND trade_date BETWEEN ? AND ?
		ORDER BY trade_date ASC
	`
	rows, err := db.conn.Query(query, tsCode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get index bars: %w", err)
	}
	defer rows.Close()

	var bars []*models.IndexDailyBar
	for rows.Next() {
		var b models.IndexDailyBar
		err := rows.Scan(
			&b.ID, &b.TsCode, &b.TradeDate, &b.Open, &b.High, &b.Low, &b.Close,
			&b.PreClose, &b.Change, &b.PctChg, &b.Vol, &b.Amount, &b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan index bar: %w", err)
		}
		bars = append(bars, &b)
	}
	return bars, rows.Err()
}

// GetIndexClosePrices returns up to limit close prices for an index ordered
// oldest to newest
func (db *DB) GetIndexClosePrices(tsCode string, limit int) ([]models.ClosePrice, error) {
	query := `
		SELECT trade_date, close FROM (
			SELECT trade_date, close
			FROM index_daily
			WHERE ts_code = ?
			ORDER BY trade_date DESC
			LIMIT ?
		) recent
		ORDER BY trade_date ASC
	`
	rows, err := db.conn.Query(query, tsCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get index close prices: %w", err)
	}
	defer rows.Close()

	var prices []models.ClosePrice
	for rows.Next() {
		var p models.ClosePrice
		if err := rows.Scan(&p.TradeDate, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan index close price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// ListIndexCodes returns the distinct index codes present in index_daily
func (db *DB) ListIndexCodes() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT ts_code FROM index_daily ORDER BY ts_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list index codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan index code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
