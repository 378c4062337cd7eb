package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantrey/stock-data-service/internal/models"
)

// UpsertMonthlyBarBatch inserts or updates multiple monthly bars in one transaction
func (db *DB) UpsertMonthlyBarBatch(bars []*models.MonthlyBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO monthly_data (ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at)
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
			return fmt.Errorf("failed to insert monthly bar for %s: %w", b.TsCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetMonthlyBarRange retrieves one stock's monthly bars between from and to
// inclusive, ordered by trade date ascending
func (db *DB) GetMonthlyBarRange(tsCode string, from, to time.Time) ([]*models.MonthlyBar, error) {
	query := `
		SELECT id, ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at
		FROM monthly_data
		WHERE ts_code = ? AND trade_date BETWEEN ? AND ?
		ORDER BY trade_date ASC
	`
	rows, err := db.conn.Query(query, tsCode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly bars: %w", err)
	}
	defer rows.Close()

	var bars []*models.MonthlyBar
	for rows.Next() {
		var b models.MonthlyBar
		err := rows.Scan(
			&b.ID, &b.TsCode, &b.TradeDate, &b.Open, &b.High, &b.Low, &b.Close,
			&b.PreClose, &b.Change, &b.PctChg, &b.Vol, &b.Amount, &b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly bar: %w", err)
		}
		bars = append(bars, &b)
	}
	return bars, rows.Err()
}

// GetLatestMonthlyBar retrieves the most recent monthly bar for a stock
func (db *DB) GetLatestMonthlyBar(tsCode string) (*models.MonthlyBar, error) {
	query := `
		SELECT id, ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at
		FROM monthly_data
		WHERE ts_code = ?
		ORDER BY trade_date DESC
		LIMIT 1
	`
	var b models.MonthlyBar
	err := db.conn.QueryRow(query, tsCode).Scan(
		&b.ID, &b.TsCode, &b.TradeDate, &b.Open, &b.High, &b.Low, &b.Close,
		&b.PreClose, &b.Change, &b.PctChg, &b.Vol, &b.Amount, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no monthly bars found for %s", tsCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest monthly bar: %w", err)
	}
	return &b, nil
}
