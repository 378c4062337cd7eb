package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantrey/stock-data-service/internal/models"
)

// UpsertDailyBar inserts a daily bar or updates it if the (ts_code, trade_date)
// pair already exists
func (db *DB) UpsertDailyBar(b *models.DailyBar) error {
	query := `
		INSERT INTO daily_data (ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at)
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
			amount = VALUES(amount),
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := db.conn.Exec(query,
		b.TsCode, b.TradeDate, b.Open, b.High, b.Low, b.Close,
		b.PreClose, b.Change, b.PctChg, b.Vol, b.Amount, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily bar: %w", err)
	}
	return nil
}

// UpsertDailyBarBatch inserts or updates multiple daily bars in one transaction
func (db *DB) UpsertDailyBarBatch(bars []*models.DailyBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_data (ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at)
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
			amount = VALUES(amount),
			updated_at = CURRENT_TIMESTAMP
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
			return fmt.Errorf("failed to insert bar for %s: %w", b.TsCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetDailyBar retrieves one stock's bar for a specific date
func (db *DB) GetDailyBar(tsCode string, tradeDate time.Time) (*models.DailyBar, error) {
	query := `
		SELECT id, ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at, updated_at
		FROM daily_data
		WHERE ts_code = ? AND trade_date = ?
	`
	var b models.DailyBar
	err := db.conn.QueryRow(query, tsCode, tradeDate).Scan(
		&b.ID, &b.TsCode, &b.TradeDate, &b.Open, &b.High, &b.Low, &b.Close,
		&b.PreClose, &b.Change, &b.PctChg, &b.Vol, &b.Amount, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("daily bar not found: %s on %s", tsCode, tradeDate.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily bar: %w", err)
	}
	return &b, nil
}

// GetDailyBarRange retrieves one stock's bars between from and to inclusive,
// ordered by trade date ascending. This backs the single-stock time-series
// query the dashboard panels use.
func (db *DB) GetDailyBarRange(tsCode string, from, to time.Time) ([]*models.DailyBar, error) {
	query := `
		SELECT id, ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at, updated_at
		FROM daily_data
		WHERE ts_code = ? AND trade_date BETWEEN ? AND ?
		ORDER BY trade_date ASC
	`
	rows, err := db.conn.Query(query, tsCode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily bars: %w", err)
	}
	defer rows.Close()

	return scanDailyBars(rows)
}

// GetDailyBarsByDate retrieves all stocks' bars for a single trade date
func (db *DB) GetDailyBarsByDate(tradeDate time.Time) ([]*models.DailyBar, error) {
	query := `
		SELECT id, ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at, updated_at
		FROM daily_data
		WHERE trade_date = ?
		ORDER BY ts_code ASC
	`
	rows, err := db.conn.Query(query, tradeDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily bars by date: %w", err)
	}
	defer rows.Close()

	return scanDailyBars(rows)
}

// GetRecentDailyBars retrieves the most recent bars for a stock, newest first
func (db *DB) GetRecentDailyBars(tsCode string, limit int) ([]*models.DailyBar, error) {
	query := `
		SELECT id, ts_code, trade_date, open, high, low, close, pre_close, ` + "`change`" + `, pct_chg, vol, amount, created_at, updated_at
		FROM daily_data
		WHERE ts_code = ?
		ORDER BY trade_date DESC
		LIMIT ?
	`
	rows, err := db.conn.Query(query, tsCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent daily bars: %w", err)
	}
	defer rows.Close()

	return scanDailyBars(rows)
}

// GetClosePrices returns up to limit close prices for a stock ordered oldest
// to newest, for indicator computation
func (db *DB) GetClosePrices(tsCode string, limit int) ([]models.ClosePrice, error) {
	query := `
		SELECT trade_date, close FROM (
			SELECT trade_date, close
			FROM daily_data
			WHERE ts_code = ?
			ORDER BY trade_date DESC
			LIMIT ?
		) recent
		ORDER BY trade_date ASC
	`
	rows, err := db.conn.Query(query, tsCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get close prices: %w", err)
	}
	defer rows.Close()

	var prices []models.ClosePrice
	for rows.Next() {
		var p models.ClosePrice
		if err := rows.Scan(&p.TradeDate, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan close price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// LatestTradeDate returns the most recent trade date present in daily_data
func (db *DB) LatestTradeDate() (time.Time, error) {
	var latest sql.NullTime
	err := db.conn.QueryRow(`SELECT MAX(trade_date) FROM daily_data`).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest trade date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, fmt.Errorf("no daily bars stored")
	}
	return latest.Time, nil
}

// DeleteDailyBarsOlderThan removes bars with a trade date before the cutoff
func (db *DB) DeleteDailyBarsOlderThan(cutoff time.Time) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM daily_data WHERE trade_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old daily bars: %w", err)
	}
	return result.RowsAffected()
}

func scanDailyBars(rows *sql.Rows) ([]*models.DailyBar, error) {
	var bars []*models.DailyBar
	for rows.Next() {
		var b models.DailyBar
		err := rows.Scan(
			&b.ID, &b.TsCode, &b.TradeDate, &b.Open, &b.High, &b.Low, &b.Close,
			&b.PreClose, &b.Change, &b.PctChg, &b.Vol, &b.Amount, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily bar: %w", err)
		}
		bars = append(bars, &b)
	}
	return bars, rows.Err()
}
