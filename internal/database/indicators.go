package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantrey/stock-data-service/internal/models"
)

// UpsertIndicatorBatch inserts or updates computed indicator values in one transaction
func (db *DB) UpsertIndicatorBatch(indicators []*models.TechnicalIndicator) error {
	if len(indicators) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO technical_indicators (ts_code, trade_date, indicator_type, value, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, t := range indicators {
		_, err := stmt.Exec(t.TsCode, t.TradeDate, t.IndicatorType, t.Value, now)
		if err != nil {
			return fmt.Errorf("failed to insert indicator for %s: %w", t.TsCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetIndicatorHistory retrieves historical values for one indicator, newest first
func (db *DB) GetIndicatorHistory(tsCode, indicatorType string, limit int) ([]*models.TechnicalIndicator, error) {
	query := `
		SELECT id, ts_code, trade_date, indicator_type, value, created_at
		FROM technical_indicators
		WHERE ts_code = ? AND indicator_type = ?
		ORDER BY trade_date DESC
		LIMIT ?
	`
	rows, err := db.conn.Query(query, tsCode, indicatorType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator history: %w", err)
	}
	defer rows.Close()

	var indicators []*models.TechnicalIndicator
	for rows.Next() {
		var t models.TechnicalIndicator
		err := rows.Scan(&t.ID, &t.TsCode, &t.TradeDate, &t.IndicatorType, &t.Value, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, &t)
	}
	return indicators, rows.Err()
}

// GetLatestRSI is a convenience method for the most recent RSI value
func (db *DB) GetLatestRSI(tsCode string) (decimal.Decimal, error) {
	query := `
		SELECT value
		FROM technical_indicators
		WHERE ts_code = ? AND indicator_type = 'RSI_14'
		ORDER BY trade_date DESC
		LIMIT 1
	`
	var value decimal.Decimal
	err := db.conn.QueryRow(query, tsCode).Scan(&value)

	if err == sql.ErrNoRows {
		return decimal.Zero, fmt.Errorf("no RSI data found for %s", tsCode)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get RSI: %w", err)
	}
	return value, nil
}

// DeleteIndicatorsOlderThan removes indicator values computed before the cutoff
func (db *DB) DeleteIndicatorsOlderThan(cutoff time.Time) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM technical_indicators WHERE trade_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old indicators: %w", err)
	}
	return result.RowsAffected()
}
