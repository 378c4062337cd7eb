package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantrey/stock-data-service/internal/models"
)

// CreateSignalBatch stores a strategy scan's results in one transaction.
// Re-running a scan for the same strategy and date replaces its prior results.
func (db *DB) CreateSignalBatch(signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Replace prior results for each (strategy, trade_date) in the batch
	seen := map[string]struct{}{}
	for _, s := range signals {
		key := s.Strategy + s.TradeDate.Format("20060102")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if _, err := tx.Exec(`DELETE FROM signals WHERE strategy = ? AND trade_date = ?`, s.Strategy, s.TradeDate); err != nil {
			return fmt.Errorf("failed to clear prior signals: %w", err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO signals (strategy, ts_code, trade_date, score, status, rank_no, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, s := range signals {
		_, err := stmt.Exec(s.Strategy, s.TsCode, s.TradeDate, s.Score, s.Status, s.Rank, s.Details, now)
		if err != nil {
			return fmt.Errorf("failed to insert signal for %s: %w", s.TsCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSignals retrieves a strategy's results for a trade date, best rank first
func (db *DB) GetSignals(strategy string, tradeDate time.Time) ([]*models.Signal, error) {
	query := `
		SELECT id, strategy, ts_code, trade_date, score, status, rank_no, details, created_at
		FROM signals
		WHERE strategy = ? AND trade_date = ?
		ORDER BY rank_no ASC
	`
	rows, err := db.conn.Query(query, strategy, tradeDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetLatestSignals retrieves a strategy's most recent scan results
func (db *DB) GetLatestSignals(strategy string) ([]*models.Signal, error) {
	query := `
		SELECT id, strategy, ts_code, trade_date, score, status, rank_no, details, created_at
		FROM signals
		WHERE strategy = ?
			AND trade_date = (SELECT MAX(trade_date) FROM signals WHERE strategy = ?)
		ORDER BY rank_no ASC
	`
	rows, err := db.conn.Query(query, strategy, strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// DeleteSignalsByStrategy removes all stored results for a strategy
func (db *DB) DeleteSignalsByStrategy(strategy string) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM signals WHERE strategy = ?`, strategy)
	if err != nil {
		return 0, fmt.Errorf("failed to delete signals for %s: %w", strategy, err)
	}
	return result.RowsAffected()
}

func scanSignals(rows *sql.Rows) ([]*models.Signal, error) {
	var signals []*models.Signal
	for rows.Next() {
		var s models.Signal
		err := rows.Scan(
			&s.ID, &s.Strategy, &s.TsCode, &s.TradeDate, &s.Score,
			&s.Status, &s.Rank, &s.Details, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, &s)
	}
	return signals, rows.Err()
}
