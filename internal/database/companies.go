package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantrey/stock-data-service/internal/models"
)

// UpsertCompanyBatch inserts or updates the listed-company roster in one transaction
func (db *DB) UpsertCompanyBatch(companies []*models.Company) error {
	if len(companies) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO companies (ts_code, symbol, name, area, industry, market, list_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			symbol = VALUES(symbol),
			name = VALUES(name),
			area = VALUES(area),
			industry = VALUES(industry),
			market = VALUES(market),
			list_date = VALUES(list_date),
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range companies {
		_, err := stmt.Exec(c.TsCode, c.Symbol, c.Name, c.Area, c.Industry, c.Market, c.ListDate, now)
		if err != nil {
			return fmt.Errorf("failed to insert company %s: %w", c.TsCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCompany retrieves a company by ts_code
func (db *DB) GetCompany(tsCode string) (*models.Company, error) {
	query := `
		SELECT ts_code, symbol, name, area, industry, market, list_date, created_at, updated_at
		FROM companies
		WHERE ts_code = ?
	`
	var c models.Company
	err := db.conn.QueryRow(query, tsCode).Scan(
		&c.TsCode, &c.Symbol, &c.Name, &c.Area, &c.Industry, &c.Market,
		&c.ListDate, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company not found: %s", tsCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// GetAllCompanies retrieves the full listed-company roster
func (db *DB) GetAllCompanies() ([]*models.Company, error) {
	query := `
		SELECT ts_code, symbol, name, area, industry, market, list_date, created_at, updated_at
		FROM companies
		ORDER BY ts_code
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var c models.Company
		err := rows.Scan(
			&c.TsCode, &c.Symbol, &c.Name, &c.Area, &c.Industry, &c.Market,
			&c.ListDate, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// ListCompanyCodes returns all ts_codes, optionally filtered by a name or
// code prefix. Feeds the dashboard's stock_code template variable.
func (db *DB) ListCompanyCodes(prefix string) ([]string, error) {
	query := `SELECT ts_code FROM companies ORDER BY ts_code`
	args := []interface{}{}
	if prefix != "" {
		query = `SELECT ts_code FROM companies WHERE ts_code LIKE ? ORDER BY ts_code`
		args = append(args, prefix+"%")
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list company codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan company code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// DeleteCompany removes a company from the roster
func (db *DB) DeleteCompany(tsCode string) error {
	result, err := db.conn.Exec(`DELETE FROM companies WHERE ts_code = ?`, tsCode)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("company not found: %s", tsCode)
	}
	return nil
}
