// Package backup shells out to mysqldump to produce timestamped SQL dumps of
// the stock database, with simple retention of the newest N files.
package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quantrey/stock-data-service/internal/config"
)

// Runner produces database dumps via mysqldump
type Runner struct {
	db     config.DatabaseConfig
	cfg    config.BackupConfig
	logger *zap.Logger
}

// NewRunner creates a backup runner
func NewRunner(db config.DatabaseConfig, cfg config.BackupConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{db: db, cfg: cfg, logger: logger}
}

// Run executes one mysqldump and returns the path of the written dump file,
// named stock_backup_YYYYMMDD_HHMMSS.sql
func (r *Runner) Run(ctx context.Context) (string, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	filename := fmt.Sprintf("%s_backup_%s.sql", r.db.DBName, time.Now().Format("20060102_150405"))
	outPath := filepath.Join(r.cfg.OutputDir, filename)

	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create dump file: %w", err)
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, r.cfg.MysqldumpPath,
		"-h"+r.db.Host,
		"-P"+r.db.Port,
		"-u"+r.db.User,
		"-p"+r.db.Password,
		"--single-transaction",
		r.db.DBName,
	)
	cmd.Stdout = out

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("mysqldump failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	r.logger.Info("wrote backup", zap.String("path", outPath))

	if err := r.prune(); err != nil {
		r.logger.Warn("failed to prune old backups", zap.Error(err))
	}
	return outPath, nil
}

// prune keeps only the newest Keep dump files for this database
func (r *Runner) prune() error {
	if r.cfg.Keep <= 0 {
		return nil
	}

	pattern := filepath.Join(r.cfg.OutputDir, r.db.DBName+"_backup_*.sql")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	if len(matches) <= r.cfg.Keep {
		return nil
	}

	// Timestamped names sort chronologically
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-r.cfg.Keep] {
		if err := os.Remove(path); err != nil {
			return err
		}
		r.logger.Info("pruned old backup", zap.String("path", path))
	}
	return nil
}

// Schedule runs backups at the configured interval until ctx is cancelled
func (r *Runner) Schedule(ctx context.Context) {
	if r.cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("backup scheduler shutting down")
			return
		case <-ticker.C:
			if _, err := r.Run(ctx); err != nil {
				r.logger.Error("scheduled backup failed", zap.Error(err))
			}
		}
	}
}
