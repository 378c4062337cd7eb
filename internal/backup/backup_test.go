package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrey/stock-data-service/internal/config"
)

func testRunner(t *testing.T, dumpPath string, keep int) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	r := NewRunner(
		config.DatabaseConfig{Host: "localhost", Port: "3306", User: "root", Password: "root", DBName: "stock"},
		config.BackupConfig{MysqldumpPath: dumpPath, OutputDir: dir, Keep: keep},
		nil,
	)
	return r, dir
}

func TestRunWritesDumpFile(t *testing.T) {
	// Stand-in for mysqldump that ignores its flags and emits a header
	script := filepath.Join(t.TempDir(), "fakedump.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho '-- MySQL dump'\n"), 0o755))

	r, dir := testRunner(t, script, 0)

	path, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, `^stock_backup_\d{8}_\d{6}\.sql$`, filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "MySQL dump")
}

func TestRunRemovesFileOnFailure(t *testing.T) {
	script := filepath.Join(t.TempDir(), "faildump.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'Access denied' >&2\nexit 2\n"), 0o755))

	r, dir := testRunner(t, script, 0)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "Access denied")

	leftover, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	require.NoError(t, err)
	assert.Empty(t, leftover)
}

func TestRunMissingBinary(t *testing.T) {
	r, _ := testRunner(t, "/nonexistent/mysqldump", 0)

	_, err := r.Run(context.Background())
	assert.ErrorContains(t, err, "mysqldump failed")
}

func TestPruneKeepsNewest(t *testing.T) {
	r, dir := testRunner(t, "unused", 2)

	names := []string{
		"stock_backup_20240101_000000.sql",
		"stock_backup_20240102_000000.sql",
		"stock_backup_20240103_000000.sql",
		"other.sql", // not a dump for this database
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("dump"), 0o644))
	}

	require.NoError(t, r.prune())

	remaining, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	require.NoError(t, err)

	bases := make([]string, len(remaining))
	for i, p := range remaining {
		bases[i] = filepath.Base(p)
	}
	assert.ElementsMatch(t, []string{
		"stock_backup_20240102_000000.sql",
		"stock_backup_20240103_000000.sql",
		"other.sql",
	}, bases)
}

func TestPruneDisabled(t *testing.T) {
	r, dir := testRunner(t, "unused", 0)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stock_backup_20240101_000000.sql"), []byte("dump"), 0o644))

	require.NoError(t, r.prune())

	remaining, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
