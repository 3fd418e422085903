package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actilog/internal/config"
	"actilog/internal/errors"
)

func newTestBackupService(t *testing.T, cfg config.BackupConfig) (*backupService, string) {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	svc := NewBackupService("postgres://localhost/actilog", cfg, discardLogger()).(*backupService)
	return svc, cfg.Dir
}

func writeBackupFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- dump"), 0o644))
}

func TestParseBackupName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantKind string
		wantTime time.Time
	}{
		{
			name:     "manual backup",
			filename: "backup_manual_20260115_020000.sql.gz",
			wantKind: "manual",
			wantTime: time.Date(2026, 1, 15, 2, 0, 0, 0, time.Local),
		},
		{
			name:     "scheduled backup with underscore in kind",
			filename: "backup_auto_daily_20260116_023000.sql.gz",
			wantKind: "auto_daily",
			wantTime: time.Date(2026, 1, 16, 2, 30, 0, 0, time.Local),
		},
		{
			name:     "unparseable stamp falls back to zero time",
			filename: "backup_manual_notatime.sql.gz",
			wantTime: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, stamp := parseBackupName(tt.filename)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, kind)
			}
			assert.True(t, stamp.Equal(tt.wantTime), "got %v, want %v", stamp, tt.wantTime)
		})
	}
}

func TestBackupList_SortsNewestFirstAndSkipsStrays(t *testing.T) {
	svc, dir := newTestBackupService(t, config.BackupConfig{})

	writeBackupFile(t, dir, "backup_manual_20260110_020000.sql.gz")
	writeBackupFile(t, dir, "backup_auto_daily_20260112_020000.sql.gz")
	writeBackupFile(t, dir, "backup_manual_20260111_020000.sql.gz")
	writeBackupFile(t, dir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "backup_subdir"), 0o755))

	backups, err := svc.List(context.Background())
	require.NoError(t, err)

	require.Len(t, backups, 3)
	assert.Equal(t, "backup_auto_daily_20260112_020000.sql.gz", backups[0].Filename)
	assert.Equal(t, "auto_daily", backups[0].Kind)
	assert.Equal(t, "backup_manual_20260111_020000.sql.gz", backups[1].Filename)
	assert.Equal(t, "backup_manual_20260110_020000.sql.gz", backups[2].Filename)
	assert.Equal(t, "manual", backups[2].Kind)
}

func TestBackupList_MissingDirIsEmpty(t *testing.T) {
	svc, _ := newTestBackupService(t, config.BackupConfig{Dir: filepath.Join(t.TempDir(), "nope")})

	backups, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestBackupPath_RejectsTraversalAndUnknownNames(t *testing.T) {
	svc, dir := newTestBackupService(t, config.BackupConfig{})
	writeBackupFile(t, dir, "backup_manual_20260110_020000.sql.gz")

	path, err := svc.Path("backup_manual_20260110_020000.sql.gz")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup_manual_20260110_020000.sql.gz"), path)

	for _, name := range []string{
		"",
		"../etc/passwd",
		"backup_../../etc/passwd",
		"passwd",
		"backup_manual_20990101_000000.sql.gz", // well-formed but absent
	} {
		_, err := svc.Path(name)
		assert.ErrorIs(t, err, errors.ErrBackupNotFound, "name %q", name)
	}
}

func TestBackupCleanup_KeepsNewestAndRecent(t *testing.T) {
	svc, dir := newTestBackupService(t, config.BackupConfig{KeepCount: 2, KeepDays: 30})

	old := func(i int) string {
		return fmt.Sprintf("backup_auto_daily_2020010%d_020000.sql.gz", i)
	}
	recent := time.Now().Add(-24 * time.Hour).Format("20060102_150405")

	writeBackupFile(t, dir, old(1))
	writeBackupFile(t, dir, old(2))
	writeBackupFile(t, dir, old(3))
	writeBackupFile(t, dir, "backup_manual_"+recent+".sql.gz")

	deleted, err := svc.Cleanup(context.Background())
	require.NoError(t, err)

	// Newest two survive on count (the recent manual one and old(3)); old(1)
	// and old(2) are past KeepDays and go.
	assert.ElementsMatch(t, []string{old(1), old(2)}, deleted)

	backups, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "backup_manual_"+recent+".sql.gz", backups[0].Filename)
	assert.Equal(t, old(3), backups[1].Filename)
}

func TestBackupCleanup_UnderKeepCountIsANoOp(t *testing.T) {
	svc, dir := newTestBackupService(t, config.BackupConfig{KeepCount: 10, KeepDays: 1})
	writeBackupFile(t, dir, "backup_auto_daily_20200101_020000.sql.gz")

	deleted, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestBackupDelete(t *testing.T) {
	svc, dir := newTestBackupService(t, config.BackupConfig{})
	writeBackupFile(t, dir, "backup_manual_20260110_020000.sql.gz")

	require.NoError(t, svc.Delete(context.Background(), "backup_manual_20260110_020000.sql.gz"))

	_, err := os.Stat(filepath.Join(dir, "backup_manual_20260110_020000.sql.gz"))
	assert.True(t, os.IsNotExist(err))

	err = svc.Delete(context.Background(), "backup_manual_20260110_020000.sql.gz")
	assert.ErrorIs(t, err, errors.ErrBackupNotFound)
}

func TestBackupNextRun(t *testing.T) {
	svc, _ := newTestBackupService(t, config.BackupConfig{Hour: 2})

	beforeHour := time.Date(2026, 3, 2, 1, 30, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 3, 2, 2, 0, 0, 0, time.Local), svc.nextRun(beforeHour))

	afterHour := time.Date(2026, 3, 2, 14, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 3, 3, 2, 0, 0, 0, time.Local), svc.nextRun(afterHour))

	exactlyAtHour := time.Date(2026, 3, 2, 2, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 3, 3, 2, 0, 0, 0, time.Local), svc.nextRun(exactlyAtHour))
}
