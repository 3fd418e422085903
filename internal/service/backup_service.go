package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"actilog/internal/config"
	"actilog/internal/errors"
)

// Backup kinds. Manual backups come from the admin API, auto_daily from
// the scheduler.
const (
	BackupManual    = "manual"
	BackupAutoDaily = "auto_daily"
)

const backupStampLayout = "20060102_150405"

// Backup describes one archive on disk.
type Backup struct {
	Filename  string    `json:"filename"`
	Kind      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
	SizeMB    float64   `json:"size_mb"`
}

// BackupService dumps the database to gzipped archives and rotates them.
type BackupService interface {
	Create(ctx context.Context, kind string) (*Backup, error)
	List(ctx context.Context) ([]Backup, error)
	Delete(ctx context.Context, filename string) error
	Path(filename string) (string, error)
	Cleanup(ctx context.Context) ([]string, error)
	Run(ctx context.Context)
}

type backupService struct {
	dsn    string
	cfg    config.BackupConfig
	logger *slog.Logger
}

// NewBackupService creates a new backup service.
func NewBackupService(dsn string, cfg config.BackupConfig, logger *slog.Logger) BackupService {
	return &backupService{dsn: dsn, cfg: cfg, logger: logger}
}

// Create runs pg_dump and streams the output through gzip onto disk.
// The DSN is handed to pg_dump as a connection string, so whatever form
// the server connects with works here too.
func (s *backupService) Create(ctx context.Context, kind string) (*Backup, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	now := time.Now()
	filename := fmt.Sprintf("backup_%s_%s.sql.gz", kind, now.Format(backupStampLayout))
	path := filepath.Join(s.cfg.Dir, filename)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}

	gz := gzip.NewWriter(out)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "pg_dump",
		"--dbname="+s.dsn,
		"--clean",
		"--no-owner",
		"--no-privileges",
	)
	cmd.Stdout = gz
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if err := gz.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if err := out.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("pg_dump: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	s.logger.Info("backup created", "filename", filename, "size", info.Size())
	return &Backup{
		Filename:  filename,
		Kind:      kind,
		Timestamp: now,
		Size:      info.Size(),
		SizeMB:    float64(info.Size()) / (1024 * 1024),
	}, nil
}

// List returns the archives in the backup directory, newest first.
func (s *backupService) List(ctx context.Context) ([]Backup, error) {
	dirEntries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Backup{}, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	backups := make([]Backup, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasPrefix(de.Name(), "backup_") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}

		kind, stamp := parseBackupName(de.Name())
		if stamp.IsZero() {
			stamp = info.ModTime()
		}
		backups = append(backups, Backup{
			Filename:  de.Name(),
			Kind:      kind,
			Timestamp: stamp,
			Size:      info.Size(),
			SizeMB:    float64(info.Size()) / (1024 * 1024),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (s *backupService) Delete(ctx context.Context, filename string) error {
	path, err := s.Path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove backup: %w", err)
	}
	return nil
}

// Path validates the archive name and returns its location on disk.
func (s *backupService) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || !strings.HasPrefix(filename, "backup_") {
		return "", errors.ErrBackupNotFound
	}
	path := filepath.Join(s.cfg.Dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", errors.ErrBackupNotFound
	}
	return path, nil
}

// Cleanup removes archives older than KeepDays, always preserving the
// newest KeepCount regardless of age. Returns the removed filenames.
func (s *backupService) Cleanup(ctx context.Context) ([]string, error) {
	backups, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(backups) <= s.cfg.KeepCount {
		return nil, nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.KeepDays)
	var deleted []string
	for _, b := range backups[s.cfg.KeepCount:] {
		if b.Timestamp.After(cutoff) {
			continue
		}
		if err := s.Delete(ctx, b.Filename); err != nil {
			s.logger.Warn("backup cleanup failed", "filename", b.Filename, "error", err)
			continue
		}
		deleted = append(deleted, b.Filename)
	}
	return deleted, nil
}

// Run fires a backup every day at the configured hour, then rotates old
// archives. Blocks until ctx is cancelled.
func (s *backupService) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(time.Until(s.nextRun(time.Now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.Create(ctx, BackupAutoDaily); err != nil {
			s.logger.Error("scheduled backup failed", "error", err)
			continue
		}
		deleted, err := s.Cleanup(ctx)
		if err != nil {
			s.logger.Error("backup cleanup failed", "error", err)
			continue
		}
		if len(deleted) > 0 {
			s.logger.Info("old backups removed", "count", len(deleted))
		}
	}
}

func (s *backupService) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.Hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// parseBackupName splits backup_<kind>_<YYYYMMDD>_<HHMMSS>.sql.gz into its
// kind and timestamp. Returns a zero time when the name does not follow
// the pattern.
func parseBackupName(name string) (string, time.Time) {
	base := strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".sql")
	rest := strings.TrimPrefix(base, "backup_")
	parts := strings.Split(rest, "_")
	if len(parts) < 3 {
		return rest, time.Time{}
	}
	stamp := parts[len(parts)-2] + "_" + parts[len(parts)-1]
	ts, err := time.ParseInLocation(backupStampLayout, stamp, time.Local)
	if err != nil {
		return rest, time.Time{}
	}
	return strings.Join(parts[:len(parts)-2], "_"), ts
}
