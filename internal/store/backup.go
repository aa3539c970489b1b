package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/config"
)

// BackupService periodically copies the SQLite database file aside and
// prunes copies older than the retention window.
type BackupService struct {
	dbPath string
	config config.BackupConfig
	logger *zerolog.Logger
}

func NewBackupService(dbPath string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		dbPath: dbPath,
		config: cfg,
		logger: logger,
	}
}

// Start runs a backup immediately and then on every interval tick until the
// context is cancelled.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("backup service is disabled")
		return
	}

	interval := time.Duration(s.config.IntervalHours) * time.Hour
	s.logger.Info().Dur("interval", interval).Msg("backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.PerformBackup(); err != nil {
			s.logger.Error().Err(err).Msg("backup failed")
		}
		s.CleanupOldBackups()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *BackupService) PerformBackup() error {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("backup_%s.db", time.Now().Format("20060102_150405"))
	target := filepath.Join(s.config.StoragePath, name)

	source, err := os.Open(s.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	defer destination.Close()

	if _, err = io.Copy(destination, source); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}

	s.logger.Info().Str("path", target).Msg("database backup written")
	return nil
}

// CleanupOldBackups removes backup files whose modification time falls
// outside the retention window. Only files matching the backup naming
// pattern are touched.
func (s *BackupService) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	matches, err := filepath.Glob(filepath.Join(s.config.StoragePath, "backup_*.db"))
	if err != nil {
		s.logger.Error().Err(err).Msg("scan backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		s.logger.Info().Str("file", filepath.Base(path)).Msg("deleting expired backup")
		os.Remove(path)
	}
}
