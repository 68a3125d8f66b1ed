package database

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrRecoveryFailed is returned when no recovery phase produced a healthy file.
var ErrRecoveryFailed = errors.New("all recovery attempts failed")

// RecoveryResult is the outcome of AttemptRecovery.
type RecoveryResult int

const (
	// RecoverySuccess means the file was healthy or repaired in place.
	RecoverySuccess RecoveryResult = iota
	// RecoveryFromBackup means the file was replaced by a backup.
	RecoveryFromBackup
	// RecoveryFailed means nothing worked.
	RecoveryFailed
)

func (r RecoveryResult) String() string {
	switch r {
	case RecoverySuccess:
		return "success"
	case RecoveryFromBackup:
		return "restored_from_backup"
	case RecoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecoveryReport records every step AttemptRecovery took.
type RecoveryReport struct {
	Result       RecoveryResult
	DatabasePath string
	BackupUsed   string
	// QuarantinedPath is where a damaged file was moved before a restore.
	QuarantinedPath string
	WALRecovered    bool
	Steps           []RecoveryStep
}

// RecoveryStep is a single phase of recovery.
type RecoveryStep struct {
	Name      string
	Succeeded bool
	Message   string
	Duration  time.Duration
}

// AttemptRecovery checks the save database before it is opened. A damaged
// file is first repaired by replaying its WAL, then replaced by the newest
// backup that passes an integrity check. A missing file is not an error.
func AttemptRecovery(dbPath, backupDir string, logger *slog.Logger) (*RecoveryReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := &RecoveryReport{DatabasePath: dbPath}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		report.Result = RecoverySuccess
		report.Steps = append(report.Steps, RecoveryStep{
			Name:      "check_exists",
			Succeeded: true,
			Message:   "no save database yet",
		})
		return report, nil
	}

	step := runRecoveryStep("integrity_check", func() (string, error) {
		return checkFileIntegrity(dbPath)
	})
	report.Steps = append(report.Steps, step)
	if step.Succeeded {
		report.Result = RecoverySuccess
		logger.Debug("save database integrity check passed", "path", dbPath)
		return report, nil
	}

	logger.Warn("save database integrity check failed", "path", dbPath, "error", step.Message)

	if _, err := os.Stat(dbPath + "-wal"); err == nil {
		step = runRecoveryStep("wal_recovery", func() (string, error) {
			return replayWAL(dbPath)
		})
		report.Steps = append(report.Steps, step)

		if step.Succeeded {
			step = runRecoveryStep("post_wal_integrity", func() (string, error) {
				return checkFileIntegrity(dbPath)
			})
			report.Steps = append(report.Steps, step)
			if step.Succeeded {
				report.Result = RecoverySuccess
				report.WALRecovered = true
				logger.Info("save database recovered via WAL replay", "path", dbPath)
				return report, nil
			}
		}
	}

	if backupDir != "" {
		var quarantined string
		step = runRecoveryStep("backup_restoration", func() (string, error) {
			backup, moved, err := restoreFromBackup(dbPath, backupDir, logger)
			quarantined = moved
			return backup, err
		})
		report.Steps = append(report.Steps, step)
		if step.Succeeded {
			report.Result = RecoveryFromBackup
			report.BackupUsed = step.Message
			report.QuarantinedPath = quarantined
			logger.Info("save database restored from backup", "path", dbPath, "backup", step.Message)
			return report, nil
		}
	}

	report.Result = RecoveryFailed
	logger.Error("save database recovery failed", "path", dbPath, "steps", len(report.Steps))
	return report, ErrRecoveryFailed
}

func runRecoveryStep(name string, fn func() (string, error)) RecoveryStep {
	start := time.Now()
	msg, err := fn()

	step := RecoveryStep{Name: name, Duration: time.Since(start), Succeeded: err == nil, Message: msg}
	if err != nil {
		step.Message = err.Error()
	}
	return step
}

// checkFileIntegrity opens dbPath read-only and runs an integrity check.
func checkFileIntegrity(dbPath string) (string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := integrityCheck(ctx, db); err != nil {
		return "", err
	}
	return "ok", nil
}

func replayWAL(dbPath string) (string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_txlock=immediate", dbPath))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(RESTART)"); err != nil {
		return "", fmt.Errorf("WAL checkpoint: %w", err)
	}
	return "WAL checkpoint complete", nil
}

// restoreFromBackup copies the newest healthy backup over dbPath. The damaged
// file is kept alongside with a ".corrupted" suffix.
func restoreFromBackup(dbPath, backupDir string, logger *slog.Logger) (backup, quarantined string, err error) {
	backups, err := listBackups(backupDir)
	if err != nil {
		return "", "", err
	}
	if len(backups) == 0 {
		return "", "", errors.New("no backup files found")
	}

	for _, candidate := range backups {
		if _, err := checkFileIntegrity(candidate); err != nil {
			logger.Debug("backup failed integrity check", "path", candidate, "error", err)
			continue
		}

		quarantined = dbPath + ".corrupted." + time.Now().Format("20060102-150405")
		if err := moveFile(dbPath, quarantined); err != nil {
			logger.Warn("failed to keep damaged save database", "path", dbPath, "error", err)
			quarantined = ""
		}
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")

		if err := copyFile(candidate, dbPath); err != nil {
			return "", quarantined, fmt.Errorf("copying backup: %w", err)
		}
		return candidate, quarantined, nil
	}

	return "", "", errors.New("no valid backup found")
}

// listBackups returns backup files in backupDir, newest first.
func listBackups(backupDir string) ([]string, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	type backupFile struct {
		path    string
		modTime time.Time
	}
	var files []backupFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), BackupPrefix) || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, backupFile{filepath.Join(backupDir, entry.Name()), info.ModTime()})
	}

	slices.SortFunc(files, func(a, b backupFile) int {
		if c := b.modTime.Compare(a.modTime); c != 0 {
			return c
		}
		return cmp.Compare(b.path, a.path)
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("syncing destination: %w", err)
	}

	if info, err := os.Stat(src); err == nil {
		os.Chmod(dst, info.Mode())
	}
	return nil
}
