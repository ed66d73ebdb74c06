package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/host"
)

// CommandRunner is the slice of host.Runner the database layer needs.
type CommandRunner interface {
	Command(ctx context.Context, name string, args ...string) (host.Result, error)
	Service(ctx context.Context, name, action string) (host.Result, error)
}

var timeNowFn = time.Now

// PrepareDataDir brings the database data directory into an initialized state.
//
// A non-empty directory is treated as a pre-existing installation: the service
// is stopped best-effort and the directory is renamed to a timestamped backup
// before a fresh one is initialized. The backup rename always happens before
// any destructive reinitialization. An empty directory only gets its
// ownership and permissions fixed; system tables are initialized only when
// the directory is still empty afterwards.
func PrepareDataDir(ctx context.Context, logger *slog.Logger, runner CommandRunner, cfg config.Config) error {
	dir := cfg.Database.DataDir

	info, err := os.Stat(dir)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat data directory %s: %w", dir, err)
	}
	if exists && !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", dir)
	}

	if exists {
		empty, err := isEmptyDir(dir)
		if err != nil {
			return err
		}
		if !empty {
			logger.Warn("data directory not empty, preserving it as a backup", "dir", dir)
			if _, err := runner.Service(ctx, cfg.Database.Service, "stop"); err != nil {
				logger.Debug("service stop before backup failed (ignored)", "service", cfg.Database.Service, "error", err)
			}
			backup := backupPath(dir)
			if err := os.Rename(dir, backup); err != nil {
				return fmt.Errorf("back up data directory %s: %w", dir, err)
			}
			logger.Info("existing data directory backed up", "backup", backup)
			exists = false
		}
	}

	if !exists {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory %s: %w", dir, err)
		}
	} else if err := os.Chmod(dir, 0o755); err != nil {
		return fmt.Errorf("fix permissions on %s: %w", dir, err)
	}

	owner := cfg.Database.RunUser + ":" + cfg.Database.RunUser
	if _, err := runner.Command(ctx, "chown", "-R", owner, dir); err != nil {
		return fmt.Errorf("fix ownership on %s: %w", dir, err)
	}

	empty, err := isEmptyDir(dir)
	if err != nil {
		return err
	}
	if !empty {
		logger.Info("data directory already populated, skipping initialization", "dir", dir)
		return nil
	}

	logger.Info("initializing database system tables", "dir", dir)
	if _, err := runner.Command(ctx, "mariadb-install-db",
		"--user="+cfg.Database.RunUser,
		"--datadir="+dir,
	); err != nil {
		return fmt.Errorf("initialize data directory %s: %w", dir, err)
	}
	return nil
}

func isEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("read data directory %s: %w", dir, err)
	}
	return len(entries) == 0, nil
}

// backupPath picks a timestamped sibling path that does not exist yet.
func backupPath(dir string) string {
	base := fmt.Sprintf("%s.bak-%s", dir, timeNowFn().Format("20060102-150405"))
	candidate := base
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s.%d", base, i)
	}
}
