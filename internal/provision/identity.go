package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/host"
)

var (
	localtimePath = "/etc/localtime"
	zoneinfoDir   = "/usr/share/zoneinfo"
	hostnamePath  = "/etc/hostname"
)

// applySystemIdentity sets the host name and timezone the stack was
// configured for.
func applySystemIdentity(ctx context.Context, logger *slog.Logger, runner *host.Runner, cfg config.Config) error {
	zone := filepath.Join(zoneinfoDir, cfg.System.Timezone)
	if _, err := os.Stat(zone); err != nil {
		return fmt.Errorf("unknown timezone %s: %w", cfg.System.Timezone, err)
	}
	if err := os.Remove(localtimePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace %s: %w", localtimePath, err)
	}
	if err := os.Symlink(zone, localtimePath); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}

	if err := os.WriteFile(hostnamePath, []byte(cfg.System.Hostname+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", hostnamePath, err)
	}
	if _, err := runner.Command(ctx, "hostname", cfg.System.Hostname); err != nil {
		return fmt.Errorf("set hostname: %w", err)
	}

	logger.Info("system identity applied", "hostname", cfg.System.Hostname, "timezone", cfg.System.Timezone)
	return nil
}
