// Package app installs the phpIPAM source tree and manages its deployed
// configuration across the two installation phases.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/db"
	"github.com/phpipam-ops/phpipam-provision/internal/render"
)

const appConfigTemplate = `<?php
/**
 * phpIPAM database connection details.
 *
 * Written by phpipam-provision; re-running the provisioner regenerates it.
 */

$db['host'] = 'localhost';
$db['user'] = '{{ .DBUser }}';
$db['pass'] = '{{ .DBPassword }}';
$db['name'] = '{{ .DBName }}';
$db['port'] = 3306;

$phpsessname = "phpipam";

$disable_installer = false;
`

type appConfigData struct {
	DBUser     string
	DBPassword string
	DBName     string
}

// Install fetches the phpIPAM source under the document root and writes the
// application configuration. An existing checkout is left in place.
func Install(ctx context.Context, logger *slog.Logger, runner db.CommandRunner, cfg config.Config) error {
	dir := cfg.AppDir()

	if _, err := os.Stat(dir); err == nil {
		logger.Info("phpipam source already present", "dir", dir)
	} else {
		if err := os.MkdirAll(cfg.Web.DocumentRoot, 0o755); err != nil {
			return fmt.Errorf("create document root %s: %w", cfg.Web.DocumentRoot, err)
		}
		logger.Info("fetching phpipam source", "repo", cfg.App.RepoURL, "branch", cfg.App.Branch)
		if _, err := runner.Command(ctx, "git", "clone",
			"--depth", "1",
			"--branch", cfg.App.Branch,
			cfg.App.RepoURL, dir,
		); err != nil {
			return fmt.Errorf("fetch phpipam source: %w", err)
		}
	}

	return writeAppConfig(logger, cfg)
}

func writeAppConfig(logger *slog.Logger, cfg config.Config) error {
	content, err := render.Text("config.php", appConfigTemplate, appConfigData{
		DBUser:     cfg.Database.User,
		DBPassword: cfg.Database.Password,
		DBName:     cfg.Database.Name,
	})
	if err != nil {
		return err
	}

	path := cfg.AppConfigFile()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write application config %s: %w", path, err)
	}
	logger.Info("application config written", "path", path)
	return nil
}
