package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phpipam-ops/phpipam-provision/internal/app"
	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/db"
	"github.com/phpipam-ops/phpipam-provision/internal/host"
	"github.com/phpipam-ops/phpipam-provision/internal/secure"
	"github.com/phpipam-ops/phpipam-provision/internal/webserver"
)

func installPackages(ctx context.Context, logger *slog.Logger, runner *host.Runner, cfg config.Config) error {
	logger.Info("installing packages", "manager", cfg.Packages.Manager, "count", len(cfg.Packages.Names))
	args := append([]string{"install", "-y"}, cfg.Packages.Names...)
	if _, err := runner.Command(ctx, cfg.Packages.Manager, args...); err != nil {
		return fmt.Errorf("install packages: %w", err)
	}
	return nil
}

func prepareDataDir(ctx context.Context, logger *slog.Logger, runner *host.Runner, cfg config.Config) error {
	return db.PrepareDataDir(ctx, logger, runner, cfg)
}

func startDatabase(ctx context.Context, logger *slog.Logger, runner *host.Runner, cfg config.Config) error {
	if _, err := runner.Service(ctx, cfg.Database.Service, "start"); err != nil {
		return fmt.Errorf("start database service: %w", err)
	}
	if _, err := db.WaitForSocket(ctx, logger, cfg); err != nil {
		return err
	}
	// A fresh installation has no root password yet; an authentication
	// rejection still counts as the server being alive.
	return db.ProbeServer(ctx, logger, cfg, db.DSN(cfg, ""))
}

func secureDatabase(ctx context.Context, logger *slog.Logger, _ *host.Runner, cfg config.Config) error {
	if err := secure.Harden(ctx, logger, cfg.Database.RootPassword); err != nil {
		return err
	}
	return db.LoginTest(ctx, logger, cfg)
}

func createSchema(ctx context.Context, logger *slog.Logger, _ *host.Runner, cfg config.Config) error {
	handle, err := db.Open(cfg, cfg.Database.RootPassword)
	if err != nil {
		return err
	}
	defer func() { _ = handle.Close() }()
	return db.CreateSchema(ctx, logger, handle, cfg)
}

func installApp(ctx context.Context, logger *slog.Logger, runner *host.Runner, cfg config.Config) error {
	return app.Install(ctx, logger, runner, cfg)
}

func configureWebserver(ctx context.Context, logger *slog.Logger, runner *host.Runner, cfg config.Config) error {
	if err := webserver.WriteSiteConfig(logger, cfg); err != nil {
		return err
	}
	return webserver.Reload(ctx, logger, runner, cfg)
}

func emitHelper(_ context.Context, logger *slog.Logger, _ *host.Runner, cfg config.Config) error {
	_, err := app.WriteHelperScript(logger, cfg)
	return err
}
