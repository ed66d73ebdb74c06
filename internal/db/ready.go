package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/wait"
)

// ErrUnresponsive means the server socket exists but the server never
// answered the liveness probe.
var ErrUnresponsive = errors.New("database server unresponsive")

// ErrAuthentication means the root login test failed after hardening.
var ErrAuthentication = errors.New("database root login test failed")

var pingFn = ping

// DSN builds a root DSN over the configured unix socket.
func DSN(cfg config.Config, password string) string {
	mc := mysql.NewConfig()
	mc.User = "root"
	mc.Passwd = password
	mc.Net = "unix"
	mc.Addr = cfg.Database.Socket
	mc.AllowNativePasswords = true
	return mc.FormatDSN()
}

// Open returns a database handle for the root account.
func Open(cfg config.Config, password string) (*sql.DB, error) {
	handle, err := sql.Open("mysql", DSN(cfg, password))
	if err != nil {
		return nil, fmt.Errorf("open database handle: %w", err)
	}
	return handle, nil
}

func ping(ctx context.Context, dsn string) error {
	handle, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = handle.Close() }()
	return handle.PingContext(ctx)
}

// alive treats an authentication rejection as proof of life: the server
// answered, it just refused the credentials.
func alive(err error) bool {
	if err == nil {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me)
}

// WaitForSocket blocks until the server socket file appears.
func WaitForSocket(ctx context.Context, logger *slog.Logger, cfg config.Config) (wait.Stats, error) {
	socket := cfg.Database.Socket
	logger.Info("waiting for database socket",
		"socket", socket,
		"attempts", cfg.Wait.SocketAttempts,
		"interval", cfg.Wait.SocketInterval().String(),
	)
	stats, err := wait.For(ctx, "database socket "+socket, wait.FileExists(socket), wait.Options{
		Interval:        cfg.Wait.SocketInterval(),
		MaxAttempts:     cfg.Wait.SocketAttempts,
		DiagnosticLog:   cfg.Wait.DiagnosticLog,
		DiagnosticLines: cfg.Wait.DiagnosticLines,
	})
	if err != nil {
		return stats, err
	}
	logger.Info("database socket ready", "attempts_used", stats.Attempts, "elapsed", stats.Elapsed.Truncate(time.Millisecond).String())
	return stats, nil
}

// ProbeServer confirms the server answers requests: one immediate probe,
// then a single delayed re-probe before declaring it unresponsive.
func ProbeServer(ctx context.Context, logger *slog.Logger, cfg config.Config, dsn string) error {
	err := pingFn(ctx, dsn)
	if alive(err) {
		return nil
	}
	logger.Warn("database did not answer first probe, retrying once", "delay", cfg.Wait.PingRetryDelay().String(), "error", err)

	select {
	case <-ctx.Done():
		return fmt.Errorf("liveness probe canceled: %w", ctx.Err())
	case <-time.After(cfg.Wait.PingRetryDelay()):
	}

	if err := pingFn(ctx, dsn); !alive(err) {
		return fmt.Errorf("%w: %v", ErrUnresponsive, err)
	}
	return nil
}

// LoginTest verifies the root account accepts the configured password.
func LoginTest(ctx context.Context, logger *slog.Logger, cfg config.Config) error {
	if err := pingFn(ctx, DSN(cfg, cfg.Database.RootPassword)); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	logger.Info("root login test passed")
	return nil
}
