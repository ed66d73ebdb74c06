package db

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/wait"
)

func readyConfig(socket string) config.Config {
	cfg := config.Example()
	cfg.Database.Socket = socket
	cfg.Database.RootPassword = "rootpw"
	cfg.Wait.SocketAttempts = 2
	cfg.Wait.SocketIntervalSeconds = 1
	cfg.Wait.PingRetryDelaySeconds = 1
	cfg.Wait.DiagnosticLog = ""
	return cfg
}

func TestWaitForSocketSucceedsWhenPresent(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "mysql.sock")
	if err := os.WriteFile(socket, nil, 0o644); err != nil {
		t.Fatalf("write socket file: %v", err)
	}

	stats, err := WaitForSocket(context.Background(), slog.Default(), readyConfig(socket))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if stats.Attempts != 1 {
		t.Fatalf("expected success on first attempt, got %d", stats.Attempts)
	}
}

func TestWaitForSocketTimesOut(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "never.sock")

	_, err := WaitForSocket(context.Background(), slog.Default(), readyConfig(socket))
	if !wait.IsTimeout(err) {
		t.Fatalf("expected readiness timeout, got %v", err)
	}
}

func TestProbeServerFirstProbeSucceeds(t *testing.T) {
	orig := pingFn
	t.Cleanup(func() { pingFn = orig })

	calls := 0
	pingFn = func(context.Context, string) error {
		calls++
		return nil
	}

	if err := ProbeServer(context.Background(), slog.Default(), readyConfig("/tmp/x"), "dsn"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single probe, got %d", calls)
	}
}

func TestProbeServerRetriesOnceAfterDelay(t *testing.T) {
	orig := pingFn
	t.Cleanup(func() { pingFn = orig })

	calls := 0
	pingFn = func(context.Context, string) error {
		calls++
		if calls == 1 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := ProbeServer(context.Background(), slog.Default(), readyConfig("/tmp/x"), "dsn"); err != nil {
		t.Fatalf("expected success on re-probe, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 probes, got %d", calls)
	}
}

func TestProbeServerUnresponsiveAfterTwoProbes(t *testing.T) {
	orig := pingFn
	t.Cleanup(func() { pingFn = orig })

	calls := 0
	pingFn = func(context.Context, string) error {
		calls++
		return errors.New("connection refused")
	}

	err := ProbeServer(context.Background(), slog.Default(), readyConfig("/tmp/x"), "dsn")
	if !errors.Is(err, ErrUnresponsive) {
		t.Fatalf("expected ErrUnresponsive, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 probes, got %d", calls)
	}
}

func TestProbeServerTreatsAuthRejectionAsAlive(t *testing.T) {
	orig := pingFn
	t.Cleanup(func() { pingFn = orig })

	pingFn = func(context.Context, string) error {
		return &mysql.MySQLError{Number: 1045, Message: "Access denied"}
	}

	if err := ProbeServer(context.Background(), slog.Default(), readyConfig("/tmp/x"), "dsn"); err != nil {
		t.Fatalf("auth rejection proves the server answered, got %v", err)
	}
}

func TestLoginTestWrapsAuthenticationFailure(t *testing.T) {
	orig := pingFn
	t.Cleanup(func() { pingFn = orig })

	pingFn = func(context.Context, string) error {
		return &mysql.MySQLError{Number: 1045, Message: "Access denied"}
	}

	err := LoginTest(context.Background(), slog.Default(), readyConfig("/tmp/x"))
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestDSNUsesUnixSocket(t *testing.T) {
	cfg := readyConfig("/run/mysqld/mysqld.sock")
	dsn := DSN(cfg, "secret")
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("generated DSN does not parse: %v", err)
	}
	if parsed.Net != "unix" || parsed.Addr != "/run/mysqld/mysqld.sock" {
		t.Fatalf("unexpected transport %s/%s", parsed.Net, parsed.Addr)
	}
	if parsed.User != "root" || parsed.Passwd != "secret" {
		t.Fatalf("unexpected credentials %s/%s", parsed.User, parsed.Passwd)
	}
}
