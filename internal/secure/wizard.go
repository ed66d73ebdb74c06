package secure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/creack/pty"
)

const wizardBinary = "mysql_secure_installation"

var ptyStartFn = pty.Start

// Transcript is the fixed prompt order mysql_secure_installation emits on a
// fresh installation (no current root password). The final reload entry is
// terminal; the wizard exits after it.
func Transcript(rootPassword string) []Exchange {
	return []Exchange{
		{Expect: "Enter current password for root", Send: ""},
		{Expect: "Set root password?", Send: "y"},
		{Expect: "New password:", Send: rootPassword},
		{Expect: "Re-enter new password:", Send: rootPassword},
		{Expect: "Remove anonymous users?", Send: "y"},
		{Expect: "Disallow root login remotely?", Send: "y"},
		{Expect: "Remove test database and access to it?", Send: "y"},
		{Expect: "Reload privilege tables now?", Send: "y"},
	}
}

// Harden runs the hardening wizard attached to a pseudo-terminal. The wizard
// refuses to prompt without a TTY, so a pipe is not enough.
func Harden(ctx context.Context, logger *slog.Logger, rootPassword string) error {
	cmd := exec.CommandContext(ctx, wizardBinary)
	tty, err := ptyStartFn(cmd)
	if err != nil {
		return fmt.Errorf("start %s: %w", wizardBinary, err)
	}
	defer func() { _ = tty.Close() }()

	logger.Info("driving secure installation wizard")
	if err := Drive(tty, tty, Transcript(rootPassword)); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("secure installation wizard: %w", err)
	}

	// Drain trailing output; the pty read errors once the wizard exits.
	_, _ = io.Copy(io.Discard, tty)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w", wizardBinary, err)
	}
	logger.Info("database installation secured")
	return nil
}
