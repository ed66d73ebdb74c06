package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	flagFalse = "$disable_installer = false;"
	flagTrue  = "$disable_installer = true;"
)

// The four finalize gates, each a distinct failure.
var (
	ErrConfigMissing  = errors.New("application config file not found")
	ErrConfigReadOnly = errors.New("application config file is not writable")
	ErrFlagNotFound   = errors.New("disable_installer setting not found")
	ErrFlagNotUpdated = errors.New("disable_installer not updated")
)

// DisableInstaller flips $disable_installer from false to true in the
// deployed config.php. The gates run in order: file exists, file writable,
// flag literally present in its false form, flag reads true after the edit.
//
// A file whose flag already reads true fails the literal-match gate with
// ErrFlagNotFound. The generated helper script behaves the same way, so a
// second run reports failure rather than a no-op.
func DisableInstaller(logger *slog.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConfigMissing, path)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConfigReadOnly, path)
	}
	_ = f.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !strings.Contains(string(content), flagFalse) {
		return fmt.Errorf("%w in %s", ErrFlagNotFound, path)
	}

	updated := strings.Replace(string(content), flagFalse, flagTrue, 1)
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	verify, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("re-read %s: %w", path, err)
	}
	if !strings.Contains(string(verify), flagTrue) {
		return fmt.Errorf("%w in %s", ErrFlagNotUpdated, path)
	}

	logger.Info("web installer disabled", "config", path)
	return nil
}
