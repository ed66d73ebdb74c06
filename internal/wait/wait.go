// Package wait implements the bounded readiness polling used to gate
// provisioning steps on external services.
package wait

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Stats reports how a wait resolved.
type Stats struct {
	Attempts int
	Elapsed  time.Duration
}

// Options tunes a single wait. DiagnosticLog, when set, is tailed into the
// timeout error so the operator sees why the service never came up.
type Options struct {
	Interval        time.Duration
	MaxAttempts     int
	DiagnosticLog   string
	DiagnosticLines int
}

// TimeoutError is returned when the readiness signal never appeared.
type TimeoutError struct {
	Name       string
	Attempts   int
	Elapsed    time.Duration
	Diagnostic string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s not ready after %d attempts in %s", e.Name, e.Attempts, e.Elapsed.Truncate(time.Millisecond))
	if e.Diagnostic != "" {
		msg += "\n" + e.Diagnostic
	}
	return msg
}

// IsTimeout reports whether err is a readiness timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// For polls check once per interval and succeeds as soon as it returns true.
// It fails after exactly MaxAttempts consecutive false results; there is no
// sleep after the final failed poll.
func For(ctx context.Context, name string, check func(context.Context) bool, opts Options) (Stats, error) {
	if opts.MaxAttempts <= 0 {
		return Stats{}, fmt.Errorf("wait %s: max attempts must be > 0", name)
	}

	started := time.Now()
	stats := Stats{}

	for i := 0; i < opts.MaxAttempts; i++ {
		stats.Attempts = i + 1
		if check(ctx) {
			stats.Elapsed = time.Since(started)
			return stats, nil
		}
		if i == opts.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			stats.Elapsed = time.Since(started)
			return stats, fmt.Errorf("wait %s canceled after %d attempts in %s: %w", name, stats.Attempts, stats.Elapsed.Truncate(time.Millisecond), ctx.Err())
		case <-time.After(opts.Interval):
		}
	}

	stats.Elapsed = time.Since(started)
	return stats, &TimeoutError{
		Name:       name,
		Attempts:   stats.Attempts,
		Elapsed:    stats.Elapsed,
		Diagnostic: diagnostic(opts),
	}
}

func diagnostic(opts Options) string {
	if opts.DiagnosticLog == "" {
		return ""
	}
	tail, err := TailFile(opts.DiagnosticLog, opts.DiagnosticLines)
	if err != nil {
		return fmt.Sprintf("diagnostic log %s unreadable: %v", opts.DiagnosticLog, err)
	}
	return fmt.Sprintf("last %d lines of %s:\n%s", opts.DiagnosticLines, opts.DiagnosticLog, tail)
}

// FileExists is a readiness check for a path (socket files included).
func FileExists(path string) func(context.Context) bool {
	return func(context.Context) bool {
		_, err := os.Stat(path)
		return err == nil
	}
}

// TailFile returns the last n lines of a file.
func TailFile(path string, n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n"), nil
}
