package wait

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestForSucceedsAfterExactlyKPolls(t *testing.T) {
	calls := 0
	check := func(context.Context) bool {
		calls++
		return calls == 3
	}

	stats, err := For(context.Background(), "thing", check, Options{
		Interval:    time.Millisecond,
		MaxAttempts: 10,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 polls, got %d", calls)
	}
	if stats.Attempts != 3 {
		t.Fatalf("expected 3 attempts recorded, got %d", stats.Attempts)
	}
}

func TestForFailsAfterExactlyMaxAttempts(t *testing.T) {
	calls := 0
	check := func(context.Context) bool {
		calls++
		return false
	}

	stats, err := For(context.Background(), "thing", check, Options{
		Interval:    time.Millisecond,
		MaxAttempts: 5,
	})
	if err == nil {
		t.Fatalf("expected timeout")
	}
	if !IsTimeout(err) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
	if calls != 5 {
		t.Fatalf("expected exactly 5 polls, got %d", calls)
	}
	if stats.Attempts != 5 {
		t.Fatalf("expected 5 attempts recorded, got %d", stats.Attempts)
	}
}

func TestForHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := For(ctx, "thing", func(context.Context) bool { return false }, Options{
		Interval:    time.Second,
		MaxAttempts: 10,
	})
	if err == nil || IsTimeout(err) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestForRejectsZeroAttempts(t *testing.T) {
	_, err := For(context.Background(), "thing", func(context.Context) bool { return true }, Options{})
	if err == nil {
		t.Fatalf("expected error for zero max attempts")
	}
}

func TestTimeoutCarriesDiagnosticTail(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "engine.log")
	if err := os.WriteFile(logPath, []byte("one\ntwo\nthree\nfour\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	_, err := For(context.Background(), "engine", func(context.Context) bool { return false }, Options{
		Interval:        time.Millisecond,
		MaxAttempts:     1,
		DiagnosticLog:   logPath,
		DiagnosticLines: 2,
	})
	if err == nil {
		t.Fatalf("expected timeout")
	}
	msg := err.Error()
	if !strings.Contains(msg, "three\nfour") {
		t.Fatalf("expected log tail in error, got %q", msg)
	}
	if strings.Contains(msg, "one") {
		t.Fatalf("expected only the last 2 lines, got %q", msg)
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sock")
	check := FileExists(path)
	if check(context.Background()) {
		t.Fatalf("expected false for missing file")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !check(context.Background()) {
		t.Fatalf("expected true once file exists")
	}
}

func TestTailFileShorterThanRequested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.log")
	if err := os.WriteFile(path, []byte("only\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tail, err := TailFile(path, 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if tail != "only" {
		t.Fatalf("unexpected tail: %q", tail)
	}
}
