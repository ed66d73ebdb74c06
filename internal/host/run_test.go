package host

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestCommandCapturesStdout(t *testing.T) {
	var log bytes.Buffer
	r := NewRunner(&log)

	res, err := r.Command(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if res.Stdout != "hello\n" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
	if !strings.Contains(log.String(), "hello") {
		t.Fatalf("output not teed into log: %q", log.String())
	}
}

func TestScriptReportsExitCode(t *testing.T) {
	var log bytes.Buffer
	r := NewRunner(&log)

	res, err := r.Script(context.Background(), "echo out; echo err >&2; exit 3")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if res.ExitCode != 3 {
		t.Fatalf("unexpected exit code %d", res.ExitCode)
	}
	if !strings.Contains(err.Error(), "exit 3") {
		t.Fatalf("error does not carry exit code: %v", err)
	}
	if !strings.Contains(res.Stderr, "err") {
		t.Fatalf("stderr not captured: %q", res.Stderr)
	}
	if !strings.Contains(res.Stdout, "out") {
		t.Fatalf("stdout not captured: %q", res.Stdout)
	}
}

func TestCommandMissingBinary(t *testing.T) {
	r := NewRunner(nil)
	_, err := r.Command(context.Background(), "definitely-not-a-binary-xyz")
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
}

func TestExcerptKeepsLastLines(t *testing.T) {
	got := excerpt("a\nb\nc\nd\ne\nf\ng")
	if got != "c | d | e | f | g" {
		t.Fatalf("unexpected excerpt %q", got)
	}
	if excerpt("  \n ") != "no stderr output" {
		t.Fatalf("empty stderr not handled")
	}
}
