// Package host runs commands on the local machine and tees their combined
// output into the provisioning log.
package host

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes local commands. Output is captured and, when Log is set,
// also streamed into it (the combined provisioning log).
type Runner struct {
	Log io.Writer
}

func NewRunner(log io.Writer) *Runner {
	return &Runner{Log: log}
}

// Command runs a single command and waits for it to finish.
func (r *Runner) Command(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return r.run(cmd, fmt.Sprintf("%s %s", name, strings.Join(args, " ")))
}

// Script feeds a shell script to "bash -s" on stdin.
func (r *Runner) Script(ctx context.Context, script string) (Result, error) {
	cmd := exec.CommandContext(ctx, "bash", "-s")
	cmd.Stdin = strings.NewReader(script)
	return r.run(cmd, "bash -s")
}

func (r *Runner) run(cmd *exec.Cmd, label string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.Log != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Log)
		cmd.Stderr = io.MultiWriter(&stderr, r.Log)
	}

	started := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(started),
	}

	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			res.ExitCode = ee.ExitCode()
			return res, fmt.Errorf("%s failed (exit %d): %s", label, res.ExitCode, excerpt(res.Stderr))
		}
		return res, fmt.Errorf("%s failed: %w", label, err)
	}
	return res, nil
}

func excerpt(stderr string) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return "no stderr output"
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}

// Service controls a named system service. systemctl is preferred; inside
// containers without systemd the classic service wrapper is used instead.
func (r *Runner) Service(ctx context.Context, name, action string) (Result, error) {
	if _, err := exec.LookPath("systemctl"); err == nil {
		return r.Command(ctx, "systemctl", action, name)
	}
	return r.Command(ctx, "service", name, action)
}
