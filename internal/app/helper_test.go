package app

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestWriteHelperScript(t *testing.T) {
	cfg := appConfig(t)
	if err := os.MkdirAll(cfg.AppDir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, err := WriteHelperScript(slog.Default(), cfg)
	if err != nil {
		t.Fatalf("WriteHelperScript failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("helper script missing: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("helper script is not executable: %v", info.Mode())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read helper: %v", err)
	}
	script := string(content)

	if !strings.HasPrefix(script, "#!/bin/bash") {
		t.Fatalf("missing shebang: %q", script[:20])
	}
	if !strings.Contains(script, cfg.AppConfigFile()) {
		t.Fatalf("helper does not target the deployed config: %s", script)
	}
	// The four validation gates, in order.
	for _, gate := range []string{
		`[ ! -f "$CONFIG" ]`,
		`[ ! -w "$CONFIG" ]`,
		"grep -q 'disable_installer = false;'",
		"grep -q 'disable_installer = true;'",
	} {
		if !strings.Contains(script, gate) {
			t.Fatalf("helper missing gate %q", gate)
		}
	}
}
