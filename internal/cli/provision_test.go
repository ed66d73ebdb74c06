package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeBrokenConfig writes a valid config whose package manager points at a
// binary that does not exist, so the first pipeline step fails.
func writeBrokenConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := `database:
  password: apppw
  root_password: rootpw
packages:
  manager: ` + filepath.Join(dir, "no-such-manager") + `
log_file: ` + filepath.Join(dir, "provision.log") + `
state_file: ` + filepath.Join(dir, "state.json") + `
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestProvisionFailureWithJSONOutputReturnsError(t *testing.T) {
	cfgPath := writeBrokenConfig(t)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"provision", "--config", cfgPath, "--json"})

	err := cmd.Execute()
	if err == nil {
		t.Fatalf("failed run with --json must surface an error so the process exits non-zero")
	}
	if !strings.Contains(err.Error(), "install_packages") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProvisionFailureWithoutJSONReturnsError(t *testing.T) {
	cfgPath := writeBrokenConfig(t)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"provision", "--config", cfgPath, "--log-format", "json"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("failed run must surface an error")
	}
}
