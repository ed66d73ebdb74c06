// Package workflow persists provisioning outcomes so the second installation
// phase can gate on the first.
package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phpipam-ops/phpipam-provision/pkg/model"
)

// ErrNotProvisioned means finalize was invoked without a successful
// provisioning run on record.
var ErrNotProvisioned = errors.New("no successful provisioning run recorded")

// SaveResult writes the provisioning outcome to the state file.
func SaveResult(path string, res model.ProvisionResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode provisioning state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write provisioning state %s: %w", path, err)
	}
	return nil
}

// LoadResult reads a previously saved provisioning outcome.
func LoadResult(path string) (model.ProvisionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ProvisionResult{}, fmt.Errorf("read provisioning state %s: %w", path, err)
	}
	var res model.ProvisionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return model.ProvisionResult{}, fmt.Errorf("parse provisioning state %s: %w", path, err)
	}
	return res, nil
}

// EnsureProvisioned loads the state file and verifies phase one succeeded.
func EnsureProvisioned(path string) (model.ProvisionResult, error) {
	res, err := LoadResult(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.ProvisionResult{}, fmt.Errorf("%w: state file %s missing", ErrNotProvisioned, path)
		}
		return model.ProvisionResult{}, err
	}
	if res.Status != "success" {
		return model.ProvisionResult{}, fmt.Errorf("%w: last run status %q", ErrNotProvisioned, res.Status)
	}
	if res.DryRun {
		return model.ProvisionResult{}, fmt.Errorf("%w: last run was a dry run", ErrNotProvisioned)
	}
	return res, nil
}
