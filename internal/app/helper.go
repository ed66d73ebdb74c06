package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/render"
)

// HelperScriptName is the post-GUI helper emitted next to the application.
const HelperScriptName = "post_gui_setup.sh"

const helperTemplate = `#!/bin/bash
# {{ .ScriptName }} - run after completing the phpIPAM web installer.
# Disables the web installer by flipping $disable_installer in config.php.

CONFIG="{{ .ConfigFile }}"

if [ ! -f "$CONFIG" ]; then
    echo "Error: $CONFIG not found"
    exit 1
fi

if [ ! -w "$CONFIG" ]; then
    echo "Error: $CONFIG is not writable"
    exit 1
fi

if ! grep -q 'disable_installer = false;' "$CONFIG"; then
    echo "Error: disable_installer setting not found in $CONFIG"
    exit 1
fi

sed -i 's/disable_installer = false;/disable_installer = true;/' "$CONFIG"

if ! grep -q 'disable_installer = true;' "$CONFIG"; then
    echo "Error: failed to update disable_installer in $CONFIG"
    exit 1
fi

echo "Installer disabled."
`

type helperData struct {
	ScriptName string
	ConfigFile string
}

// WriteHelperScript emits the executable post-GUI helper into the deployed
// application directory.
func WriteHelperScript(logger *slog.Logger, cfg config.Config) (string, error) {
	content, err := render.Text("helper", helperTemplate, helperData{
		ScriptName: HelperScriptName,
		ConfigFile: cfg.AppConfigFile(),
	})
	if err != nil {
		return "", err
	}

	path := cfg.AppDir() + "/" + HelperScriptName
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return "", fmt.Errorf("write helper script %s: %w", path, err)
	}

	logger.Info("post-GUI helper script written", "path", path)
	return path, nil
}
