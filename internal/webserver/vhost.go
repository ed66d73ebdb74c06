// Package webserver renders and installs the phpIPAM virtual host.
package webserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/host"
	"github.com/phpipam-ops/phpipam-provision/internal/render"
)

const vhostTemplate = `<VirtualHost *:80>
    ServerName {{ .Hostname }}
    DocumentRoot "{{ .DocumentRoot }}/phpipam"

    <Directory "{{ .DocumentRoot }}/phpipam">
        Options FollowSymLinks
        AllowOverride All
        Require all granted
    </Directory>

    ErrorLog logs/phpipam-error.log
    CustomLog logs/phpipam-access.log combined
</VirtualHost>
`

type vhostData struct {
	Hostname     string
	DocumentRoot string
}

// ServiceRunner is the service-control slice of host.Runner.
type ServiceRunner interface {
	Service(ctx context.Context, name, action string) (host.Result, error)
}

// WriteSiteConfig renders the virtual host and writes it to the configured
// site config path.
func WriteSiteConfig(logger *slog.Logger, cfg config.Config) error {
	content, err := render.Text("vhost", vhostTemplate, vhostData{
		Hostname:     cfg.System.Hostname,
		DocumentRoot: cfg.Web.DocumentRoot,
	})
	if err != nil {
		return err
	}

	path := cfg.Web.SiteConfig
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create site config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write site config %s: %w", path, err)
	}

	logger.Info("virtual host written", "path", path, "server_name", cfg.System.Hostname)
	return nil
}

// Reload restarts the web server so the new virtual host takes effect.
// Restart rather than reload: on a fresh host the server is not running yet.
func Reload(ctx context.Context, logger *slog.Logger, runner ServiceRunner, cfg config.Config) error {
	if _, err := runner.Service(ctx, cfg.Web.Service, "restart"); err != nil {
		return fmt.Errorf("restart web server: %w", err)
	}
	logger.Info("web server restarted", "service", cfg.Web.Service)
	return nil
}
