package webserver

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/host"
)

type fakeServiceRunner struct {
	services [][]string
}

func (f *fakeServiceRunner) Service(_ context.Context, name, action string) (host.Result, error) {
	f.services = append(f.services, []string{name, action})
	return host.Result{}, nil
}

func TestWriteSiteConfig(t *testing.T) {
	cfg := config.Example()
	cfg.System.Hostname = "ipam.example.net"
	cfg.Web.DocumentRoot = "/srv/www"
	cfg.Web.SiteConfig = filepath.Join(t.TempDir(), "conf.d", "phpipam.conf")

	if err := WriteSiteConfig(slog.Default(), cfg); err != nil {
		t.Fatalf("WriteSiteConfig failed: %v", err)
	}

	content, err := os.ReadFile(cfg.Web.SiteConfig)
	if err != nil {
		t.Fatalf("site config missing: %v", err)
	}
	vhost := string(content)
	if !strings.Contains(vhost, "ServerName ipam.example.net") {
		t.Fatalf("server name not rendered:\n%s", vhost)
	}
	if !strings.Contains(vhost, `DocumentRoot "/srv/www/phpipam"`) {
		t.Fatalf("document root not rendered:\n%s", vhost)
	}
}

func TestReloadRestartsConfiguredService(t *testing.T) {
	cfg := config.Example()
	runner := &fakeServiceRunner{}

	if err := Reload(context.Background(), slog.Default(), runner, cfg); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(runner.services) != 1 || runner.services[0][0] != "httpd" || runner.services[0][1] != "restart" {
		t.Fatalf("unexpected service control: %v", runner.services)
	}
}
