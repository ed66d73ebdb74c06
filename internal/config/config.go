package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/a8m/envsubst"
	"gopkg.in/yaml.v3"
)

// Config holds phpIPAM stack provisioning settings.
type Config struct {
	Database  DatabaseConfig `yaml:"database"`
	Admin     AdminConfig    `yaml:"admin"`
	Web       WebConfig      `yaml:"web"`
	App       AppConfig      `yaml:"app"`
	System    SystemConfig   `yaml:"system"`
	Packages  PackagesConfig `yaml:"packages"`
	Wait      WaitConfig     `yaml:"wait"`
	Notify    NotifyConfig   `yaml:"notify"`
	LogFile   string         `yaml:"log_file"`
	StateFile string         `yaml:"state_file"`
}

var safeIdentifierRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type DatabaseConfig struct {
	Service      string `yaml:"service"`
	Name         string `yaml:"name"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	RootPassword string `yaml:"root_password"`
	DataDir      string `yaml:"data_dir"`
	Socket       string `yaml:"socket"`
	RunUser      string `yaml:"run_user"`
}

type AdminConfig struct {
	Password string `yaml:"password"`
}

type WebConfig struct {
	Service      string `yaml:"service"`
	DocumentRoot string `yaml:"document_root"`
	SiteConfig   string `yaml:"site_config"`
}

type AppConfig struct {
	RepoURL string `yaml:"repo_url"`
	Branch  string `yaml:"branch"`
}

type SystemConfig struct {
	Hostname string `yaml:"hostname"`
	Timezone string `yaml:"timezone"`
}

type PackagesConfig struct {
	Manager string   `yaml:"manager"`
	Names   []string `yaml:"names"`
}

type WaitConfig struct {
	SocketAttempts        int    `yaml:"socket_attempts"`
	SocketIntervalSeconds int    `yaml:"socket_interval_seconds"`
	PingRetryDelaySeconds int    `yaml:"ping_retry_delay_seconds"`
	DiagnosticLog         string `yaml:"diagnostic_log"`
	DiagnosticLines       int    `yaml:"diagnostic_lines"`
}

type NotifyConfig struct {
	URL string `yaml:"url"`
}

func (w WaitConfig) SocketInterval() time.Duration {
	return time.Duration(w.SocketIntervalSeconds) * time.Second
}

func (w WaitConfig) PingRetryDelay() time.Duration {
	return time.Duration(w.PingRetryDelaySeconds) * time.Second
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Service: "mariadb",
			Name:    "phpipam",
			User:    "phpipam",
			DataDir: "/var/lib/mysql",
			Socket:  "/var/lib/mysql/mysql.sock",
			RunUser: "mysql",
		},
		Web: WebConfig{
			Service:      "httpd",
			DocumentRoot: "/var/www/html",
			SiteConfig:   "/etc/httpd/conf.d/phpipam.conf",
		},
		App: AppConfig{
			RepoURL: "https://github.com/phpipam/phpipam.git",
			Branch:  "1.7",
		},
		System: SystemConfig{
			Hostname: "phpipam",
			Timezone: "UTC",
		},
		Packages: PackagesConfig{
			Manager: "dnf",
			Names: []string{
				"mariadb-server", "mariadb", "httpd", "git",
				"php", "php-cli", "php-gd", "php-common", "php-ldap",
				"php-pdo", "php-pear", "php-snmp", "php-xml",
				"php-mysqlnd", "php-mbstring",
			},
		},
		Wait: WaitConfig{
			SocketAttempts:        30,
			SocketIntervalSeconds: 1,
			PingRetryDelaySeconds: 5,
			DiagnosticLog:         "/var/log/mariadb/mariadb.log",
			DiagnosticLines:       20,
		},
		LogFile:   "/var/log/phpipam-provision.log",
		StateFile: "/var/lib/phpipam-provision/state.json",
	}
}

// Example returns the built-in defaults, used as the starting point for
// generated config files.
func Example() Config {
	return defaultConfig()
}

// Load reads a YAML config file with ${VAR} substitution applied, overlays it
// on the defaults, applies PIPAM_* env overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	content, err := envsubst.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

var envLookup = map[string]func(*Config, string){
	"PIPAM_DB_PASSWORD":      func(c *Config, v string) { c.Database.Password = v },
	"PIPAM_DB_ROOT_PASSWORD": func(c *Config, v string) { c.Database.RootPassword = v },
	"PIPAM_ADMIN_PASSWORD":   func(c *Config, v string) { c.Admin.Password = v },
	"PIPAM_HOSTNAME":         func(c *Config, v string) { c.System.Hostname = v },
	"PIPAM_LOG_FILE":         func(c *Config, v string) { c.LogFile = v },
	"PIPAM_NOTIFY_URL":       func(c *Config, v string) { c.Notify.URL = v },
}

func applyEnvOverrides(cfg *Config) {
	for key, set := range envLookup {
		if v := os.Getenv(key); v != "" {
			set(cfg, v)
		}
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Service) == "" {
		return fmt.Errorf("database.service is required")
	}
	if !safeIdentifierRE.MatchString(c.Database.Name) {
		return fmt.Errorf("database.name must match %s", safeIdentifierRE.String())
	}
	if !safeIdentifierRE.MatchString(c.Database.User) {
		return fmt.Errorf("database.user must match %s", safeIdentifierRE.String())
	}
	if strings.TrimSpace(c.Database.Password) == "" {
		return fmt.Errorf("database.password is required (set it in the config or via PIPAM_DB_PASSWORD)")
	}
	if strings.TrimSpace(c.Database.RootPassword) == "" {
		return fmt.Errorf("database.root_password is required (set it in the config or via PIPAM_DB_ROOT_PASSWORD)")
	}
	if strings.TrimSpace(c.Database.DataDir) == "" {
		return fmt.Errorf("database.data_dir is required")
	}
	if strings.TrimSpace(c.Database.Socket) == "" {
		return fmt.Errorf("database.socket is required")
	}
	if strings.TrimSpace(c.Database.RunUser) == "" {
		return fmt.Errorf("database.run_user is required")
	}
	if strings.TrimSpace(c.Web.Service) == "" {
		return fmt.Errorf("web.service is required")
	}
	if strings.TrimSpace(c.Web.DocumentRoot) == "" {
		return fmt.Errorf("web.document_root is required")
	}
	if strings.TrimSpace(c.Web.SiteConfig) == "" {
		return fmt.Errorf("web.site_config is required")
	}
	if strings.TrimSpace(c.App.RepoURL) == "" {
		return fmt.Errorf("app.repo_url is required")
	}
	if strings.TrimSpace(c.App.Branch) == "" {
		return fmt.Errorf("app.branch is required")
	}
	if strings.TrimSpace(c.System.Hostname) == "" {
		return fmt.Errorf("system.hostname is required")
	}
	if strings.TrimSpace(c.System.Timezone) == "" {
		return fmt.Errorf("system.timezone is required")
	}
	if strings.TrimSpace(c.Packages.Manager) == "" {
		return fmt.Errorf("packages.manager is required")
	}
	if len(c.Packages.Names) == 0 {
		return fmt.Errorf("packages.names must not be empty")
	}
	if c.Wait.SocketAttempts <= 0 {
		return fmt.Errorf("wait.socket_attempts must be > 0")
	}
	if c.Wait.SocketIntervalSeconds <= 0 {
		return fmt.Errorf("wait.socket_interval_seconds must be > 0")
	}
	if c.Wait.PingRetryDelaySeconds <= 0 {
		return fmt.Errorf("wait.ping_retry_delay_seconds must be > 0")
	}
	if c.Wait.DiagnosticLines <= 0 {
		return fmt.Errorf("wait.diagnostic_lines must be > 0")
	}
	if strings.TrimSpace(c.LogFile) == "" {
		return fmt.Errorf("log_file is required")
	}
	if strings.TrimSpace(c.StateFile) == "" {
		return fmt.Errorf("state_file is required")
	}
	return nil
}

// AppDir is the checkout directory of the phpIPAM source under the document root.
func (c Config) AppDir() string {
	return c.Web.DocumentRoot + "/phpipam"
}

// AppConfigFile is the deployed application configuration file.
func (c Config) AppConfigFile() string {
	return c.AppDir() + "/config.php"
}
