package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/notify"
	"github.com/phpipam-ops/phpipam-provision/internal/provision"
	"github.com/phpipam-ops/phpipam-provision/internal/workflow"
)

func newProvisionCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Run the full phpIPAM stack provisioning pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Secrets may live in a .env next to the config.
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logWriter, closeLog, err := openCombinedLog(cfg.LogFile, dryRun)
			if err != nil {
				return err
			}
			defer closeLog()

			logger, err := newLogger(logFormat, logLevel, logWriter)
			if err != nil {
				return err
			}

			human := !jsonOut && strings.EqualFold(logFormat, "text")
			res, runErr := provision.Run(cmd.Context(), logger, cfg, provision.Options{
				DryRun:        dryRun,
				HumanProgress: human,
				LogWriter:     logWriter,
			})

			if !dryRun {
				if err := workflow.SaveResult(cfg.StateFile, res); err != nil {
					logger.Warn("could not persist provisioning state", "error", err)
				}
			}
			if !dryRun && cfg.Notify.URL != "" {
				msg := fmt.Sprintf("phpIPAM provisioning on %s: %s", cfg.System.Hostname, res.Status)
				if err := notify.Send(cfg.Notify.URL, msg); err != nil {
					logger.Warn("notification failed", "error", err)
				}
			}

			if runErr != nil {
				// Emit the result document for machine consumers, but the
				// failure still decides the exit status.
				if jsonOut {
					_ = printJSON(res)
				}
				return runErr
			}
			if jsonOut {
				return printJSON(res)
			}

			if human {
				fmt.Printf("\n\033[32m✓ provisioning completed\033[0m\n")
				fmt.Printf("  Host:     \033[36m%s\033[0m\n", cfg.System.Hostname)
				fmt.Printf("  Database: \033[36m%s\033[0m\n", cfg.Database.Name)
				fmt.Printf("  App dir:  \033[36m%s\033[0m\n", cfg.AppDir())
				fmt.Printf("  Total:    \033[36m%s\033[0m\n", time.Since(res.StartedAt).Truncate(time.Millisecond))
				fmt.Printf("\nComplete the web installer, then run: phpipam-provision finalize --config %s\n", configPath)
			} else {
				logger.Info("provisioning completed",
					"host", cfg.System.Hostname,
					"database", cfg.Database.Name,
					"duration", time.Since(res.StartedAt).String(),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and print planned steps without changes")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print machine-readable result JSON")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// openCombinedLog returns a writer that duplicates everything to the terminal
// and, unless this is a dry run, appends it to the configured log file.
func openCombinedLog(path string, dryRun bool) (io.Writer, func(), error) {
	if dryRun {
		return os.Stdout, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return io.MultiWriter(os.Stdout, f), func() { _ = f.Close() }, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
