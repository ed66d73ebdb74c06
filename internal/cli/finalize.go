package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/phpipam-ops/phpipam-provision/internal/app"
	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/db"
	"github.com/phpipam-ops/phpipam-provision/internal/workflow"
)

func newFinalizeCmd() *cobra.Command {
	var (
		configPath string
		resetAdmin bool
	)

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Disable the phpIPAM web installer after the manual GUI setup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := newLogger(logFormat, logLevel, os.Stdout)
			if err != nil {
				return err
			}

			if _, err := workflow.EnsureProvisioned(cfg.StateFile); err != nil {
				if errors.Is(err, workflow.ErrNotProvisioned) {
					return &userError{
						msg:  err.Error(),
						hint: fmt.Sprintf("Run: phpipam-provision provision --config %s", configPath),
					}
				}
				return err
			}

			if err := app.DisableInstaller(logger, cfg.AppConfigFile()); err != nil {
				return err
			}

			if resetAdmin {
				if cfg.Admin.Password == "" {
					return &userError{
						msg:  "--reset-admin-password requires admin.password in the config",
						hint: "Set admin.password in the YAML config or export PIPAM_ADMIN_PASSWORD",
					}
				}
				handle, err := db.Open(cfg, cfg.Database.RootPassword)
				if err != nil {
					return err
				}
				defer func() { _ = handle.Close() }()
				if err := db.ResetAdminPassword(cmd.Context(), logger, handle, cfg.Database.Name, cfg.Admin.Password); err != nil {
					return err
				}
			}

			logger.Info("finalize completed", "config", cfg.AppConfigFile())
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().BoolVar(&resetAdmin, "reset-admin-password", false, "Also reset the phpIPAM admin password from the config")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
