package cli

import (
	"fmt"
	"os"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage provisioning configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively generate a provisioning config file",
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := os.Stat(outPath); err == nil {
				overwrite := false
				if err := survey.AskOne(&survey.Confirm{
					Message: fmt.Sprintf("%s exists, overwrite?", outPath),
				}, &overwrite); err != nil {
					return nil // Ctrl+C / EOF
				}
				if !overwrite {
					return nil
				}
			}

			cfg, err := askConfig()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			if err := os.WriteFile(outPath, data, 0o600); err != nil {
				return fmt.Errorf("write config %s: %w", outPath, err)
			}
			fmt.Printf("  \033[32m✓ Saved:\033[0m %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "phpipam-provision.yaml", "Where to write the generated config")
	return cmd
}

func askConfig() (config.Config, error) {
	cfg := config.Example()

	questions := []*survey.Question{
		{
			Name:     "hostname",
			Prompt:   &survey.Input{Message: "Host name:", Default: cfg.System.Hostname},
			Validate: survey.Required,
		},
		{
			Name:   "timezone",
			Prompt: &survey.Input{Message: "Timezone:", Default: cfg.System.Timezone},
		},
		{
			Name:   "dbname",
			Prompt: &survey.Input{Message: "Application database name:", Default: cfg.Database.Name},
		},
		{
			Name:   "dbuser",
			Prompt: &survey.Input{Message: "Application database user:", Default: cfg.Database.User},
		},
		{
			Name:     "dbpassword",
			Prompt:   &survey.Password{Message: "Application database password:"},
			Validate: survey.Required,
		},
		{
			Name:     "rootpassword",
			Prompt:   &survey.Password{Message: "Database root password:"},
			Validate: survey.Required,
		},
		{
			Name:   "docroot",
			Prompt: &survey.Input{Message: "Web document root:", Default: cfg.Web.DocumentRoot},
		},
	}

	answers := struct {
		Hostname     string
		Timezone     string
		DBName       string `survey:"dbname"`
		DBUser       string `survey:"dbuser"`
		DBPassword   string `survey:"dbpassword"`
		RootPassword string `survey:"rootpassword"`
		DocRoot      string `survey:"docroot"`
	}{}

	if err := survey.Ask(questions, &answers); err != nil {
		return config.Config{}, err
	}

	cfg.System.Hostname = answers.Hostname
	cfg.System.Timezone = answers.Timezone
	cfg.Database.Name = answers.DBName
	cfg.Database.User = answers.DBUser
	cfg.Database.Password = answers.DBPassword
	cfg.Database.RootPassword = answers.RootPassword
	cfg.Web.DocumentRoot = answers.DocRoot

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
