package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	logFormat string
	logLevel  string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "phpipam-provision",
		Short:         "Provision a phpIPAM stack (MariaDB + web server + phpIPAM source) on this host",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			_, err := newLogger(logFormat, logLevel, os.Stdout)
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text|json")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.AddCommand(newProvisionCmd())
	cmd.AddCommand(newFinalizeCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func Execute() error {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		const (
			red    = "\033[31m"
			yellow = "\033[33m"
			cyan   = "\033[36m"
			reset  = "\033[0m"
		)
		if ue, ok := err.(*userError); ok {
			fmt.Fprintf(os.Stderr, "%sError:%s %s\n", red, reset, ue.Error())
			if hint := ue.Hint(); hint != "" {
				fmt.Fprintf(os.Stderr, "%sHint:%s %s%s%s\n", yellow, reset, cyan, hint, reset)
			}
		} else {
			fmt.Fprintf(os.Stderr, "%sError:%s %v\n", red, reset, err)
		}
		return err
	}
	return nil
}

type userError struct {
	msg  string
	hint string
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Hint() string  { return e.hint }

func newLogger(format, level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid --log-level %q (expected: debug|info|warn|error)", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.ToLower(format) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid --log-format %q (expected: text|json)", format)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}
