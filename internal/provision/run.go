// Package provision runs the phpIPAM stack provisioning pipeline.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/phpipam-ops/phpipam-provision/internal/config"
	"github.com/phpipam-ops/phpipam-provision/internal/host"
	"github.com/phpipam-ops/phpipam-provision/pkg/model"
)

// CompletionMarker is the literal line written to the combined log once
// every step has succeeded.
const CompletionMarker = "INSTALLATION COMPLETE"

type Options struct {
	DryRun        bool
	HumanProgress bool
	// LogWriter receives the combined run output (terminal tee plus log file).
	LogWriter io.Writer
}

type Result = model.ProvisionResult

type Step = model.StepResult

type stepFunc func(ctx context.Context, logger *slog.Logger, runner *host.Runner, cfg config.Config) error

var (
	installPackagesFn    stepFunc = installPackages
	prepareDataDirFn     stepFunc = prepareDataDir
	startDatabaseFn      stepFunc = startDatabase
	secureDatabaseFn     stepFunc = secureDatabase
	createSchemaFn       stepFunc = createSchema
	installAppFn         stepFunc = installApp
	configureWebserverFn stepFunc = configureWebserver
	systemIdentityFn     stepFunc = applySystemIdentity
	emitHelperFn         stepFunc = emitHelper
)

func plannedSteps() []Step {
	return []Step{
		{Name: "install_packages", Status: model.StepStatusPlanned, Message: "Install database, web server, PHP, and tooling packages"},
		{Name: "prepare_datadir", Status: model.StepStatusPlanned, Message: "Prepare the database data directory (backup-and-init)"},
		{Name: "start_database", Status: model.StepStatusPlanned, Message: "Start the database engine and wait for readiness"},
		{Name: "secure_database", Status: model.StepStatusPlanned, Message: "Drive the secure installation wizard and test root login"},
		{Name: "create_schema", Status: model.StepStatusPlanned, Message: "Create the application database, user, and grants"},
		{Name: "install_app", Status: model.StepStatusPlanned, Message: "Fetch the phpIPAM source and write config.php"},
		{Name: "configure_webserver", Status: model.StepStatusPlanned, Message: "Render the virtual host and restart the web server"},
		{Name: "system_identity", Status: model.StepStatusPlanned, Message: "Apply hostname and timezone"},
		{Name: "emit_helper", Status: model.StepStatusPlanned, Message: "Emit the post-GUI helper script"},
	}
}

// Run executes the provisioning pipeline in fixed order, aborting on the
// first failing step. Configuration is never modified after this point.
func Run(ctx context.Context, logger *slog.Logger, cfg config.Config, opts Options) (Result, error) {
	res := Result{
		Status:       "running",
		StartedAt:    time.Now().UTC(),
		Hostname:     cfg.System.Hostname,
		Database:     cfg.Database.Name,
		DocumentRoot: cfg.Web.DocumentRoot,
		LogFile:      cfg.LogFile,
		DryRun:       opts.DryRun,
	}

	if opts.DryRun {
		res.Steps = plannedSteps()
		res.Status = "planned"
		res.EndedAt = time.Now().UTC()
		return res, nil
	}

	logWriter := opts.LogWriter
	if logWriter == nil {
		logWriter = os.Stdout
	}
	runner := host.NewRunner(logWriter)

	steps := []struct {
		name string
		desc string
		run  stepFunc
	}{
		{"install_packages", "Install database, web server, PHP, and tooling packages", installPackagesFn},
		{"prepare_datadir", "Prepare the database data directory (backup-and-init)", prepareDataDirFn},
		{"start_database", "Start the database engine and wait for readiness", startDatabaseFn},
		{"secure_database", "Drive the secure installation wizard and test root login", secureDatabaseFn},
		{"create_schema", "Create the application database, user, and grants", createSchemaFn},
		{"install_app", "Fetch the phpIPAM source and write config.php", installAppFn},
		{"configure_webserver", "Render the virtual host and restart the web server", configureWebserverFn},
		{"system_identity", "Apply hostname and timezone", systemIdentityFn},
		{"emit_helper", "Emit the post-GUI helper script", emitHelperFn},
	}

	total := len(steps)
	for i, s := range steps {
		current := i + 1
		pct := (current - 1) * 100 / total
		if opts.HumanProgress {
			fmt.Printf("\033[36m[%d/%d]\033[0m \033[1m%s\033[0m \033[90m(%d%%)\033[0m\n", current, total, humanStepLabel(s.name), pct)
			fmt.Printf("  \033[90m%s\033[0m\n", s.desc)
		} else {
			logger.Info("progress",
				"step", fmt.Sprintf("[%d/%d]", current, total),
				"percent", fmt.Sprintf("%d%%", pct),
				"current", s.name,
				"description", s.desc,
			)
		}

		started := time.Now()
		stopHeartbeat := func() {}
		if opts.HumanProgress {
			stopHeartbeat = startStepHeartbeat(s.name)
		} else {
			logger.Info("step start", "step", s.name, "description", s.desc)
		}
		err := s.run(ctx, logger, runner, cfg)
		stopHeartbeat()
		d := time.Since(started)

		if err != nil {
			if opts.HumanProgress {
				fmt.Printf("  \033[31m✗ failed\033[0m in %s\n", d.Truncate(time.Millisecond))
			}
			res.Steps = append(res.Steps, Step{Name: s.name, Status: model.StepStatusFailed, Duration: d, Message: err.Error()})
			res.Status = "failed"
			res.Error = fmt.Sprintf("step %s failed: %v", s.name, err)
			res.EndedAt = time.Now().UTC()
			return res, errors.New(res.Error)
		}

		res.Steps = append(res.Steps, Step{Name: s.name, Status: model.StepStatusSuccess, Duration: d})
		donePct := current * 100 / total
		if opts.HumanProgress {
			fmt.Printf("  \033[32m✓ done\033[0m in %s \033[90m[%d/%d %d%%]\033[0m\n", d.Truncate(time.Millisecond), current, total, donePct)
		} else {
			logger.Info("step success",
				"step", s.name,
				"duration", d.String(),
				"progress", fmt.Sprintf("[%d/%d] %d%%", current, total, donePct),
			)
		}
	}

	fmt.Fprintln(logWriter, CompletionMarker)

	res.Status = "success"
	res.EndedAt = time.Now().UTC()
	return res, nil
}

func humanStepLabel(step string) string {
	return strings.ReplaceAll(step, "_", "-")
}

func startStepHeartbeat(step string) func() {
	done := make(chan struct{})
	started := time.Now()
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fmt.Printf("  \033[90m... %s running (%s)\033[0m\n", humanStepLabel(step), time.Since(started).Truncate(time.Second))
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
