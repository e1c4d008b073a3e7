package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rescale/singleinstance/internal/config"
	"github.com/rescale/singleinstance/internal/constants"
	"github.com/rescale/singleinstance/internal/events"
	"github.com/rescale/singleinstance/internal/instance"
	"github.com/rescale/singleinstance/internal/logging"
	"github.com/rescale/singleinstance/internal/notify"
	"github.com/rescale/singleinstance/internal/pathutil"
	"github.com/rescale/singleinstance/internal/progress"
	"github.com/rescale/singleinstance/internal/registrar"
)

// runInstance is the root command: claim the endpoint or hand args over.
func runInstance(cmd *cobra.Command, opts *rootOptions, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	defer bus.Close()
	activations := bus.Subscribe(events.EventActivation)
	logEvents := bus.Subscribe(events.EventLog)

	logger := opts.log().WithEventBus(bus)
	logPath, err := cfg.LogFilePath()
	if err != nil {
		return fmt.Errorf("invalid log file: %w", err)
	}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		fileWriter := logging.NewFileWriter(logPath)
		defer fileWriter.Close()
		logger = logger.WithFile(fileWriter)
	}

	loc, err := cfg.ResolveEndpoint()
	if err != nil {
		return err
	}

	notifier := notify.NewNotifier(cfg.DisplayName(), &notify.Config{
		Enabled:                 cfg.Notifications.Enabled,
		ShowActivation:          cfg.Notifications.ShowActivation,
		ShowRegistrationFailure: cfg.Notifications.ShowRegistrationFailure,
	}, logger)

	coord := instance.NewCoordinator(loc, notifier.Activation,
		instance.WithLogger(logger),
		instance.WithEventBus(bus),
		instance.WithDialTimeout(cfg.DialTimeout()),
	)

	role, err := coord.Setup(ctx, args, cfg.Instance.RetryBudget)
	if err != nil {
		return fmt.Errorf("failed to set up single instance at %s: %w", loc.Path, err)
	}
	if role.ShouldExit() {
		return nil
	}
	defer coord.Shutdown()

	if cfg.URIScheme.Register {
		registerScheme(cfg, logger, notifier)
	}

	reporter := progress.NewReporter(cmd.OutOrStdout(), !opts.noSpinner)
	reporter.Println("Launched with: " + formatArgs(args))
	reporter.Start(fmt.Sprintf("Running as the only instance (%s)", coord.Location().Path))
	defer reporter.Finish()

	ticker := time.NewTicker(constants.SpinnerRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-coord.Done():
			return errors.New("activation listener stopped unexpectedly")
		case ev, ok := <-activations:
			if !ok {
				return nil
			}
			if a, isActivation := ev.(*events.ActivationEvent); isActivation {
				reporter.Println("Activated by another launch: " + formatArgs(a.Args))
			}
		case ev, ok := <-logEvents:
			if !ok {
				return nil
			}
			// ipc warnings are rejected or broken activations
			if l, isLog := ev.(*events.LogEvent); isLog && l.Component == "ipc" {
				reporter.Println("Activation problem: " + l.Message)
			}
		case <-ticker.C:
			reporter.Tick()
		}
	}
}

// registerScheme points the URI scheme at this executable. Failures are
// reported but never stop the leader.
func registerScheme(cfg *config.AppConfig, logger *logging.Logger, notifier *notify.Notifier) {
	scheme := cfg.SchemeName()
	if err := registrar.ValidatePlatform(); err != nil {
		logger.Debug().Err(err).Str("scheme", scheme).Msg("Skipping URI scheme registration")
		return
	}

	exe, err := pathutil.ExecutablePath()
	if err == nil {
		err = registrar.Register(exe, scheme, cfg.DisplayName(), logger)
	}
	if err != nil {
		logger.Warn().Err(err).Str("scheme", scheme).Msg("Failed to register URI scheme handler")
		notifier.RegistrationFailed(scheme, err)
	}
}

// formatArgs quotes each argument so empty and spaced values stay visible.
func formatArgs(args []string) string {
	if len(args) == 0 {
		return "(no arguments)"
	}
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = strconv.Quote(a)
	}
	return strings.Join(quoted, " ")
}
