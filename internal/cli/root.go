// Package cli provides the command-line interface for singleinstance.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rescale/singleinstance/internal/config"
	"github.com/rescale/singleinstance/internal/logging"
	"github.com/rescale/singleinstance/internal/version"
)

// Version information - set by main package at startup
var (
	Version   = "v1.0.0-dev"
	BuildTime = "unknown"
)

// ErrNotRunning is returned by 'status' when no leader answers.
var ErrNotRunning = errors.New("no running instance")

// rootOptions holds the global flags of one command tree.
type rootOptions struct {
	cfgFile   string
	appID     string
	dir       string
	retries   int
	verbose   bool
	register  bool
	noSpinner bool

	logger *logging.Logger
}

// NewRootCmd creates the root command. Running it without a subcommand
// starts the application: the first launch keeps running as the leader,
// later launches hand their arguments to it and exit.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "singleinstance [flags] [--] [args...]",
		Short: "Run an application as a single instance",
		Long: `singleinstance ` + Version + ` - Built: ` + BuildTime + `
Keeps one instance of an application running per user.

The first launch claims a local socket and keeps running. Every later
launch forwards its arguments (for example a deep link) to the running
instance and exits immediately with status 0.

Arguments after the first positional argument are passed through
verbatim; use -- before arguments that start with a dash.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = logging.NewDefaultCLILogger()
			if opts.verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstance(cmd, opts, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&opts.appID, "id", "", "Application identifier (overrides app_id)")
	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "Directory holding the socket (overrides endpoint_dir)")
	rootCmd.PersistentFlags().IntVar(&opts.retries, "retries", -1, "Stale endpoint recovery attempts (overrides retry_budget)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Flags().BoolVar(&opts.register, "register", false, "Register the URI scheme handler when becoming the leader (overrides uri_scheme.register)")
	rootCmd.Flags().BoolVar(&opts.noSpinner, "no-spinner", false, "Print plain lines instead of a spinner")
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.Version = fmt.Sprintf("%s (%s) protocol v%d", Version, BuildTime, version.ProtocolVersion)

	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newEndpointCmd(opts))
	rootCmd.AddCommand(newRegisterCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, releasing the instance...\n", sig)
				cancelFunc()
			}
		}
	}()

	err := NewRootCmd().ExecuteContext(rootContext)

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.AppConfig, error) {
	cfg, err := config.LoadAppConfig(opts.cfgFile)
	if err != nil {
		return nil, err
	}

	if opts.appID != "" {
		cfg.Instance.AppID = opts.appID
	}
	if opts.dir != "" {
		cfg.Instance.EndpointDir = opts.dir
	}
	if opts.retries >= 0 {
		cfg.Instance.RetryBudget = opts.retries
	}
	if f := cmd.Flags().Lookup("register"); f != nil && f.Changed {
		cfg.URIScheme.Register = opts.register
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if !opts.verbose {
		level, _ := logging.ParseLevel(cfg.Logging.Level)
		logging.SetGlobalLevel(level)
	}
	return cfg, nil
}

func (o *rootOptions) log() *logging.Logger {
	if o.logger == nil {
		o.logger = logging.NewDefaultCLILogger()
	}
	return o.logger
}
