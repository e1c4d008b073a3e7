package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rescale/singleinstance/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage singleinstance configuration",
		Long: `Configuration management commands for singleinstance.

Commands:
  init  - Write a configuration file with defaults and flag overrides
  show  - Display the effective configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd(opts))
	configCmd.AddCommand(newConfigShowCmd(opts))
	configCmd.AddCommand(newConfigPathCmd(opts))

	return configCmd
}

// configPath returns --config or the default location.
func configPath(opts *rootOptions) (string, error) {
	if opts.cfgFile != "" {
		return opts.cfgFile, nil
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file",
		Long: `Write a configuration file holding the defaults plus any --id, --dir
and --retries given on the command line.

Use --force to overwrite an existing file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := config.SaveAppConfig(cfg, path); err != nil {
				return err
			}

			opts.log().Info().Str("path", path).Msg("Configuration written")
			fmt.Fprintf(out, "Configuration saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")
	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			loc, err := cfg.ResolveEndpoint()
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg, loc.Path)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.AppConfig, socketPath string) {
	fmt.Fprintln(w, "[instance]")
	fmt.Fprintf(w, "  app_id               = %s\n", cfg.Instance.AppID)
	fmt.Fprintf(w, "  endpoint_dir         = %s\n", orDefault(cfg.Instance.EndpointDir))
	fmt.Fprintf(w, "  retry_budget         = %d\n", cfg.Instance.RetryBudget)
	fmt.Fprintf(w, "  dial_timeout_seconds = %d\n", cfg.Instance.DialTimeoutSeconds)
	fmt.Fprintf(w, "  (socket)             = %s\n", socketPath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[uri_scheme]")
	fmt.Fprintf(w, "  register = %t\n", cfg.URIScheme.Register)
	fmt.Fprintf(w, "  scheme   = %s\n", cfg.SchemeName())
	fmt.Fprintf(w, "  app_name = %s\n", cfg.DisplayName())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[logging]")
	fmt.Fprintf(w, "  level = %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  file  = %s\n", cfg.Logging.File)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[notifications]")
	fmt.Fprintf(w, "  enabled                   = %t\n", cfg.Notifications.Enabled)
	fmt.Fprintf(w, "  show_activation           = %t\n", cfg.Notifications.ShowActivation)
	fmt.Fprintf(w, "  show_registration_failure = %t\n", cfg.Notifications.ShowRegistrationFailure)
}

func orDefault(s string) string {
	if s == "" {
		return "(platform default)"
	}
	return s
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
