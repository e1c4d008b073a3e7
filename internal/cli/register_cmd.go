package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rescale/singleinstance/internal/pathutil"
	"github.com/rescale/singleinstance/internal/registrar"
)

// newRegisterCmd creates the 'register' command.
func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var exePath string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the URI scheme handler (Windows only)",
		Long: `Make this executable (or --exe) the handler of the configured URI scheme
for the current user, so that scheme://... links launch it.

Writes HKCU\SOFTWARE\Classes\<scheme>. The scheme defaults to the
application identifier; set [uri_scheme] scheme in the config to change it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := registrar.ValidatePlatform(); err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			scheme := cfg.SchemeName()

			exe := exePath
			if exe == "" {
				exe, err = pathutil.ExecutablePath()
				if err != nil {
					return err
				}
			}

			if err := registrar.Register(exe, scheme, cfg.DisplayName(), opts.log()); err != nil {
				return err
			}

			current, err := registrar.Registered(scheme)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s:// -> %s\n", scheme, current)
			return nil
		},
	}

	cmd.Flags().StringVar(&exePath, "exe", "", "Executable to register (default: this binary)")
	return cmd
}
