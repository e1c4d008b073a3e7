package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rescale/singleinstance/internal/ipc"
)

// newStatusCmd creates the 'status' command.
func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether an instance is running",
		Long: `Connect to the endpoint without sending any arguments.

Prints "running" and exits 0 when a leader answers. Otherwise reports
whether a stale socket file was left behind and exits with status 3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			loc, err := cfg.ResolveEndpoint()
			if err != nil {
				return err
			}

			client := ipc.NewClientWithPath(loc.Path)
			client.SetTimeout(cfg.DialTimeout())

			out := cmd.OutOrStdout()
			err = client.Probe(cmd.Context())
			switch {
			case err == nil:
				fmt.Fprintf(out, "running: %s\n", loc.Path)
				return nil
			case errors.Is(err, ipc.ErrStaleEndpoint):
				if _, statErr := os.Lstat(loc.Path); statErr == nil {
					fmt.Fprintf(out, "not running (stale socket left at %s)\n", loc.Path)
				} else {
					fmt.Fprintf(out, "not running: %s\n", loc.Path)
				}
				return ErrNotRunning
			default:
				return err
			}
		},
	}
}

// newEndpointCmd creates the 'endpoint' command.
func newEndpointCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoint",
		Short: "Print the socket path used by this configuration",
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
			fmt.Fprintln(cmd.OutOrStdout(), loc.Path)
			return nil
		},
	}
}
