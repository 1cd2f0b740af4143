package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/querykit/pkg/config"
)

// secretKeys are never printed by the config command.
var secretKeys = []string{"database.password", "pagination.cursor_encryption_key"}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config <key>",
		Short: "Print the effective value of a configuration key",
		Long: `Print the effective value of a configuration key after defaults, config
files and QUERYKIT_ environment variables are merged.

Keys are dotted, for example database.driver or query.evaluation_mode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer rootOpts.close()
			return runConfig(rootOpts, strings.ToLower(args[0]), cmd.OutOrStdout())
		},
	}
}

func runConfig(opts *RootOptions, key string, w io.Writer) error {
	value := opts.Settings.Get(key)
	if value == nil {
		return fmt.Errorf("unknown config key %q", key)
	}
	for _, secret := range secretKeys {
		if key == secret {
			value = "[redacted]"
		}
	}

	return output(w, opts.Format, map[string]any{"key": key, "value": value}, func(w io.Writer) {
		fmt.Fprintf(w, "%s = %v\n", key, value)
	})
}

// VersionView describes the running build.
type VersionView struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Production  bool   `json:"production"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the service version and environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer rootOpts.close()
			svc := &rootOpts.Container.Config.Service
			view := VersionView{
				Service:     svc.Name,
				Version:     config.GetServiceVersion(svc),
				Environment: svc.Environment,
				Production:  config.IsProduction(svc),
			}
			return output(cmd.OutOrStdout(), rootOpts.Format, view, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s (%s)\n", view.Service, view.Version, view.Environment)
			})
		},
	}
}
