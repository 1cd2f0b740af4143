// Package cli implements the querykit command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/querykit/internal/container"
	"github.com/narwhalmedia/querykit/pkg/config"
	"github.com/narwhalmedia/querykit/pkg/logger"
	"github.com/narwhalmedia/querykit/pkg/query"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Mode       string
	Format     string

	// Container is built before a subcommand runs and released after it.
	Container *container.Container
	// Settings holds the merged configuration values by key.
	Settings *config.Manager
	cleanup  func()
}

// NewRootCommand creates the root command for the querykit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "querykit",
		Short: "Query the sample blog database through specifications",
		Long: `querykit runs specification-based queries against the sample blog schema.

Filters that carry SQL are pushed to the database; the rest run in memory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if err := opts.open(); err != nil {
				return err
			}
			ctx := logger.WithContext(cmd.Context(), opts.Container.Logger)
			cmd.SetContext(logger.ContextWithFields(ctx, logger.String("command", cmd.Name())))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (yaml or json)")
	cmd.PersistentFlags().StringVar(&opts.Mode, "mode", "", "evaluation mode (pushdown|client)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewBlogsCommand(opts))
	cmd.AddCommand(NewPostsCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

func (o *RootOptions) open() error {
	var paths []string
	if o.ConfigPath != "" {
		paths = append(paths, o.ConfigPath)
	}

	cfg := config.GetDefaults()
	settings, err := config.LoadServiceConfig(config.DefaultServiceName, cfg, paths...)
	if err != nil {
		return err
	}
	if o.Mode != "" {
		mode, err := query.ParseEvaluationMode(o.Mode)
		if err != nil {
			return err
		}
		cfg.Query.EvaluationMode = string(mode)
	}

	c, cleanup, err := container.InitializeContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	o.Container, o.Settings, o.cleanup = c, settings, cleanup
	return nil
}

func (o *RootOptions) close() {
	if o.cleanup != nil {
		o.cleanup()
		o.cleanup = nil
	}
	o.Container, o.Settings = nil, nil
}
