package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/querykit/pkg/database"
	"github.com/narwhalmedia/querykit/pkg/interfaces"
	"github.com/narwhalmedia/querykit/pkg/logger"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	DryRun bool
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer opts.close()
			return runMigrate(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "list pending migrations without applying them")

	return cmd
}

func runMigrate(ctx context.Context, opts *MigrateOptions, w io.Writer) error {
	c := opts.Container
	migrator := database.NewMigrator(c.DB, c.Logger.Zap())

	pending, err := migrator.GetPendingMigrations()
	if err != nil {
		return err
	}
	versions := make([]string, len(pending))
	for i, m := range pending {
		versions[i] = m.Version
	}

	if !opts.DryRun && len(pending) > 0 {
		if err := migrator.Migrate(); err != nil {
			return err
		}
		logger.FromContext(ctx).Info("migrations applied", interfaces.Strings("versions", versions))
	}

	return output(w, opts.Format, map[string]any{"pending": versions, "applied": !opts.DryRun}, func(w io.Writer) {
		if len(versions) == 0 {
			fmt.Fprintln(w, "database is up to date")
			return
		}
		verb := "applied"
		if opts.DryRun {
			verb = "pending"
		}
		for _, v := range versions {
			fmt.Fprintf(w, "%s %s\n", verb, v)
		}
	})
}
