package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/narwhalmedia/querykit/pkg/config"
	"github.com/narwhalmedia/querykit/pkg/database"
	"github.com/narwhalmedia/querykit/pkg/interfaces"
	"github.com/narwhalmedia/querykit/pkg/logger"
	"github.com/narwhalmedia/querykit/pkg/models"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate the schema and insert the sample blogs",
		Long: `Migrate the schema and insert the sample blogs.

Seeding is skipped when the blogs table already has rows, and refused in a
production environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer rootOpts.close()
			return runSeed(cmd.Context(), rootOpts, cmd.OutOrStdout())
		},
	}
}

func runSeed(ctx context.Context, opts *RootOptions, w io.Writer) error {
	c := opts.Container
	if config.IsProduction(&c.Config.Service) {
		return fmt.Errorf("refusing to seed sample data in %s environment", c.Config.Service.Environment)
	}
	if err := database.RunMigrations(c.DB, c.Logger.Zap()); err != nil {
		return err
	}

	var existing int64
	if err := c.DB.Model(&models.Blog{}).Count(&existing).Error; err != nil {
		return err
	}

	inserted := 0
	if existing == 0 {
		blogs := sampleBlogs(time.Now().UTC().Truncate(time.Second))
		if err := c.DB.Create(&blogs).Error; err != nil {
			return fmt.Errorf("failed to seed blogs: %w", err)
		}
		inserted = len(blogs)
	}
	logger.FromContext(ctx).Info("seeded sample data",
		interfaces.Int64("existing", existing),
		interfaces.Int("inserted", inserted))

	return output(w, opts.Format, map[string]int{"inserted": inserted}, func(w io.Writer) {
		if inserted == 0 {
			fmt.Fprintln(w, "blogs already present, nothing inserted")
			return
		}
		fmt.Fprintf(w, "inserted %d blogs\n", inserted)
	})
}

type samplePost struct {
	title  string
	rating int
	age    time.Duration
}

func sampleBlogs(now time.Time) []models.Blog {
	data := []struct {
		name, title string
		category    models.Category
		posts       []samplePost
	}{
		{"gophers", "Gophers Weekly", models.CategoryTech, []samplePost{
			{"Range over functions", 5, 72 * time.Hour},
			{"Generic constraints in practice", 4, 48 * time.Hour},
			{"Go modules cheat sheet", 3, 2 * time.Hour},
		}},
		{"notes", "Field Notes", models.CategoryGeneral, []samplePost{
			{"Weekly roundup", 2, 24 * time.Hour},
			{"Reading list", 4, 6 * time.Hour},
		}},
		{"roads", "Long Roads", models.CategoryTravel, []samplePost{
			{"Crossing the Alps", 5, 96 * time.Hour},
		}},
		{"drafts", "Drafts", models.CategoryGeneral, nil},
	}

	blogs := make([]models.Blog, 0, len(data))
	for _, d := range data {
		b := models.Blog{
			ID:        uuid.New(),
			Name:      d.name,
			Title:     d.title,
			Category:  d.category,
			CreatedAt: now,
		}
		for _, p := range d.posts {
			b.Posts = append(b.Posts, models.Post{
				ID:        uuid.New(),
				BlogID:    b.ID,
				Title:     p.title,
				Body:      p.title + ".",
				Rating:    p.rating,
				Timestamp: now.Add(-p.age),
			})
		}
		blogs = append(blogs, b)
	}
	return blogs
}
