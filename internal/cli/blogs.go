package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/querykit/pkg/models"
	"github.com/narwhalmedia/querykit/pkg/pagination"
	"github.com/narwhalmedia/querykit/pkg/strategy"
)

// BlogsOptions holds flags for the blogs command.
type BlogsOptions struct {
	*RootOptions
	PageOptions
	Category  string
	Name      string
	WithPosts bool
}

// NewBlogsCommand creates the blogs command.
func NewBlogsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BlogsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "blogs",
		Short: "List blogs",
		Example: `  querykit blogs --category general
  querykit blogs --with-posts --size 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer opts.close()
			return runBlogs(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", "", "only blogs of this category")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only the blog with this name")
	cmd.Flags().BoolVar(&opts.WithPosts, "with-posts", false, "only blogs that have posts")
	opts.PageOptions.register(cmd)

	return cmd
}

// BlogView is the listed form of a blog.
type BlogView struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Posts    int    `json:"posts"`
}

func blogsModel(opts *BlogsOptions) *strategy.Model[models.Blog, models.Blog] {
	m := strategy.NewFilter[models.Blog]()
	if opts.Category != "" {
		m = m.Restrict(models.BlogInCategory(models.Category(opts.Category)))
	}
	if opts.Name != "" {
		m = m.Restrict(models.BlogNamed(opts.Name))
	}
	if opts.WithPosts {
		m = m.Restrict(models.BlogHasPosts())
	}
	return m
}

func runBlogs(cmd *cobra.Command, opts *BlogsOptions) error {
	page, size, err := opts.resolve(opts.PageOptions)
	if err != nil {
		return err
	}

	q := strategy.Run[models.Blog, models.Blog](blogsModel(opts), opts.Container.Provider)
	result, err := pagination.Paginate(cmd.Context(), q, page, size)
	if err != nil {
		return err
	}

	items := make([]BlogView, 0, result.Len())
	for _, b := range result.Items() {
		items = append(items, BlogView{Name: b.Name, Title: b.Title, Category: string(b.Category), Posts: len(b.Posts)})
	}
	v, err := view(opts.RootOptions, result, items)
	if err != nil {
		return err
	}

	return output(cmd.OutOrStdout(), opts.Format, v, func(w io.Writer) {
		for _, b := range items {
			fmt.Fprintf(w, "%-10s %-20s %-8s %d posts\n", b.Name, b.Title, b.Category, b.Posts)
		}
		v.footer(w)
	})
}
