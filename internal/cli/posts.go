package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/querykit/pkg/models"
	"github.com/narwhalmedia/querykit/pkg/pagination"
	"github.com/narwhalmedia/querykit/pkg/strategy"
)

// PostsOptions holds flags for the posts command.
type PostsOptions struct {
	*RootOptions
	PageOptions
	Blog      string
	MinRating int
	Contains  string
}

// NewPostsCommand creates the posts command.
func NewPostsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List the posts of a blog, oldest first",
		Example: `  querykit posts --blog gophers
  querykit posts --blog gophers --min-rating 4 --contains generic`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer opts.close()
			return runPosts(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Blog, "blog", "", "blog name (required)")
	cmd.Flags().IntVar(&opts.MinRating, "min-rating", 0, "only posts rated at least this")
	cmd.Flags().StringVar(&opts.Contains, "contains", "", "only posts whose title contains this text")
	_ = cmd.MarkFlagRequired("blog")
	opts.PageOptions.register(cmd)

	return cmd
}

// PostView is the listed form of a post.
type PostView struct {
	Title     string    `json:"title"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

func postsStrategy(opts *PostsOptions) strategy.Strategy[models.Blog, models.Post] {
	posts := strategy.NewFilter[models.Post]()
	if opts.MinRating > 0 {
		posts = posts.Restrict(models.PostRatedAtLeast(opts.MinRating))
	}
	var s strategy.Strategy[models.Blog, models.Post] = strategy.Then[models.Blog, models.Post, models.Post](
		models.PostsOfBlog(opts.Blog), posts)
	if opts.Contains != "" {
		titled := strategy.CastDown[models.Post, models.Titled](strategy.NewFilter(models.TitleContains(opts.Contains)))
		s = strategy.Then(s, titled)
	}
	return s
}

func runPosts(cmd *cobra.Command, opts *PostsOptions) error {
	page, size, err := opts.resolve(opts.PageOptions)
	if err != nil {
		return err
	}

	q := strategy.Run(postsStrategy(opts), opts.Container.Provider)
	result, err := pagination.Paginate(cmd.Context(), q, page, size)
	if err != nil {
		return err
	}

	items := make([]PostView, 0, result.Len())
	for _, p := range result.Items() {
		items = append(items, PostView{Title: p.Title, Rating: p.Rating, Timestamp: p.Timestamp})
	}
	v, err := view(opts.RootOptions, result, items)
	if err != nil {
		return err
	}

	return output(cmd.OutOrStdout(), opts.Format, v, func(w io.Writer) {
		for _, p := range items {
			fmt.Fprintf(w, "%s  %d  %s\n", p.Timestamp.Format(time.DateTime), p.Rating, p.Title)
		}
		v.footer(w)
	})
}
