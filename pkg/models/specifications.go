package models

import (
	"strings"
	"time"

	"github.com/narwhalmedia/querykit/pkg/specification"
	"github.com/narwhalmedia/querykit/pkg/sqltext"
)

// BlogNamed matches the blog with the given name.
func BlogNamed(name string) *specification.Specification[Blog] {
	return specification.WhereSQL("blog_named",
		func(b Blog) bool { return b.Name == name },
		sqltext.NewRaw("name = ?", name))
}

// BlogInCategory matches blogs of the given category.
func BlogInCategory(category Category) *specification.Specification[Blog] {
	return specification.WhereSQL("blog_in_category",
		func(b Blog) bool { return b.Category == category },
		sqltext.NewInterpolated("category = @category", map[string]any{"category": string(category)}))
}

// PostRatedAtLeast matches posts rated min or higher.
func PostRatedAtLeast(min int) *specification.Specification[Post] {
	return specification.WhereSQL("post_rated_at_least",
		func(p Post) bool { return p.Rating >= min },
		sqltext.NewRaw("rating >= ?", min))
}

// PostPublishedAfter matches posts published strictly after t.
func PostPublishedAfter(t time.Time) *specification.Specification[Post] {
	return specification.WhereSQL("post_published_after",
		func(p Post) bool { return p.Timestamp.After(t) },
		sqltext.NewRaw("timestamp > ?", t))
}

// TitleContains matches titled entities whose title contains s, ignoring
// case. It has no SQL form and always runs in memory.
func TitleContains(s string) *specification.Specification[Titled] {
	needle := strings.ToLower(s)
	return specification.Where("title_contains", func(t Titled) bool {
		return strings.Contains(strings.ToLower(t.GetTitle()), needle)
	})
}

// TitlePrefix matches titled entities whose title starts with prefix.
func TitlePrefix(prefix string) *specification.Specification[Titled] {
	return specification.WhereSQL("title_prefix",
		func(t Titled) bool { return strings.HasPrefix(t.GetTitle(), prefix) },
		sqltext.NewRaw("title LIKE ?", prefix+"%"))
}

// BlogHasPosts matches blogs with at least one loaded post. It has no SQL
// form.
func BlogHasPosts() *specification.Specification[Blog] {
	return specification.Where("blog_has_posts", func(b Blog) bool { return len(b.Posts) > 0 })
}
