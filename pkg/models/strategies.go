package models

import (
	"time"

	"github.com/narwhalmedia/querykit/pkg/query"
	"github.com/narwhalmedia/querykit/pkg/strategy"
)

// PostsOfBlog selects the posts of the named blog ordered by timestamp.
// Providers backed by storage must load Blog.Posts with the blog.
func PostsOfBlog(name string) *strategy.Model[Blog, Post] {
	return strategy.NewModel[Blog, Post](func(q query.Query[Blog]) query.Query[Post] {
		posts := query.SelectMany(q, BlogPosts)
		return query.OrderByFunc(posts, func(p Post) time.Time { return p.Timestamp }, time.Time.Compare).Query
	}, BlogNamed(name))
}

// BlogsInCategory filters blogs by category.
func BlogsInCategory(category Category) *strategy.Model[Blog, Blog] {
	return strategy.NewFilter(BlogInCategory(category))
}

// Titles projects titled entities to their titles.
func Titles[T Titled]() *strategy.Model[T, string] {
	return strategy.NewModel[T, string](func(q query.Query[T]) query.Query[string] {
		return query.Select(q, func(t T) string { return t.GetTitle() })
	})
}
