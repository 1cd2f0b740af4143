package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narwhalmedia/querykit/pkg/models"
	"github.com/narwhalmedia/querykit/pkg/persistence/memory"
)

// BaseTime anchors fixture timestamps so tests are deterministic.
var BaseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// CreateTestBlog creates a test blog without posts.
func CreateTestBlog(name string, category models.Category) models.Blog {
	return models.Blog{
		ID:        uuid.New(),
		Name:      name,
		Title:     name + " Title",
		Category:  category,
		CreatedAt: BaseTime,
	}
}

// CreateTestPost creates a post of blog published offset after BaseTime.
func CreateTestPost(blog *models.Blog, title string, rating int, offset time.Duration) models.Post {
	post := models.Post{
		ID:        uuid.New(),
		BlogID:    blog.ID,
		Title:     title,
		Body:      fmt.Sprintf("Body of %s", title),
		Rating:    rating,
		Timestamp: BaseTime.Add(offset),
	}
	blog.Posts = append(blog.Posts, post)
	return post
}

// SampleBlogs returns three blogs: "First" with two posts added out of
// timestamp order, "Second" with one post and "Third" with none. First and
// Second are in the general category.
func SampleBlogs() []models.Blog {
	first := CreateTestBlog("First", models.CategoryGeneral)
	CreateTestPost(&first, "Later news", 4, 2*time.Hour)
	CreateTestPost(&first, "Early news", 2, time.Hour)

	second := CreateTestBlog("Second", models.CategoryGeneral)
	CreateTestPost(&second, "Go generics", 5, 3*time.Hour)

	third := CreateTestBlog("Third", models.CategoryTech)

	return []models.Blog{first, second, third}
}

// NewMemoryProvider returns a memory provider seeded with blogs and their
// posts.
func NewMemoryProvider(blogs []models.Blog) *memory.Provider {
	p := memory.New()
	memory.Register(p, blogs...)
	for _, b := range blogs {
		memory.Register(p, b.Posts...)
	}
	return p
}

// SeedDatabase inserts blogs with their posts.
func SeedDatabase(db *gorm.DB, blogs []models.Blog) error {
	for i := range blogs {
		if err := db.Create(&blogs[i]).Error; err != nil {
			return fmt.Errorf("seeding blog %s: %w", blogs[i].Name, err)
		}
	}
	return nil
}
