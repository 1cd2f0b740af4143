package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups blogs by subject.
type Category string

const (
	CategoryGeneral Category = "general"
	CategoryTech    Category = "tech"
	CategoryTravel  Category = "travel"
)

// Blog is the parent entity of the sample schema.
type Blog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	Title     string    `json:"title" gorm:"not null"`
	Category  Category  `json:"category" gorm:"type:varchar(50);not null;index"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Posts []Post `json:"posts,omitempty" gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE"`
}

// Post is a child entry of a blog.
type Post struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	BlogID    uuid.UUID `json:"blog_id" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	Body      string    `json:"body,omitempty" gorm:"type:text"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
}

// Titled is implemented by entities that carry a display title.
type Titled interface {
	GetTitle() string
}

// GetTitle returns the blog title.
func (b Blog) GetTitle() string { return b.Title }

// GetTitle returns the post title.
func (p Post) GetTitle() string { return p.Title }

// BlogPosts returns the posts of a blog.
func BlogPosts(b Blog) []Post { return b.Posts }

// TableName specifies the table name for Blog.
func (Blog) TableName() string { return "blogs" }

// TableName specifies the table name for Post.
func (Post) TableName() string { return "posts" }

// All returns every model of the sample schema, in migration order.
func All() []any {
	return []any{&Blog{}, &Post{}}
}
