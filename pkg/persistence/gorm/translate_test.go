package gorm

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/querykit/pkg/errors"
	"github.com/narwhalmedia/querykit/pkg/models"
	"github.com/narwhalmedia/querykit/pkg/specification"
	"github.com/narwhalmedia/querykit/pkg/sqltext"
)

func hasPosts() *specification.Specification[models.Blog] {
	return specification.Where("has_posts", func(b models.Blog) bool { return len(b.Posts) > 0 })
}

func TestTranslateGolden(t *testing.T) {
	general := models.BlogInCategory(models.CategoryGeneral)

	tests := []struct {
		name string
		spec *specification.Specification[models.Blog]
	}{
		{"leaf_raw", models.BlogNamed("Second")},
		{"leaf_interpolated", general},
		{"and", general.And(models.BlogNamed("First"))},
		{"or", models.BlogNamed("First").Or(models.BlogNamed("Second"))},
		{"not", models.BlogNamed("Third").Not()},
		{"and_partial", general.And(hasPosts())},
		{"or_untranslatable", models.BlogNamed("First").Or(hasPosts())},
		{"not_partial", general.And(hasPosts()).Not()},
		{"universal", specification.All[models.Blog]()},
		{"nested", models.BlogNamed("First").Or(models.BlogNamed("Second")).
			And(models.BlogInCategory(models.CategoryTech).Not())},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, []byte(Translate(tt.spec.Body()).String()))
		})
	}
}

func TestTranslateUntranslatableLeaf(t *testing.T) {
	c := Translate(hasPosts().Body())
	assert.True(t, c.Empty())
	assert.False(t, c.Exact)
}

func TestTranslateTrailingComment(t *testing.T) {
	commented := specification.WhereSQL("named",
		func(b models.Blog) bool { return b.Name == "First" },
		sqltext.NewInterpolated("name = @name -- exact match", map[string]any{"name": "First"}))

	c := Translate(commented.And(models.BlogNamed("Second")).Body())
	assert.Equal(t, "((name = ? -- exact match\n) AND (name = ?))", c.SQL)
	assert.Equal(t, []any{"First", "Second"}, c.Args)
	assert.True(t, c.Exact)
}

func TestPositional(t *testing.T) {
	tests := []struct {
		name     string
		fragment sqltext.Fragment
		text     string
		args     []any
	}{
		{
			name:     "raw keeps placeholders",
			fragment: sqltext.NewRaw("rating >= ? AND rating <= ?", 2, 4),
			text:     "rating >= ? AND rating <= ?",
			args:     []any{2, 4},
		},
		{
			name: "interpolated in order of appearance",
			fragment: sqltext.NewInterpolated("category = @category OR name = @name OR title = @name",
				map[string]any{"category": "tech", "name": "First"}),
			text: "category = ? OR name = ? OR title = ?",
			args: []any{"tech", "First", "First"},
		},
		{
			name:     "quoted literals are left alone",
			fragment: sqltext.NewInterpolated("name = '@home' AND category = @c", map[string]any{"c": "general"}),
			text:     "name = '@home' AND category = ?",
			args:     []any{"general"},
		},
		{
			name:     "quoted identifiers are left alone",
			fragment: sqltext.NewInterpolated(`"@tag" = @tag`, map[string]any{"tag": "go"}),
			text:     `"@tag" = ?`,
			args:     []any{"go"},
		},
		{
			name: "line comments are left alone",
			fragment: sqltext.NewInterpolated("name = @name -- matches @category\nAND rating > @min",
				map[string]any{"name": "First", "min": 3}),
			text: "name = ? -- matches @category\nAND rating > ?",
			args: []any{"First", 3},
		},
		{
			name:     "apostrophe inside a comment",
			fragment: sqltext.NewInterpolated("rating > @min -- don't count drafts", map[string]any{"min": 2}),
			text:     "rating > ? -- don't count drafts",
			args:     []any{2},
		},
		{
			name:     "single minus is not a comment",
			fragment: sqltext.NewInterpolated("rating > @min - 1", map[string]any{"min": 2}),
			text:     "rating > ? - 1",
			args:     []any{2},
		},
		{
			name:     "addresses are not placeholders",
			fragment: sqltext.NewInterpolated("body LIKE user@example", nil),
			text:     "body LIKE user@example",
		},
		{
			name:     "lone at sign",
			fragment: sqltext.NewInterpolated("a @ b", nil),
			text:     "a @ b",
		},
		{
			name: "nil fragment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, args, err := Positional(tt.fragment)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.args, args)
		})
	}

	t.Run("missing parameter", func(t *testing.T) {
		_, _, err := Positional(sqltext.NewInterpolated("name = @name", nil))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidArgument(err))
		assert.Contains(t, err.Error(), "@name")
	})
}
