package gorm

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/narwhalmedia/querykit/pkg/errors"
	"github.com/narwhalmedia/querykit/pkg/logger"
	"github.com/narwhalmedia/querykit/pkg/models"
	"github.com/narwhalmedia/querykit/pkg/pagination"
	"github.com/narwhalmedia/querykit/pkg/query"
	"github.com/narwhalmedia/querykit/pkg/sqltext"
	"github.com/narwhalmedia/querykit/pkg/strategy"
	"github.com/narwhalmedia/querykit/test/testutil"
)

const blogEntity = "models.Blog"

type ProviderTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	blogs    []models.Blog
	metrics  *Metrics
	provider *Provider
}

func (suite *ProviderTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = testutil.NewTestDB(suite.T())
	suite.blogs = testutil.SampleBlogs()
	suite.Require().NoError(testutil.SeedDatabase(suite.db, suite.blogs))

	suite.metrics = NewMetrics(prometheus.NewRegistry())
	suite.provider = suite.newProvider()
}

func (suite *ProviderTestSuite) newProvider(opts ...Option) *Provider {
	base := []Option{
		WithMetrics(suite.metrics),
		WithPreload(query.EntityOf[models.Blog](), "Posts"),
	}
	return NewProvider(suite.db, append(base, opts...)...)
}

func blogNames(blogs []models.Blog) []string {
	names := make([]string, len(blogs))
	for i, b := range blogs {
		names[i] = b.Name
	}
	return names
}

func (suite *ProviderTestSuite) pushdowns(outcome string) float64 {
	return promtestutil.ToFloat64(suite.metrics.pushdowns.WithLabelValues(blogEntity, outcome))
}

func (suite *ProviderTestSuite) TestPostsOfBlog() {
	second, err := strategy.Run[models.Blog, models.Post](models.PostsOfBlog("Second"), suite.provider).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(second, 1)
	suite.Equal(suite.blogs[1].Posts[0].ID, second[0].ID)
	suite.Equal(suite.blogs[1].ID, second[0].BlogID)

	first, err := strategy.Run[models.Blog, models.Post](models.PostsOfBlog("First"), suite.provider).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(first, 2)
	suite.Equal("Early news", first[0].Title)
	suite.Equal("Later news", first[1].Title)

	third, err := strategy.Run[models.Blog, models.Post](models.PostsOfBlog("Third"), suite.provider).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(third)

	suite.Equal(3.0, suite.pushdowns(PushdownExact))
}

func (suite *ProviderTestSuite) TestChainedStrategies() {
	chained := strategy.Then[models.Blog, models.Blog, string](
		models.BlogsInCategory(models.CategoryGeneral),
		models.Titles[models.Blog](),
	)
	got, err := strategy.Run(chained, suite.provider).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.ElementsMatch([]string{"First Title", "Second Title"}, got)
}

func (suite *ProviderTestSuite) TestPartialPushdown() {
	spec := models.BlogInCategory(models.CategoryGeneral).And(hasPosts())
	got, err := query.From[models.Blog](suite.provider).Where(spec).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.ElementsMatch([]string{"First", "Second"}, blogNames(got))
	suite.Equal(1.0, suite.pushdowns(PushdownPartial))

	t := suite.T()
	only, err := query.From[models.Blog](suite.provider).Where(hasPosts()).ToSlice(suite.ctx)
	require.NoError(t, err)
	assert.Len(t, only, 2)
	assert.Equal(t, 1.0, suite.pushdowns(PushdownNone))
}

func (suite *ProviderTestSuite) TestOrAndNot() {
	either := models.BlogNamed("First").Or(models.BlogNamed("Third"))
	got, err := query.From[models.Blog](suite.provider).Where(either).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.ElementsMatch([]string{"First", "Third"}, blogNames(got))

	notGeneral := models.BlogInCategory(models.CategoryGeneral).Not()
	got, err = query.From[models.Blog](suite.provider).Where(notGeneral).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal([]string{"Third"}, blogNames(got))

	suite.Equal(2.0, suite.pushdowns(PushdownExact))
}

func (suite *ProviderTestSuite) TestClientEvaluation() {
	client := suite.newProvider(WithEvaluationMode(query.ModeClient))
	suite.Equal(query.ModeClient, client.Mode())

	spec := models.BlogInCategory(models.CategoryGeneral).And(models.BlogNamed("Second"))
	got, err := query.From[models.Blog](client).Where(spec).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal([]string{"Second"}, blogNames(got))

	suite.Equal(0, promtestutil.CollectAndCount(suite.metrics.pushdowns))
	suite.Equal(1.0, promtestutil.ToFloat64(
		suite.metrics.executions.WithLabelValues(blogEntity, string(query.ModeClient), "ok")))
}

func (suite *ProviderTestSuite) TestPushThroughCast() {
	goPosts := strategy.CastDown[models.Post, models.Titled](strategy.NewFilter(models.TitlePrefix("Go")))
	q := strategy.Run(goPosts, suite.provider)

	st := suite.provider.split(q.Plan())
	suite.Require().Len(st.wheres, 1)
	suite.Equal([]query.StageKind{query.StageCast, query.StageOfType}, stageKinds(st.residual))

	got, err := q.ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(got, 1)
	suite.Equal("Go generics", got[0].Title)
}

func (suite *ProviderTestSuite) TestProjectingCastStaysInMemory() {
	byBody := strategy.CastSource[models.Post, models.Titled, models.Titled](
		strategy.NewFilter(models.TitlePrefix("Body")),
		func(p models.Post) models.Titled { return models.Post{Title: p.Body} },
	)
	client := suite.newProvider(WithEvaluationMode(query.ModeClient))

	q := strategy.Run(byBody, suite.provider)
	st := suite.provider.split(q.Plan())
	suite.Empty(st.wheres)
	suite.Equal([]query.StageKind{query.StageCast, query.StageWhere}, stageKinds(st.residual))

	pushed, err := q.ToSlice(suite.ctx)
	suite.Require().NoError(err)
	evaluated, err := strategy.Run(byBody, client).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(pushed, 3)
	suite.ElementsMatch(evaluated, pushed)

	total, err := q.Count(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	_, counted, err := suite.provider.Count(suite.ctx, q.Plan())
	suite.Require().NoError(err)
	suite.False(counted)
}

func (suite *ProviderTestSuite) TestRawSource() {
	text := sqltext.NewInterpolated("SELECT * FROM blogs WHERE category = @category",
		map[string]any{"category": string(models.CategoryTech)})
	q := query.FromSQL[models.Blog](suite.provider, text)

	got, err := q.ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal([]string{"Third"}, blogNames(got))

	filtered, err := q.Where(models.BlogNamed("First")).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(filtered, "filters over raw sources run in memory")

	n, err := q.Count(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(1), n)
}

func (suite *ProviderTestSuite) TestLoadFailure() {
	q := query.FromSQL[models.Blog](suite.provider, sqltext.NewRaw("SELECT * FROM missing_table"))
	_, err := q.ToSlice(suite.ctx)
	suite.Require().Error(err)
	suite.True(errors.IsInternal(err))
	suite.Equal(1.0, promtestutil.ToFloat64(
		suite.metrics.executions.WithLabelValues(blogEntity, string(query.ModePushdown), "error")))
}

func (suite *ProviderTestSuite) TestUnmappedEntity() {
	_, err := query.From[models.Titled](suite.provider).ToSlice(suite.ctx)
	suite.Require().Error(err)
	suite.True(errors.IsInvalidArgument(err))
}

func (suite *ProviderTestSuite) TestWindowPushdown() {
	general := models.BlogInCategory(models.CategoryGeneral)

	q := query.From[models.Blog](suite.provider).Where(general).Skip(1).Take(5)
	st := suite.provider.split(q.Plan())
	suite.Equal(5, st.limit)
	suite.Equal(1, st.offset)
	suite.Empty(st.residual)

	got, err := q.ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(got, 1)

	none, err := query.From[models.Blog](suite.provider).Take(0).ToSlice(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(none)
}

func (suite *ProviderTestSuite) TestCount() {
	general := models.BlogInCategory(models.CategoryGeneral)

	n, counted, err := suite.provider.Count(suite.ctx, query.From[models.Blog](suite.provider).Where(general).Plan())
	suite.Require().NoError(err)
	suite.True(counted)
	suite.Equal(int64(2), n)

	_, counted, err = suite.provider.Count(suite.ctx, query.From[models.Blog](suite.provider).Where(hasPosts()).Plan())
	suite.Require().NoError(err)
	suite.False(counted, "residual filters need the rows")

	total, err := query.From[models.Blog](suite.provider).Where(hasPosts()).Count(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
}

func (suite *ProviderTestSuite) TestPaginate() {
	page, err := pagination.Paginate(suite.ctx, query.From[models.Blog](suite.provider), 2, 2)
	suite.Require().NoError(err)
	suite.Equal(int64(3), page.TotalCount)
	suite.Equal(1, page.Len())
	suite.Equal(int64(3), page.FirstItemOnPage())
	suite.Equal(int64(3), page.LastItemOnPage())
	suite.True(page.IsLastPage())
}

func (suite *ProviderTestSuite) TestLogsExecutions() {
	core, logs := observer.New(zapcore.DebugLevel)
	p := suite.newProvider(WithLogger(logger.NewFromZap(zap.New(core))))

	_, err := query.From[models.Blog](p).Where(models.BlogNamed("First")).ToSlice(suite.ctx)
	suite.Require().NoError(err)

	entries := logs.FilterMessage("executing query").All()
	suite.Require().Len(entries, 1)
	suite.Equal("gorm", entries[0].LoggerName)
	suite.Equal(int64(1), entries[0].ContextMap()["pushed_filters"])
}

func TestProviderTestSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func stageKinds(stages []*query.Stage) []query.StageKind {
	kinds := make([]query.StageKind, len(stages))
	for i, s := range stages {
		kinds[i] = s.Kind
	}
	return kinds
}

func TestSplitWindow(t *testing.T) {
	p := NewProvider(nil)
	q := query.From[models.Blog](p).Skip(1).Take(3).Skip(1)

	st := p.split(q.Plan())
	assert.Equal(t, 2, st.limit)
	assert.Equal(t, 2, st.offset)
	assert.Empty(t, st.residual)

	t.Run("skip alone stays in memory", func(t *testing.T) {
		st := p.split(query.From[models.Blog](p).Skip(2).Plan())
		assert.False(t, st.windowed())
		assert.Equal(t, []query.StageKind{query.StageSkip}, stageKinds(st.residual))
	})

	t.Run("inexact filters keep the window in memory", func(t *testing.T) {
		st := p.split(query.From[models.Blog](p).Where(hasPosts()).Take(1).Plan())
		assert.False(t, st.windowed())
		assert.Equal(t, []query.StageKind{query.StageWhere, query.StageTake}, stageKinds(st.residual))
	})

	t.Run("ordering stops pushdown", func(t *testing.T) {
		q := query.OrderBy(query.From[models.Blog](p), func(b models.Blog) string { return b.Name }).
			Where(models.BlogNamed("First")).Take(1)
		st := p.split(q.Plan())
		assert.Empty(t, st.wheres)
		assert.Len(t, st.residual, 3)
	})
}
