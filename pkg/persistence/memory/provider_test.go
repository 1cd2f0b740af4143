package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/narwhalmedia/querykit/pkg/errors"
	"github.com/narwhalmedia/querykit/pkg/logger"
	"github.com/narwhalmedia/querykit/pkg/query"
	"github.com/narwhalmedia/querykit/pkg/specification"
	"github.com/narwhalmedia/querykit/pkg/sqltext"
)

type item struct {
	Name  string
	Price int
}

func TestProviderEvaluatesPlans(t *testing.T) {
	ctx := context.Background()
	p := New()
	Register(p, item{"a", 3}, item{"b", 1}, item{"c", 2})

	cheap := specification.Where("cheap", func(i item) bool { return i.Price < 3 })
	names, err := query.Select(
		query.OrderBy(query.From[item](p).Where(cheap), func(i item) int { return i.Price }).Query,
		func(i item) string { return i.Name },
	).ToSlice(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names)

	n, err := query.From[item](p).Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestUnknownEntityIsEmpty(t *testing.T) {
	got, err := query.From[string](New()).ToSlice(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRawSQLIsRejected(t *testing.T) {
	q := query.FromSQL[item](New(), sqltext.NewRaw("SELECT * FROM items"))

	_, err := q.ToSlice(context.Background())
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = q.Count(context.Background())
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestExecutionUsesSnapshot(t *testing.T) {
	ctx := context.Background()
	p := New()
	Register(p, 1, 2)

	seq, err := query.From[int](p).Seq(ctx)
	require.NoError(t, err)
	Register(p, 3)

	var got []int
	for v, err := range seq {
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2}, got)

	Reset[int](p)
	n, err := query.From[int](p).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConcurrentRegistrationAndQueries(t *testing.T) {
	ctx := context.Background()
	p := New()
	even := specification.Where("even", func(n int) bool { return n%2 == 0 })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			Register(p, i)
		}(i)
		go func() {
			defer wg.Done()
			_, err := query.From[int](p).Where(even).ToSlice(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := query.From[int](p).Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 8, n)
}

func TestLogsExecutions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := New(WithLogger(logger.NewFromZap(zap.New(core))))
	Register(p, item{"a", 1})

	_, err := query.From[item](p).ToSlice(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessage("executing query").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "memory", entries[0].LoggerName)
	assert.Equal(t, "memory.item", entries[0].ContextMap()["entity"])
}
