// Package memory is a query provider over in-process slices.
package memory

import (
	"context"
	"iter"
	"sync"

	"github.com/narwhalmedia/querykit/pkg/errors"
	"github.com/narwhalmedia/querykit/pkg/interfaces"
	"github.com/narwhalmedia/querykit/pkg/logger"
	"github.com/narwhalmedia/querykit/pkg/query"
)

// Provider serves registered entities and evaluates every stage in memory
// through compiled specifications.
type Provider struct {
	mu     sync.RWMutex
	data   map[query.Entity][]any
	logger interfaces.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(l interfaces.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// New creates an empty provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		data:   make(map[query.Entity][]any),
		logger: logger.NewNoop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("memory")
	return p
}

// Register appends items to the source of entity T.
func Register[T any](p *Provider, items ...T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entity := query.EntityOf[T]()
	for _, item := range items {
		p.data[entity] = append(p.data[entity], item)
	}
}

// Reset removes every registered item of entity T.
func Reset[T any](p *Provider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, query.EntityOf[T]())
}

func (p *Provider) snapshot(entity query.Entity) []any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]any(nil), p.data[entity]...)
}

// Execute implements query.Provider. Unknown entities yield no rows.
func (p *Provider) Execute(ctx context.Context, plan query.Plan) (iter.Seq2[any, error], error) {
	if plan.Source.SQL != nil {
		return nil, errors.InvalidArgument("memory provider cannot run raw query text")
	}

	rows := p.snapshot(plan.Entity())
	p.logger.WithContext(ctx).Debug("executing query",
		interfaces.String("entity", plan.Entity().String()),
		interfaces.Int("rows", len(rows)),
		interfaces.Int("stages", len(plan.Stages)))

	return query.Evaluate(query.Rows(rows), plan.Stages), nil
}

// Count implements query.Counter for plans without stages.
func (p *Provider) Count(_ context.Context, plan query.Plan) (int64, bool, error) {
	if plan.Source.SQL != nil {
		return 0, false, errors.InvalidArgument("memory provider cannot run raw query text")
	}
	if len(plan.Stages) > 0 {
		return 0, false, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return int64(len(p.data[plan.Entity()])), true, nil
}
