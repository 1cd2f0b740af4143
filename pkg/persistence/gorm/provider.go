// Package gorm is a query provider backed by a gorm database.
//
// Leading where stages whose specifications carry SQL are translated into the
// statement's WHERE clause. Only widening casts are looked through; any other
// cast ends the pushed prefix. A following skip/take window becomes
// LIMIT/OFFSET. Whatever cannot be translated runs in memory over the loaded
// rows, so results never depend on how much was pushed down.
package gorm

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"time"

	"gorm.io/gorm"

	"github.com/narwhalmedia/querykit/pkg/errors"
	"github.com/narwhalmedia/querykit/pkg/interfaces"
	"github.com/narwhalmedia/querykit/pkg/logger"
	"github.com/narwhalmedia/querykit/pkg/query"
)

// Provider executes query plans against a gorm database.
type Provider struct {
	db       *gorm.DB
	logger   interfaces.Logger
	mode     query.EvaluationMode
	metrics  *Metrics
	preloads map[query.Entity][]string
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(l interfaces.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithEvaluationMode selects where filters are evaluated.
func WithEvaluationMode(mode query.EvaluationMode) Option {
	return func(p *Provider) { p.mode = mode }
}

// WithMetrics records execution metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

// WithPreload loads the named associations whenever entity is queried.
func WithPreload(entity query.Entity, associations ...string) Option {
	return func(p *Provider) {
		p.preloads[entity] = append(p.preloads[entity], associations...)
	}
}

// NewProvider creates a provider over db. Filters are pushed down unless
// another evaluation mode is selected.
func NewProvider(db *gorm.DB, opts ...Option) *Provider {
	p := &Provider{
		db:       db,
		logger:   logger.NewNoop(),
		mode:     query.ModePushdown,
		preloads: make(map[query.Entity][]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("gorm")
	return p
}

// Mode returns the provider's evaluation mode.
func (p *Provider) Mode() query.EvaluationMode { return p.mode }

// statement is the database part of a plan.
type statement struct {
	wheres   []Clause
	outcomes []string
	limit    int
	offset   int
	residual []*query.Stage
}

// windowed reports whether the statement carries LIMIT/OFFSET.
func (s statement) windowed() bool { return s.limit >= 0 }

// countable reports whether counting the statement counts the plan. Casts
// never change how many rows flow.
func (s statement) countable() bool {
	if s.windowed() {
		return false
	}
	for _, st := range s.residual {
		if st.Kind != query.StageCast {
			return false
		}
	}
	return true
}

// split divides the stages of plan between the database and memory.
func (p *Provider) split(plan query.Plan) statement {
	st := statement{limit: -1}
	if p.mode != query.ModePushdown || plan.Source.SQL != nil {
		st.residual = plan.Stages
		return st
	}

	stages := plan.Stages
	i := 0
	inexact := false
	for ; i < len(stages); i++ {
		s := stages[i]
		if s.Kind == query.StageCast && s.Widening {
			st.residual = append(st.residual, s)
			continue
		}
		if s.Kind != query.StageWhere {
			break
		}
		clause := Translate(s.Filter.Body())
		switch {
		case clause.Empty():
			st.outcomes = append(st.outcomes, PushdownNone)
			st.residual = append(st.residual, s)
			inexact = true
		case !clause.Exact:
			st.outcomes = append(st.outcomes, PushdownPartial)
			st.wheres = append(st.wheres, clause)
			st.residual = append(st.residual, s)
			inexact = true
		default:
			st.outcomes = append(st.outcomes, PushdownExact)
			st.wheres = append(st.wheres, clause)
		}
	}

	if inexact {
		st.residual = append(st.residual, stages[i:]...)
		return st
	}

	limit, offset := -1, 0
	j := i
	for ; j < len(stages); j++ {
		s := stages[j]
		if s.Kind == query.StageSkip {
			offset += s.Count
			if limit >= 0 {
				limit = max(limit-s.Count, 0)
			}
			continue
		}
		if s.Kind == query.StageTake {
			if limit < 0 || s.Count < limit {
				limit = s.Count
			}
			continue
		}
		break
	}
	if limit < 0 {
		st.residual = append(st.residual, stages[i:]...)
		return st
	}
	st.limit, st.offset = limit, offset
	st.residual = append(st.residual, stages[j:]...)
	return st
}

// modelType resolves the struct type gorm maps for entity.
func modelType(entity query.Entity) (reflect.Type, error) {
	typ := entity.Type()
	if typ == nil {
		return nil, errors.InvalidArgument("query plan has no entity")
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, errors.InvalidArgument(fmt.Sprintf("%s is not a mapped entity", entity))
	}
	return typ, nil
}

func (p *Provider) build(ctx context.Context, plan query.Plan, st statement, preload bool) (*gorm.DB, error) {
	tx := p.db.WithContext(ctx)
	if plan.Source.SQL != nil {
		text, args, err := Positional(plan.Source.SQL)
		if err != nil {
			return nil, err
		}
		return tx.Raw(text, args...).Session(&gorm.Session{}), nil
	}

	typ, err := modelType(plan.Entity())
	if err != nil {
		return nil, err
	}
	tx = tx.Model(reflect.New(typ).Interface())
	if preload {
		for _, assoc := range p.preloads[plan.Entity()] {
			tx = tx.Preload(assoc)
		}
	}
	for _, c := range st.wheres {
		tx = tx.Where(c.SQL, c.Args...)
	}
	if st.windowed() {
		tx = tx.Limit(st.limit)
		if st.offset > 0 {
			tx = tx.Offset(st.offset)
		}
	}
	// Each iteration of the rows runs its own statement.
	return tx.Session(&gorm.Session{}), nil
}

// Execute implements query.Provider. Rows are loaded when the returned
// sequence is first iterated.
func (p *Provider) Execute(ctx context.Context, plan query.Plan) (iter.Seq2[any, error], error) {
	entity := plan.Entity().String()
	st := p.split(plan)
	tx, err := p.build(ctx, plan, st, true)
	if err != nil {
		p.metrics.observeExecution(entity, string(p.mode), "rejected")
		return nil, err
	}
	for _, outcome := range st.outcomes {
		p.metrics.observePushdown(entity, outcome)
	}

	log := p.logger.WithContext(ctx)
	log.Debug("executing query",
		interfaces.String("entity", entity),
		interfaces.String("mode", string(p.mode)),
		interfaces.Int("pushed_filters", len(st.wheres)),
		interfaces.Int("residual_stages", len(st.residual)),
		interfaces.Bool("windowed", st.windowed()))

	rows := func(yield func(any, error) bool) {
		if st.windowed() && st.limit == 0 {
			p.metrics.observeExecution(entity, string(p.mode), "ok")
			return
		}

		start := time.Now()
		dest := reflect.New(reflect.SliceOf(plan.Entity().Type()))
		var result *gorm.DB
		if plan.Source.SQL != nil {
			result = tx.Scan(dest.Interface())
		} else {
			result = tx.Find(dest.Interface())
		}
		if result.Error != nil {
			p.metrics.observeExecution(entity, string(p.mode), "error")
			log.Error("failed to load rows", interfaces.String("entity", entity), interfaces.Error(result.Error))
			yield(nil, errors.Wrap(errors.ErrorTypeInternal, "loading "+entity, result.Error))
			return
		}

		items := dest.Elem()
		p.metrics.observeLoad(entity, items.Len(), time.Since(start).Seconds())
		p.metrics.observeExecution(entity, string(p.mode), "ok")

		for i := 0; i < items.Len(); i++ {
			if !yield(items.Index(i).Interface(), nil) {
				return
			}
		}
	}

	return query.Evaluate(rows, st.residual), nil
}

// Count implements query.Counter. Plans whose stages all run in the
// database are counted with SELECT COUNT.
func (p *Provider) Count(ctx context.Context, plan query.Plan) (int64, bool, error) {
	st := p.split(plan)
	if plan.Source.SQL != nil || !st.countable() {
		return 0, false, nil
	}
	tx, err := p.build(ctx, plan, st, false)
	if err != nil {
		return 0, false, err
	}

	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, false, errors.Wrap(errors.ErrorTypeInternal, "counting "+plan.Entity().String(), err)
	}
	return n, true, nil
}
