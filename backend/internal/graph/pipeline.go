package graph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"jobgraph/backend/internal/constants"
)

// Result pairs a formatted value with the query that produced it
type Result[T any] struct {
	Value T     `json:"results"`
	Query Query `json:"queries"`
}

// Setup prepares raw input before the template is applied; an error stops the pipeline
// before any query is sent.
type Setup func(params map[string]interface{}) (map[string]interface{}, error)

// Applier turns params into a query; *Template and Cypher implement it
type Applier interface {
	Apply(params map[string]interface{}) Query
}

// Cypher is a fixed statement whose params are supplied by trusted code, not callers
type Cypher struct {
	Text  string
	Write bool
}

// Apply binds params unchanged
func (c Cypher) Apply(params map[string]interface{}) Query {
	bound := make(map[string]interface{}, len(params))
	for k, v := range params {
		bound[k] = v
	}
	return Query{Text: c.Text, Params: bound, Write: c.Write}
}

// Pipeline runs build query -> execute -> format -> post-process. It does not log or retry.
type Pipeline[T any] struct {
	store  Store
	setup  Setup
	tmpl   Applier
	format Formatter[T]
	post   []func(T) (T, error)
}

// NewPipeline binds a template to a formatter over a store
func NewPipeline[T any](store Store, tmpl Applier, format Formatter[T]) *Pipeline[T] {
	return &Pipeline[T]{store: store, tmpl: tmpl, format: format}
}

// WithSetup returns a copy that runs setup on the raw params first
func (p *Pipeline[T]) WithSetup(setup Setup) *Pipeline[T] {
	cp := *p
	cp.setup = setup
	return &cp
}

// Then returns a copy that applies fn to the formatted value
func (p *Pipeline[T]) Then(fn func(T) (T, error)) *Pipeline[T] {
	cp := *p
	cp.post = append(append([]func(T) (T, error){}, p.post...), fn)
	return &cp
}

// Query builds the query Execute would send for params
func (p *Pipeline[T]) Query(params map[string]interface{}) (Query, error) {
	if p.setup != nil {
		prepared, err := p.setup(params)
		if err != nil {
			return Query{}, err
		}
		params = prepared
	}
	return p.tmpl.Apply(params), nil
}

// Execute runs the pipeline once
func (p *Pipeline[T]) Execute(ctx context.Context, params map[string]interface{}) (Result[T], error) {
	var res Result[T]

	q, err := p.Query(params)
	if err != nil {
		return res, err
	}
	res.Query = q

	records, err := p.store.Run(ctx, q)
	if err != nil {
		return res, err
	}

	value, err := p.format(q, records)
	if err != nil {
		return res, err
	}
	for _, fn := range p.post {
		if value, err = fn(value); err != nil {
			return res, err
		}
	}
	res.Value = value
	return res, nil
}

// Map executes the pipeline once per input concurrently; results keep input order
func (p *Pipeline[T]) Map(ctx context.Context, inputs []map[string]interface{}) ([]Result[T], error) {
	return Map(ctx, inputs, p.Execute)
}

// Map applies fn to every input concurrently. out[i] always corresponds to inputs[i],
// whatever order the calls complete in. On failure the first error is returned together
// with the results of the calls that succeeded.
func Map[In, Out any](ctx context.Context, inputs []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(inputs))

	var g errgroup.Group
	g.SetLimit(constants.MaxConcurrentWrites)

	for i, in := range inputs {
		idx := i
		item := in
		g.Go(func() error {
			v, err := fn(ctx, item)
			if err != nil {
				return fmt.Errorf("item %d: %w", idx, err)
			}
			out[idx] = v
			return nil
		})
	}

	return out, g.Wait()
}
