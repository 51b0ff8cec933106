package models

import (
	"context"

	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/schema"
)

var skillQB = graph.NewBuilder(schema.Skill)

// Skills upserts and lists Skill nodes, keyed by name
type Skills struct {
	create *graph.Pipeline[*graph.Entity]
	all    *graph.Pipeline[[]*graph.Entity]
}

// NewSkills creates the Skill operations over a store
func NewSkills(store graph.Store) *Skills {
	return &Skills{
		create: graph.NewPipeline(store, skillQB.Merge([]string{"name"}, nil), graph.Single(schema.LabelSkill)).
			WithSetup(normalize(schema.Skill, "name")),
		all: graph.NewPipeline(store, skillQB.Match(), graph.Many(schema.LabelSkill)),
	}
}

// Create upserts one skill
func (s *Skills) Create(ctx context.Context, params map[string]interface{}) (graph.Result[*graph.Entity], error) {
	return s.create.Execute(ctx, params)
}

// CreateMany upserts every skill concurrently; results follow input order
func (s *Skills) CreateMany(ctx context.Context, list []map[string]interface{}) ([]graph.Result[*graph.Entity], error) {
	return s.create.Map(ctx, list)
}

// GetAll lists every skill
func (s *Skills) GetAll(ctx context.Context) (graph.Result[[]*graph.Entity], error) {
	return s.all.Execute(ctx, nil)
}
