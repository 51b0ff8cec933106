package models

import (
	"context"

	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/schema"
)

var locationQB = graph.NewBuilder(schema.Location)

// Locations upserts and lists Location nodes, keyed by city
type Locations struct {
	create *graph.Pipeline[*graph.Entity]
	all    *graph.Pipeline[[]*graph.Entity]
}

func NewLocations(store graph.Store) *Locations {
	return &Locations{
		create: graph.NewPipeline(store, locationQB.Merge([]string{"city"}, nil), graph.Single(schema.LabelLocation)).
			WithSetup(normalize(schema.Location, "city")),
		all: graph.NewPipeline(store, locationQB.Match(), graph.Many(schema.LabelLocation)),
	}
}

func (l *Locations) Create(ctx context.Context, params map[string]interface{}) (graph.Result[*graph.Entity], error) {
	return l.create.Execute(ctx, params)
}

func (l *Locations) GetAll(ctx context.Context) (graph.Result[[]*graph.Entity], error) {
	return l.all.Execute(ctx, nil)
}
