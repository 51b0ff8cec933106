package models

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"jobgraph/backend/internal/background"
	"jobgraph/backend/internal/constants"
	"jobgraph/backend/internal/graph"
	apperrors "jobgraph/backend/pkg/errors"
)

// WriteOutcome is the transient aggregate of one orchestrated write. Skills keeps the
// input order; an entry whose upsert failed has a nil Value.
type WriteOutcome struct {
	Primary  graph.Result[*graph.Entity]   `json:"primary"`
	Skills   []graph.Result[*graph.Entity] `json:"skills,omitempty"`
	Location *graph.Result[*graph.Entity]  `json:"location,omitempty"`
}

// nestedWrite is a primary upsert plus the nested groups that hang off it
type nestedWrite struct {
	name     string // primary step name, also the background task prefix
	primary  func(ctx context.Context) (graph.Result[*graph.Entity], error)
	skills   []map[string]interface{}
	location map[string]interface{}

	skillEdge    string
	locationEdge string

	// afterPrimary runs as soon as the primary upsert succeeds, before the join
	afterPrimary func(ctx context.Context, owner *graph.Entity)
}

type orchestrator struct {
	store     graph.Store
	runner    *background.Runner
	skills    *Skills
	locations *Locations
}

// validateNested rejects nested input that would otherwise fail mid-write
func validateNested(skills []map[string]interface{}, location map[string]interface{}) error {
	for _, s := range skills {
		if stringParam(s, "name") == "" {
			return apperrors.NewInvalidInput("skills", "every skill needs a name")
		}
	}
	if location != nil && stringParam(location, "city") == "" {
		return apperrors.NewInvalidInput("location", "location needs a city")
	}
	return nil
}

// write starts the primary upsert and every nested group together and waits for all of
// them. Edges are only created after that join, in the background, for the nodes that
// were persisted. Failed steps are reported together; successful ones are not undone.
func (o *orchestrator) write(ctx context.Context, w nestedWrite) (*WriteOutcome, error) {
	out := &WriteOutcome{}
	errs := make([]error, 3)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := w.primary(ctx)
		out.Primary, errs[0] = res, err
		if err == nil && w.afterPrimary != nil {
			w.afterPrimary(ctx, res.Value)
		}
	}()

	if len(w.skills) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.Skills, errs[1] = o.skills.CreateMany(ctx, w.skills)
		}()
	}

	if w.location != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := o.locations.Create(ctx, w.location)
			if err == nil {
				out.Location = &res
			}
			errs[2] = err
		}()
	}

	wg.Wait()

	o.linkNested(ctx, w, out)
	return out, apperrors.NewPartialWrite([]string{w.name, "skills", "location"}, errs)
}

// createMany runs create for every item concurrently. out[i] belongs to list[i] and is kept
// even when that item failed part way; it is nil only when the item was rejected before
// any write. Every failed item is named in the returned ErrPartialWrite as "item <i>".
func createMany(ctx context.Context, list []map[string]interface{}, create func(context.Context, map[string]interface{}) (*WriteOutcome, error)) ([]*WriteOutcome, error) {
	out := make([]*WriteOutcome, len(list))
	errs := make([]error, len(list))
	steps := make([]string, len(list))

	var g errgroup.Group
	g.SetLimit(constants.MaxConcurrentWrites)
	for i, params := range list {
		idx, item := i, params
		steps[idx] = fmt.Sprintf("item %d", idx)
		g.Go(func() error {
			out[idx], errs[idx] = create(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return out, apperrors.NewPartialWrite(steps, errs)
}

func (o *orchestrator) linkNested(ctx context.Context, w nestedWrite, out *WriteOutcome) {
	owner := out.Primary.Value
	if !owner.Persisted() {
		return
	}

	var skills []*graph.Entity
	for _, r := range out.Skills {
		if r.Value.Persisted() {
			skills = append(skills, r.Value)
		}
	}
	if len(skills) > 0 {
		o.link(ctx, w.name, owner, w.skillEdge, skills...)
	}

	if out.Location != nil && out.Location.Value.Persisted() {
		o.link(ctx, w.name, owner, w.locationEdge, out.Location.Value)
	}
}

// link creates edges without the caller waiting on them
func (o *orchestrator) link(ctx context.Context, prefix string, owner *graph.Entity, label string, targets ...*graph.Entity) {
	task := prefix + "." + strings.ToLower(label)
	o.runner.Go(ctx, task, func(ctx context.Context) error {
		_, err := graph.Link(ctx, o.store, owner, graph.Edge{Label: label}, targets...)
		return err
	})
}
