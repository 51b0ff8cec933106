package models

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"jobgraph/backend/internal/constants"
	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/schema"
	apperrors "jobgraph/backend/pkg/errors"
)

var userQB = graph.NewBuilder(schema.User)

// Users composes user writes with their skills, location and collection edges
type Users struct {
	orchestrator
	jobs *Jobs

	merge   *graph.Pipeline[*graph.Entity]
	byID    *graph.Pipeline[*graph.Entity]
	all     *graph.Pipeline[[]*graph.Entity]
	del     *graph.Pipeline[int64]
	delAll  *graph.Pipeline[int64]
	related map[string]*graph.Pipeline[[]*graph.Entity]
}

func newUsers(o orchestrator, jobs *Jobs) *Users {
	related := make(map[string]*graph.Pipeline[[]*graph.Entity], len(userGroups))
	for name, g := range userGroups {
		related[name] = graph.NewPipeline(o.store, userQB.Related(g.edge, "id"), graph.Many(g.target))
	}

	return &Users{
		orchestrator: o,
		jobs:         jobs,
		merge: graph.NewPipeline(o.store,
			userQB.Merge([]string{"id"}, map[string]interface{}{"created": graph.Timestamp}),
			graph.Single(schema.LabelUser),
		).WithSetup(normalize(schema.User, "id")),
		byID:    graph.NewPipeline(o.store, userQB.Match("id"), graph.Single(schema.LabelUser)),
		all:     graph.NewPipeline(o.store, userQB.Match(), graph.Many(schema.LabelUser)),
		del:     graph.NewPipeline(o.store, userQB.Delete("id"), graph.Count("deleted")),
		delAll:  graph.NewPipeline(o.store, userQB.Delete(), graph.Count("deleted")),
		related: related,
	}
}

// Create upserts a user by id together with its nested skills and location.
// Accepted nested keys are "skills" (list of names or objects) and "location".
func (u *Users) Create(ctx context.Context, params map[string]interface{}) (*WriteOutcome, error) {
	primary, skills, location, err := splitNested(params, "skills", "location")
	if err != nil {
		return nil, err
	}
	if stringParam(primary, "id") == "" {
		return nil, apperrors.NewInvalidInput("id", "User id is required")
	}
	if err := validateNested(skills, location); err != nil {
		return nil, err
	}

	return u.write(ctx, nestedWrite{
		name: "user",
		primary: func(ctx context.Context) (graph.Result[*graph.Entity], error) {
			return u.merge.Execute(ctx, primary)
		},
		skills:       skills,
		location:     location,
		skillEdge:    constants.RelHasSkill,
		locationEdge: constants.RelWantsLocation,
		afterPrimary: u.joinIfLinked,
	})
}

// Update has the same upsert semantics as Create
func (u *Users) Update(ctx context.Context, params map[string]interface{}) (*WriteOutcome, error) {
	return u.Create(ctx, params)
}

// CreateMany creates every user concurrently; outcomes follow input order and are kept
// for items that failed part way
func (u *Users) CreateMany(ctx context.Context, list []map[string]interface{}) ([]*WriteOutcome, error) {
	return createMany(ctx, list, u.Create)
}

// joinIfLinked adds users holding a LinkedIn token to the Users collection
func (u *Users) joinIfLinked(ctx context.Context, owner *graph.Entity) {
	if owner.String("linkedInToken") == "" {
		return
	}
	u.runner.Go(ctx, "user.joined", func(ctx context.Context) error {
		q, err := graph.JoinCollection(owner, schema.LabelUsers, constants.RelJoined)
		if err != nil {
			return err
		}
		_, err = u.store.Run(ctx, q)
		return err
	})
}

// Knows links users in a ring with KNOWS edges, each user to the next. The links are
// not awaited; the number of links started is returned.
func (u *Users) Knows(ctx context.Context, users []*graph.Entity) int {
	var persisted []*graph.Entity
	for _, e := range users {
		if e.Persisted() {
			persisted = append(persisted, e)
		}
	}
	if len(persisted) < 2 {
		return 0
	}

	n := len(persisted)
	for i, e := range persisted {
		u.link(ctx, "user", e, constants.RelKnows, persisted[(i+1)%n])
	}
	return n
}

// GetUserInput selects a user and the relationship groups to hydrate
type GetUserInput struct {
	ID      string
	UserID  string // used when ID is empty
	Related []string
}

func (in GetUserInput) key() string {
	if in.ID != "" {
		return in.ID
	}
	return in.UserID
}

// UserView is a user with its hydrated groups merged into the entity data
type UserView struct {
	graph.Result[*graph.Entity]
	Related map[string]graph.Query `json:"relatedQueries,omitempty"`
}

// GetByID fetches a user and then, concurrently, each requested group ("skills",
// "locations" or "all"). Each group is stored on the user under its own name. A missing
// user is ErrEntityNotFound and no group is queried.
func (u *Users) GetByID(ctx context.Context, in GetUserInput) (*UserView, error) {
	id := strings.TrimSpace(in.key())
	if id == "" {
		return nil, apperrors.NewInvalidInput("id", "User id is required")
	}

	groups, err := expandGroups(in.Related)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{"id": id}
	primary, err := u.byID.Execute(ctx, params)
	if err != nil {
		return nil, err
	}
	view := &UserView{Result: primary}
	results := make([]graph.Result[[]*graph.Entity], len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MaxConcurrentWrites)
	for i, name := range groups {
		idx, pipeline := i, u.related[name]
		g.Go(func() error {
			res, err := pipeline.Execute(gctx, params)
			results[idx] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(groups) > 0 {
		view.Related = make(map[string]graph.Query, len(groups))
	}
	for i, name := range groups {
		data := make([]map[string]interface{}, 0, len(results[i].Value))
		for _, e := range results[i].Value {
			data = append(data, e.Data)
		}
		view.Value.Data[name] = data
		view.Related[name] = results[i].Query
	}
	return view, nil
}

// expandGroups validates group names and resolves "all"; duplicates are dropped
func expandGroups(names []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
		case name == "all":
			add("skills")
			add("locations")
		default:
			if _, err := lookupGroup(name); err != nil {
				return nil, err
			}
			add(name)
		}
	}
	return out, nil
}

// GetAll lists every user
func (u *Users) GetAll(ctx context.Context) (graph.Result[[]*graph.Entity], error) {
	return u.all.Execute(ctx, nil)
}

// Delete removes a user and its edges. A missing user is ErrEntityNotFound.
func (u *Users) Delete(ctx context.Context, id string) (graph.Result[int64], error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return graph.Result[int64]{}, apperrors.NewInvalidInput("id", "User id is required")
	}
	res, err := u.del.Execute(ctx, map[string]interface{}{"id": id})
	if err == nil && res.Value == 0 {
		err = apperrors.NewEntityNotFound(schema.LabelUser, "id="+id)
	}
	return res, err
}

// DeleteAll removes every user
func (u *Users) DeleteAll(ctx context.Context) (graph.Result[int64], error) {
	return u.delAll.Execute(ctx, nil)
}

// GetUserJobs lists jobs for a user: "latest", "likes", or recommendations otherwise
func (u *Users) GetUserJobs(ctx context.Context, id, mode string) (graph.Result[[]*graph.Entity], error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return graph.Result[[]*graph.Entity]{}, apperrors.NewInvalidInput("id", "User id is required")
	}
	user, err := u.byID.Execute(ctx, map[string]interface{}{"id": id})
	if err != nil {
		return graph.Result[[]*graph.Entity]{}, err
	}

	switch mode {
	case constants.JobsModeLatest:
		return u.jobs.GetLatest(ctx)
	case constants.JobsModeLikes:
		return u.jobs.GetLiked(ctx, user.Value)
	default:
		return u.jobs.GetRecommended(ctx, user.Value)
	}
}

// RateInput is a rating of a job by a user. Like is "true" or "false"; any other
// value records nothing.
type RateInput struct {
	UserID string
	JobID  string
	Like   string
}

// RateOutcome holds both endpoints and, when a rating was recorded, the edge
type RateOutcome struct {
	User graph.Result[*graph.Entity] `json:"user"`
	Job  graph.Result[*graph.Entity] `json:"job"`
	Edge *graph.Result[int64]        `json:"edge,omitempty"`
}

// RateJob fetches the user and the job concurrently and then records a LIKES or
// DISLIKES edge. A previous rating of the opposite kind is left in place.
func (u *Users) RateJob(ctx context.Context, in RateInput) (*RateOutcome, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, apperrors.NewInvalidInput("userId", "User id is required")
	}
	if strings.TrimSpace(in.JobID) == "" {
		return nil, apperrors.NewInvalidInput("jobId", "Job id is required")
	}

	out := &RateOutcome{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := u.byID.Execute(gctx, map[string]interface{}{"id": strings.TrimSpace(in.UserID)})
		out.User = res
		return err
	})
	g.Go(func() error {
		res, err := u.jobs.GetByID(gctx, in.JobID)
		out.Job = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var label string
	switch in.Like {
	case constants.RatingLike:
		label = constants.RelLikes
	case constants.RatingDislike:
		label = constants.RelDislikes
	default:
		return out, nil
	}

	edge, err := graph.Link(ctx, u.store, out.User.Value,
		graph.Edge{Label: label, Props: map[string]interface{}{"date": graph.Timestamp}},
		out.Job.Value,
	)
	if err != nil {
		return out, err
	}
	out.Edge = &edge
	return out, nil
}

// RemoveInput names the user, the relationship group and the far nodes to unlink
type RemoveInput struct {
	ID            string
	Type          string
	Relationships interface{} // JSON text or a decoded list of descriptors
}

// RemoveRelationships deletes the user's edges in one group whose far node matches any
// descriptor. An empty list succeeds without touching the store.
func (u *Users) RemoveRelationships(ctx context.Context, in RemoveInput) (graph.Result[int64], error) {
	var res graph.Result[int64]

	id := strings.TrimSpace(in.ID)
	if id == "" {
		return res, apperrors.NewInvalidInput("id", "User id is required")
	}
	group, err := lookupGroup(in.Type)
	if err != nil {
		return res, err
	}
	list, err := ParseDescriptors(in.Relationships)
	if err != nil {
		return res, err
	}
	if len(list) == 0 {
		return res, nil
	}

	q, err := removalQuery(id, group, list)
	if err != nil {
		return res, err
	}
	res.Query = q

	records, err := u.store.Run(ctx, q)
	if err != nil {
		return res, err
	}
	res.Value, err = graph.Count("removed")(q, records)
	return res, err
}
