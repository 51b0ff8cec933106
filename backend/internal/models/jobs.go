package models

import (
	"context"
	"encoding/json"
	"strings"

	"jobgraph/backend/internal/constants"
	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/schema"
	apperrors "jobgraph/backend/pkg/errors"
)

var jobQB = graph.NewBuilder(schema.Job)

var (
	latestJobs = graph.Cypher{Text: strings.Join([]string{
		"MATCH (node:Job)",
		"RETURN node",
		"ORDER BY node.created DESC",
		"LIMIT $limit",
	}, "\n")}

	likedJobs = graph.Cypher{Text: strings.Join([]string{
		"MATCH (a) WHERE elementId(a) = $from",
		"MATCH (a)-[:" + constants.RelLikes + "]->(node:Job)",
		"RETURN node",
	}, "\n")}

	// jobs sharing the most skills with the user, never one the user disliked
	recommendedJobs = graph.Cypher{Text: strings.Join([]string{
		"MATCH (a) WHERE elementId(a) = $from",
		"MATCH (a)-[:" + constants.RelHasSkill + "]->(s:Skill)<-[:" + constants.RelRequiresSkill + "]-(node:Job)",
		"WHERE NOT EXISTS { (a)-[:" + constants.RelDislikes + "]->(node) }",
		"WITH node, count(DISTINCT s) AS shared",
		"RETURN node, shared",
		"ORDER BY shared DESC, node.created DESC",
		"LIMIT $limit",
	}, "\n")}
)

// Jobs upserts ingested listings and serves the job listings
type Jobs struct {
	orchestrator

	merge       *graph.Pipeline[*graph.Entity]
	byID        *graph.Pipeline[*graph.Entity]
	all         *graph.Pipeline[[]*graph.Entity]
	del         *graph.Pipeline[int64]
	delAll      *graph.Pipeline[int64]
	latest      *graph.Pipeline[[]*graph.Entity]
	liked       *graph.Pipeline[[]*graph.Entity]
	recommended *graph.Pipeline[[]*graph.Entity]
}

func newJobs(o orchestrator) *Jobs {
	many := graph.Many(schema.LabelJob)
	return &Jobs{
		orchestrator: o,
		merge: graph.NewPipeline(o.store,
			jobQB.Merge([]string{"id"}, map[string]interface{}{"stored": graph.Timestamp}),
			graph.Single(schema.LabelJob),
		).WithSetup(normalize(schema.Job, "id")),
		byID:        graph.NewPipeline(o.store, jobQB.Match("id"), graph.Single(schema.LabelJob)),
		all:         graph.NewPipeline(o.store, jobQB.Match(), many),
		del:         graph.NewPipeline(o.store, jobQB.Delete("id"), graph.Count("deleted")),
		delAll:      graph.NewPipeline(o.store, jobQB.Delete(), graph.Count("deleted")),
		latest:      graph.NewPipeline(o.store, latestJobs, many),
		liked:       graph.NewPipeline(o.store, likedJobs, many),
		recommended: graph.NewPipeline(o.store, recommendedJobs, many),
	}
}

// Create upserts a listing by id. Skills and location carried in the serialized
// "skills" and "loc" fields are upserted too and linked once everything is stored.
func (j *Jobs) Create(ctx context.Context, params map[string]interface{}) (*WriteOutcome, error) {
	_, skills, location, err := splitNested(params, "skills", "loc")
	if err != nil {
		return nil, err
	}
	primary, err := serializeObjects(params)
	if err != nil {
		return nil, err
	}
	if stringParam(primary, "id") == "" {
		return nil, apperrors.NewInvalidInput("id", "Job id is required")
	}
	if err := validateNested(skills, location); err != nil {
		return nil, err
	}

	return j.write(ctx, nestedWrite{
		name: "job",
		primary: func(ctx context.Context) (graph.Result[*graph.Entity], error) {
			return j.merge.Execute(ctx, primary)
		},
		skills:       skills,
		location:     location,
		skillEdge:    constants.RelRequiresSkill,
		locationEdge: constants.RelLocatedIn,
	})
}

// CreateMany creates every listing concurrently; outcomes follow input order and are
// kept for items that failed part way
func (j *Jobs) CreateMany(ctx context.Context, list []map[string]interface{}) ([]*WriteOutcome, error) {
	return createMany(ctx, list, j.Create)
}

// serializeObjects stores decoded objects and lists as JSON text, the shape the
// listing fields are kept in
func serializeObjects(params map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		switch v.(type) {
		case map[string]interface{}, []interface{}, []map[string]interface{}:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, apperrors.NewInvalidInputWrap(k, "not encodable", err)
			}
			out[k] = string(b)
		default:
			out[k] = v
		}
	}
	return out, nil
}

// GetByID fetches one listing
func (j *Jobs) GetByID(ctx context.Context, id string) (graph.Result[*graph.Entity], error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return graph.Result[*graph.Entity]{}, apperrors.NewInvalidInput("id", "Job id is required")
	}
	return j.byID.Execute(ctx, map[string]interface{}{"id": id})
}

// GetAll lists every listing
func (j *Jobs) GetAll(ctx context.Context) (graph.Result[[]*graph.Entity], error) {
	return j.all.Execute(ctx, nil)
}

// Delete removes a listing and its edges
func (j *Jobs) Delete(ctx context.Context, id string) (graph.Result[int64], error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return graph.Result[int64]{}, apperrors.NewInvalidInput("id", "Job id is required")
	}
	res, err := j.del.Execute(ctx, map[string]interface{}{"id": id})
	if err == nil && res.Value == 0 {
		err = apperrors.NewEntityNotFound(schema.LabelJob, "id="+id)
	}
	return res, err
}

// DeleteAll removes every listing
func (j *Jobs) DeleteAll(ctx context.Context) (graph.Result[int64], error) {
	return j.delAll.Execute(ctx, nil)
}

// GetLatest returns the most recently created listings
func (j *Jobs) GetLatest(ctx context.Context) (graph.Result[[]*graph.Entity], error) {
	return j.latest.Execute(ctx, map[string]interface{}{"limit": int64(constants.LatestJobsLimit)})
}

// GetLiked returns the listings a user liked
func (j *Jobs) GetLiked(ctx context.Context, user *graph.Entity) (graph.Result[[]*graph.Entity], error) {
	if !user.Persisted() {
		return graph.Result[[]*graph.Entity]{}, apperrors.NewInvalidInput("user", "node has no internal id")
	}
	return j.liked.Execute(ctx, map[string]interface{}{"from": user.InternalID})
}

// GetRecommended ranks listings by the number of skills they share with the user
func (j *Jobs) GetRecommended(ctx context.Context, user *graph.Entity) (graph.Result[[]*graph.Entity], error) {
	if !user.Persisted() {
		return graph.Result[[]*graph.Entity]{}, apperrors.NewInvalidInput("user", "node has no internal id")
	}
	return j.recommended.Execute(ctx, map[string]interface{}{
		"from":  user.InternalID,
		"limit": int64(constants.RecommendedJobsLimit),
	})
}
