package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgraph/backend/internal/constants"
	apperrors "jobgraph/backend/pkg/errors"
)

func ingestedJob(id, title, created string, skills string) map[string]interface{} {
	return map[string]interface{}{
		"id":      id,
		"title":   title,
		"created": created,
		"company": `{"name":"Acme"}`,
		"salary":  `{"currency":"USD","salaryMax":100,"salaryMin":80}`,
		"equity":  `{"equityMax":1,"equityMin":0.1}`,
		"roles":   `[{"name":"developer"}]`,
		"skills":  skills,
		"loc":     `{"city":"Lisbon"}`,
	}
}

func TestJobs_CreateLinksNestedSkillsAndLocation(t *testing.T) {
	store := newMemGraph()
	svc, runner := newTestService(store)

	out, err := svc.Jobs.Create(context.Background(), ingestedJob("j1", "Gopher", "2024-01-01", `[{"name":"go"},{"name":"sql"}]`))
	require.NoError(t, err)
	runner.Wait()

	assert.Equal(t, `[{"name":"go"},{"name":"sql"}]`, out.Primary.Value.String("skills"))
	assert.Len(t, out.Skills, 2)
	require.NotNil(t, out.Location)
	assert.Equal(t, "Lisbon", out.Location.Value.String("city"))

	assert.True(t, store.hasEdge("Job", "j1", "REQUIRES_SKILL", "Skill", "go"))
	assert.True(t, store.hasEdge("Job", "j1", "REQUIRES_SKILL", "Skill", "sql"))
	assert.True(t, store.hasEdge("Job", "j1", "LOCATED_IN", "Location", "Lisbon"))
}

func TestJobs_CreateSerializesDecodedObjects(t *testing.T) {
	store := newMemGraph()
	svc, runner := newTestService(store)

	out, err := svc.Jobs.Create(context.Background(), map[string]interface{}{
		"id":      float64(42),
		"company": map[string]interface{}{"name": "Acme"},
		"skills":  []interface{}{map[string]interface{}{"name": "go"}},
		"loc":     map[string]interface{}{},
	})
	require.NoError(t, err)
	runner.Wait()

	assert.Equal(t, "42", out.Primary.Value.String("id"))
	assert.Equal(t, `{"name":"Acme"}`, out.Primary.Value.String("company"))
	assert.Nil(t, out.Location)
}

func TestJobs_CreateRequiresID(t *testing.T) {
	store := newMemGraph()
	svc, _ := newTestService(store)

	_, err := svc.Jobs.Create(context.Background(), map[string]interface{}{"title": "Gopher"})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))
	assert.Equal(t, 0, store.queryCount())
}

func TestJobs_Listings(t *testing.T) {
	store := newMemGraph()
	svc, runner := newTestService(store)
	ctx := context.Background()

	_, err := svc.Jobs.CreateMany(ctx, []map[string]interface{}{
		ingestedJob("j1", "Backend", "2024-01-01", `[{"name":"go"},{"name":"sql"}]`),
		ingestedJob("j2", "Frontend", "2024-02-01", `[{"name":"js"}]`),
		ingestedJob("j3", "Data", "2024-03-01", `[{"name":"sql"}]`),
	})
	require.NoError(t, err)
	_, err = svc.Users.Create(ctx, map[string]interface{}{"id": "u1", "skills": []interface{}{"go", "sql"}})
	require.NoError(t, err)
	runner.Wait()

	t.Run("recommended by shared skills", func(t *testing.T) {
		res, err := svc.Users.GetUserJobs(ctx, "u1", "")
		require.NoError(t, err)
		require.Len(t, res.Value, 2)
		assert.Equal(t, "j1", res.Value[0].String("id"))
		assert.Equal(t, "j3", res.Value[1].String("id"))
		assert.Equal(t, int64(constants.RecommendedJobsLimit), res.Query.Params["limit"])
	})

	t.Run("disliked jobs are not recommended", func(t *testing.T) {
		_, err := svc.Users.RateJob(ctx, RateInput{UserID: "u1", JobID: "j1", Like: "false"})
		require.NoError(t, err)

		res, err := svc.Users.GetUserJobs(ctx, "u1", constants.JobsModeRecommended)
		require.NoError(t, err)
		require.Len(t, res.Value, 1)
		assert.Equal(t, "j3", res.Value[0].String("id"))
	})

	t.Run("likes", func(t *testing.T) {
		_, err := svc.Users.RateJob(ctx, RateInput{UserID: "u1", JobID: "j2", Like: "true"})
		require.NoError(t, err)

		res, err := svc.Users.GetUserJobs(ctx, "u1", constants.JobsModeLikes)
		require.NoError(t, err)
		require.Len(t, res.Value, 1)
		assert.Equal(t, "j2", res.Value[0].String("id"))
	})

	t.Run("latest", func(t *testing.T) {
		res, err := svc.Users.GetUserJobs(ctx, "u1", constants.JobsModeLatest)
		require.NoError(t, err)
		assert.Len(t, res.Value, 3)
		assert.Contains(t, res.Query.Text, "ORDER BY node.created DESC")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Users.GetUserJobs(ctx, "nobody", constants.JobsModeLatest)
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestJobs_GetAndDelete(t *testing.T) {
	store := newMemGraph()
	svc, runner := newTestService(store)
	ctx := context.Background()

	_, err := svc.Jobs.Create(ctx, ingestedJob("j1", "Gopher", "2024-01-01", `[]`))
	require.NoError(t, err)
	runner.Wait()

	got, err := svc.Jobs.GetByID(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "Gopher", got.Value.String("title"))

	all, err := svc.Jobs.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all.Value, 1)

	_, err = svc.Jobs.Delete(ctx, "j1")
	require.NoError(t, err)
	_, err = svc.Jobs.GetByID(ctx, "j1")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	res, err := svc.Jobs.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Value)
}

func TestSkillsAndLocations(t *testing.T) {
	store := newMemGraph()
	svc, _ := newTestService(store)
	ctx := context.Background()

	res, err := svc.Skills.CreateMany(ctx, []map[string]interface{}{{"name": " go "}, {"name": "sql"}, {"name": "go"}})
	require.NoError(t, err)
	assert.Equal(t, "go", res[0].Value.String("name"))
	assert.Equal(t, res[0].Value.InternalID, res[2].Value.InternalID)

	skills, err := svc.Skills.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, skills.Value, 2)

	_, err = svc.Skills.Create(ctx, map[string]interface{}{"normalized": "go"})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInput))

	_, err = svc.Locations.Create(ctx, map[string]interface{}{"city": "Lima", "country": "PE"})
	require.NoError(t, err)
	locs, err := svc.Locations.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, locs.Value, 1)
	assert.Equal(t, "PE", locs.Value[0].String("country"))
}
