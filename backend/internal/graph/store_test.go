package graph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgraph/backend/internal/schema"
)

// Integration tests require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.
func TestNeo4jStore_MergeIsIdempotent(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	ctx := context.Background()
	id := "test-user-" + time.Now().Format("20060102150405.000")
	defer store.Run(ctx, NewBuilder(schema.User).Delete("id").Apply(map[string]interface{}{"id": id}))

	create := NewPipeline(store, NewBuilder(schema.User).Merge([]string{"id"}, map[string]interface{}{"created": Timestamp}), Single(schema.LabelUser))

	first, err := create.Execute(ctx, map[string]interface{}{"id": id, "firstname": "Ann"})
	require.NoError(t, err)
	created := first.Value.Data["created"]
	require.NotNil(t, created)

	second, err := create.Execute(ctx, map[string]interface{}{"id": id, "firstname": "Anne"})
	require.NoError(t, err)
	assert.Equal(t, first.Value.InternalID, second.Value.InternalID)
	assert.Equal(t, created, second.Value.Data["created"], "created must not change on update")
	assert.Equal(t, "Anne", second.Value.String("firstname"))

	all, err := NewPipeline(store, NewBuilder(schema.User).Match("id"), Many(schema.LabelUser)).
		Execute(ctx, map[string]interface{}{"id": id})
	require.NoError(t, err)
	assert.Len(t, all.Value, 1)
}

func TestNeo4jStore_LinkIsIdempotent(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000")
	userID, jobID := "test-user-"+suffix, "test-job-"+suffix
	defer store.Run(ctx, NewBuilder(schema.User).Delete("id").Apply(map[string]interface{}{"id": userID}))
	defer store.Run(ctx, NewBuilder(schema.Job).Delete("id").Apply(map[string]interface{}{"id": jobID}))

	user, err := NewPipeline(store, NewBuilder(schema.User).Merge([]string{"id"}, nil), Single(schema.LabelUser)).
		Execute(ctx, map[string]interface{}{"id": userID})
	require.NoError(t, err)
	job, err := NewPipeline(store, NewBuilder(schema.Job).Merge([]string{"id"}, nil), Single(schema.LabelJob)).
		Execute(ctx, map[string]interface{}{"id": jobID})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := Link(ctx, store, user.Value, Edge{Label: "LIKES"}, job.Value)
		require.NoError(t, err)
	}

	records, err := store.Run(ctx, Query{
		Text:   "MATCH (:User {id: $u})-[r:LIKES]->(:Job {id: $j}) RETURN count(r) AS edges",
		Params: map[string]interface{}{"u": userID, "j": jobID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), getInt64FromValues(records[0], "edges"))
}

func openTestStore(t *testing.T) (*Neo4jStore, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	driver, err := createTestDriver()
	if err != nil {
		t.Skipf("Neo4j not reachable: %v", err)
	}
	return NewNeo4jStore(driver), func() { driver.Close(context.Background()) }
}

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := envOr("NEO4J_URI", "bolt://localhost:7687")
	user := envOr("NEO4J_USER", "neo4j")
	password := envOr("NEO4J_PASSWORD", "password")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(context.Background())
		return nil, err
	}

	return driver, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
