package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgraph/backend/internal/graph"
)

type stubStore struct{ err error }

func (s stubStore) Run(ctx context.Context, q graph.Query) ([]graph.Record, error) {
	return nil, s.err
}

func TestInstrumentStore(t *testing.T) {
	c := NewCollector("test")

	ok := c.InstrumentStore(stubStore{})
	_, err := ok.Run(context.Background(), graph.Query{Text: "MERGE (node:User {id: $id})\nRETURN node"})
	require.NoError(t, err)

	failing := c.InstrumentStore(stubStore{err: errors.New("down")})
	_, err = failing.Run(context.Background(), graph.Query{Text: "MATCH (node:Job)\nRETURN node"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreQueries.WithLabelValues("MERGE", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreQueries.WithLabelValues("MATCH", "error")))
}

func TestObserveTask(t *testing.T) {
	c := NewCollector("test")
	c.ObserveTask("user.skills", nil)
	c.ObserveTask("user.skills", errors.New("x"))
	c.ObserveTask("user.skills", errors.New("y"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.BackgroundTasks.WithLabelValues("user.skills", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.BackgroundTasks.WithLabelValues("user.skills", "error")))
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
