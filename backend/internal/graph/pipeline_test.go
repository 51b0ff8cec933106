package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobgraph/backend/internal/schema"
	apperrors "jobgraph/backend/pkg/errors"
)

func TestPipeline_Execute(t *testing.T) {
	store := &fakeStore{handler: func(q Query) ([]Record, error) {
		return []Record{nodeRecord("4:u:1", "User", map[string]interface{}{"id": "u1", "firstname": "Ann"})}, nil
	}}
	p := NewPipeline(store, NewBuilder(schema.User).Match("id"), Single(schema.LabelUser))

	res, err := p.Execute(context.Background(), map[string]interface{}{"id": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "4:u:1", res.Value.InternalID)
	assert.Equal(t, "Ann", res.Value.String("firstname"))
	assert.Equal(t, "MATCH (node:User {id: $id})\nRETURN node", res.Query.Text)
}

func TestPipeline_StoreErrorSkipsFormatting(t *testing.T) {
	storeErr := apperrors.NewStoreFailed("MATCH", errors.New("connection refused"))
	store := &fakeStore{handler: func(q Query) ([]Record, error) { return nil, storeErr }}

	formatted := false
	p := NewPipeline(store, NewBuilder(schema.User).Match("id"), func(q Query, r []Record) (*Entity, error) {
		formatted = true
		return &Entity{}, nil
	})

	res, err := p.Execute(context.Background(), map[string]interface{}{"id": "u1"})
	require.ErrorIs(t, err, storeErr)
	assert.False(t, formatted)
	assert.Nil(t, res.Value)
}

func TestPipeline_SetupFailsBeforeQuery(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, NewBuilder(schema.User).Match("id"), Single(schema.LabelUser)).
		WithSetup(func(params map[string]interface{}) (map[string]interface{}, error) {
			return nil, apperrors.NewInvalidInput("id", "required")
		})

	_, err := p.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 0, store.count())
}

func TestPipeline_Then(t *testing.T) {
	store := &fakeStore{handler: func(q Query) ([]Record, error) {
		return []Record{
			nodeRecord("1", "Skill", map[string]interface{}{"name": "go"}),
			nodeRecord("2", "Skill", map[string]interface{}{"name": "sql"}),
		}, nil
	}}
	base := NewPipeline(store, NewBuilder(schema.Skill).Match(), Many(schema.LabelSkill))
	firstOnly := base.Then(func(es []*Entity) ([]*Entity, error) { return es[:1], nil })

	res, err := firstOnly.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Value, 1)

	res, err = base.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Value, 2, "Then must not mutate the receiver")
}

func TestPipeline_NotFound(t *testing.T) {
	p := NewPipeline(&fakeStore{}, NewBuilder(schema.Job).Match("id"), Single(schema.LabelJob))

	_, err := p.Execute(context.Background(), map[string]interface{}{"id": "j1"})
	var nf *apperrors.ErrEntityNotFound
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Job", nf.Label)
	assert.Equal(t, "id=j1", nf.Key)
}

func TestMap_PreservesInputOrder(t *testing.T) {
	inputs := []string{"a", "b", "c"}
	delays := map[string]time.Duration{"a": 30 * time.Millisecond, "b": 0, "c": 10 * time.Millisecond}

	out, err := Map(context.Background(), inputs, func(ctx context.Context, s string) (string, error) {
		time.Sleep(delays[s])
		return strings.ToUpper(s), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, out)
}

func TestMap_ReturnsSuccessesWithError(t *testing.T) {
	out, err := Map(context.Background(), []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
		if n == 2 {
			return 0, fmt.Errorf("boom")
		}
		return n * 10, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
	assert.Equal(t, []int{10, 0, 30}, out)
}

func TestPipeline_Map(t *testing.T) {
	store := &fakeStore{handler: func(q Query) ([]Record, error) {
		name := q.Params["name"].(string)
		return []Record{nodeRecord("id-"+name, "Skill", map[string]interface{}{"name": name})}, nil
	}}
	p := NewPipeline(store, NewBuilder(schema.Skill).Merge([]string{"name"}, nil), Single(schema.LabelSkill))

	res, err := p.Map(context.Background(), []map[string]interface{}{{"name": "go"}, {"name": "sql"}})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "id-go", res[0].Value.InternalID)
	assert.Equal(t, "id-sql", res[1].Value.InternalID)
	assert.Equal(t, 2, store.count())
}
