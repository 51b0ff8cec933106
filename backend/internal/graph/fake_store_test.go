package graph

import (
	"context"
	"strings"
	"sync"
)

// fakeStore records every query and answers from a handler
type fakeStore struct {
	mu      sync.Mutex
	queries []Query
	handler func(q Query) ([]Record, error)
}

func (f *fakeStore) Run(ctx context.Context, q Query) ([]Record, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.handler == nil {
		return nil, nil
	}
	return f.handler(q)
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func nodeRecord(id string, label string, props map[string]interface{}) Record {
	return Record{InternalID: id, Labels: []string{label}, Props: props, Values: map[string]interface{}{}}
}

func lines(text string) []string {
	return strings.Split(text, "\n")
}
