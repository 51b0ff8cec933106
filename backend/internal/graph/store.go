package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "jobgraph/backend/pkg/errors"
	"jobgraph/backend/pkg/logger"
)

// Query is a parameterized Cypher statement ready to send
type Query struct {
	Text   string                 `json:"query"`
	Params map[string]interface{} `json:"params"`
	Write  bool                   `json:"-"`
}

// Record is one row returned by the store. When the row has a `node` column the node's
// element id, labels and properties are lifted out; every other column lands in Values.
type Record struct {
	InternalID string
	Labels     []string
	Props      map[string]interface{}
	Values     map[string]interface{}
}

// Store runs a query and returns its rows
type Store interface {
	Run(ctx context.Context, q Query) ([]Record, error)
}

// Neo4jStore is the Store backed by a Neo4j driver
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewNeo4jStore creates a new store over an open driver
func NewNeo4jStore(driver neo4j.DriverWithContext) *Neo4jStore {
	return &Neo4jStore{
		driver: driver,
		logger: logger.Named("graph"),
	}
}

// WithDatabase targets a named database instead of the server default
func (s *Neo4jStore) WithDatabase(name string) *Neo4jStore {
	s.database = name
	return s
}

// Close closes the Neo4j driver connection
func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}

// Run executes q in its own session and collects every row
func (s *Neo4jStore) Run(ctx context.Context, q Query) ([]Record, error) {
	mode := neo4j.AccessModeRead
	if q.Write {
		mode = neo4j.AccessModeWrite
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
	defer session.Close(ctx)

	start := time.Now()
	result, err := session.Run(ctx, q.Text, q.Params)
	if err != nil {
		return nil, apperrors.NewStoreFailed(q.Text, err)
	}

	rows, err := result.Collect(ctx)
	if err != nil {
		return nil, apperrors.NewStoreFailed(q.Text, err)
	}

	s.logger.Debug("Query executed",
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)),
	)

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	return records, nil
}

func toRecord(row *neo4j.Record) Record {
	rec := Record{Values: make(map[string]interface{})}
	for i, key := range row.Keys {
		val := row.Values[i]
		if node, ok := val.(neo4j.Node); ok && key == "node" {
			rec.InternalID = node.ElementId
			rec.Labels = node.Labels
			rec.Props = node.Props
			continue
		}
		rec.Values[key] = val
	}
	return rec
}

func getInt64FromValues(rec Record, key string) int64 {
	val, ok := rec.Values[key]
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}
