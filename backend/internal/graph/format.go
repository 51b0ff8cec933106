package graph

import (
	"fmt"
	"sort"
	"strings"

	apperrors "jobgraph/backend/pkg/errors"
)

// Entity is a formatted node. InternalID is the store's element id and is never
// written back by the application.
type Entity struct {
	Label      string                 `json:"object"`
	InternalID string                 `json:"internalId"`
	Data       map[string]interface{} `json:"data"`
}

// String returns a string field or "" when absent
func (e *Entity) String(field string) string {
	if e == nil {
		return ""
	}
	return getStringFromMap(e.Data, field, "")
}

// Persisted reports whether the store has assigned the entity an id
func (e *Entity) Persisted() bool {
	return e != nil && e.InternalID != ""
}

// Formatter turns the rows produced by q into a domain value
type Formatter[T any] func(q Query, records []Record) (T, error)

// Single formats the first row as an entity of label; no rows is ErrEntityNotFound
func Single(label string) Formatter[*Entity] {
	return func(q Query, records []Record) (*Entity, error) {
		if len(records) == 0 || records[0].InternalID == "" {
			return nil, apperrors.NewEntityNotFound(label, describeParams(q.Params))
		}
		return toEntity(label, records[0]), nil
	}
}

// Many formats every row as an entity of label, keeping row order
func Many(label string) Formatter[[]*Entity] {
	return func(q Query, records []Record) ([]*Entity, error) {
		out := make([]*Entity, 0, len(records))
		for _, rec := range records {
			if rec.InternalID == "" {
				continue
			}
			out = append(out, toEntity(label, rec))
		}
		return out, nil
	}
}

// Count reads an integer column from the first row, 0 when there are no rows
func Count(column string) Formatter[int64] {
	return func(q Query, records []Record) (int64, error) {
		if len(records) == 0 {
			return 0, nil
		}
		return getInt64FromValues(records[0], column), nil
	}
}

// Records passes rows through unformatted
func Records(q Query, records []Record) ([]Record, error) {
	return records, nil
}

func toEntity(label string, rec Record) *Entity {
	if len(rec.Labels) > 0 {
		label = rec.Labels[0]
	}
	data := make(map[string]interface{}, len(rec.Props))
	for k, v := range rec.Props {
		data[k] = v
	}
	return &Entity{Label: label, InternalID: rec.InternalID, Data: data}
}

func describeParams(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, ",")
}

func getStringFromMap(m map[string]interface{}, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}
