package graph

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	apperrors "jobgraph/backend/pkg/errors"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func mustIdent(s string) {
	if !identPattern.MatchString(s) {
		panic(fmt.Sprintf("graph: invalid identifier %q", s))
	}
}

// Edge describes a relationship to create. Props are written only when the edge is
// first created; Raw values are inlined, anything else is bound.
type Edge struct {
	Label string
	Props map[string]interface{}
}

// Relate builds one query that matches source and every target by element id and merges
// a Label edge from source to each target. Re-running it never duplicates an edge.
func Relate(source *Entity, edge Edge, targets ...*Entity) (Query, error) {
	if edge.Label == "" {
		return Query{}, apperrors.NewInvalidInput("label", "relationship label is required")
	}
	if !identPattern.MatchString(edge.Label) {
		return Query{}, apperrors.NewInvalidInput("label", fmt.Sprintf("%q is not a valid relationship type", edge.Label))
	}
	if !source.Persisted() {
		return Query{}, apperrors.NewInvalidInput("source", "node has no internal id")
	}
	if len(targets) == 0 {
		return Query{}, apperrors.NewInvalidInput("targets", "at least one target is required")
	}
	for i, t := range targets {
		if !t.Persisted() {
			return Query{}, apperrors.NewInvalidInput(fmt.Sprintf("targets[%d]", i), "node has no internal id")
		}
	}

	propKeys := make([]string, 0, len(edge.Props))
	for k := range edge.Props {
		if !identPattern.MatchString(k) {
			return Query{}, apperrors.NewInvalidInput("props", fmt.Sprintf("%q is not a valid property name", k))
		}
		propKeys = append(propKeys, k)
	}
	sort.Strings(propKeys)

	params := map[string]interface{}{"from": source.InternalID}
	lines := []string{"MATCH (a) WHERE elementId(a) = $from"}
	for i, t := range targets {
		ident := fmt.Sprintf("ident_%d", i)
		params[ident] = t.InternalID
		lines = append(lines, fmt.Sprintf("MATCH (%s) WHERE elementId(%s) = $%s", ident, ident, ident))
	}

	// property -> expression, rendered once per relationship variable
	exprs := make([]string, len(propKeys))
	for j, k := range propKeys {
		if raw, ok := edge.Props[k].(Raw); ok {
			exprs[j] = string(raw)
			continue
		}
		params["prop_"+k] = edge.Props[k]
		exprs[j] = "$prop_" + k
	}

	for i := range targets {
		rel := fmt.Sprintf("r_%d", i)
		lines = append(lines, fmt.Sprintf("MERGE (a)-[%s:%s]->(ident_%d)", rel, edge.Label, i))
		if len(propKeys) > 0 {
			sets := make([]string, len(propKeys))
			for j, k := range propKeys {
				sets[j] = rel + "." + k + " = " + exprs[j]
			}
			lines = append(lines, "ON CREATE SET "+strings.Join(sets, ", "))
		}
	}
	lines = append(lines, fmt.Sprintf("RETURN %d AS edges", len(targets)))

	return Query{Text: strings.Join(lines, "\n"), Params: params, Write: true}, nil
}

// Link builds and runs Relate in a single round-trip. Value is the number of edges
// ensured, 0 when any endpoint no longer exists.
func Link(ctx context.Context, store Store, source *Entity, edge Edge, targets ...*Entity) (Result[int64], error) {
	var res Result[int64]
	q, err := Relate(source, edge, targets...)
	if err != nil {
		return res, err
	}
	res.Query = q

	records, err := store.Run(ctx, q)
	if err != nil {
		return res, err
	}
	res.Value, err = Count("edges")(q, records)
	return res, err
}

// JoinCollection links source to the singleton collection node of label, creating the
// collection on first use.
func JoinCollection(source *Entity, collection, edgeLabel string) (Query, error) {
	if !source.Persisted() {
		return Query{}, apperrors.NewInvalidInput("source", "node has no internal id")
	}
	if !identPattern.MatchString(collection) || !identPattern.MatchString(edgeLabel) {
		return Query{}, apperrors.NewInvalidInput("label", "invalid collection or relationship label")
	}
	text := strings.Join([]string{
		"MATCH (a) WHERE elementId(a) = $from",
		fmt.Sprintf("MERGE (c:%s)", collection),
		fmt.Sprintf("MERGE (a)-[r:%s]->(c)", edgeLabel),
		"ON CREATE SET r.date = " + string(Timestamp),
		"RETURN 1 AS edges",
	}, "\n")
	return Query{Text: text, Params: map[string]interface{}{"from": source.InternalID}, Write: true}, nil
}
