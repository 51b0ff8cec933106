package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"jobgraph/backend/internal/background"
	"jobgraph/backend/internal/graph"
	apperrors "jobgraph/backend/pkg/errors"
)

var (
	reMerge    = regexp.MustCompile(`^MERGE \(node:(\w+) \{(\w+): \$(\w+)\}\)`)
	reMatchKey = regexp.MustCompile(`^MATCH \(node:(\w+) \{id: \$id\}\)`)
	reMatchAll = regexp.MustCompile(`^MATCH \(node:(\w+)\)\n`)
	reRelated  = regexp.MustCompile(`^MATCH \(a:(\w+) \{id: \$id\}\)-\[:(\w+)\]->\(node\)`)
	reRelMerge = regexp.MustCompile(`MERGE \(a\)-\[r_(\d+):(\w+)\]->\(ident_(\d+)\)`)
	reRemoval  = regexp.MustCompile(`^MATCH \(a:(\w+) \{id: \$id\}\)-\[r:(\w+)\]->\(b:(\w+)\)`)
	reCond     = regexp.MustCompile(`(?m)^(?:WHERE|OR) b\.(\w+) = \$(\w+)$`)
)

type memNode struct {
	id    string
	label string
	props map[string]interface{}
}

type memEdge struct {
	from, label, to string
}

// memGraph is an in-memory store that understands the statements this package sends
type memGraph struct {
	mu      sync.Mutex
	nodes   map[string]*memNode
	edges   map[memEdge]bool
	queries []graph.Query

	// failLabels makes every merge of a label fail
	failLabels map[string]bool
}

func newMemGraph() *memGraph {
	return &memGraph{nodes: make(map[string]*memNode), edges: make(map[memEdge]bool), failLabels: make(map[string]bool)}
}

func newTestService(store graph.Store) (*Service, *background.Runner) {
	runner := background.NewRunner(16, nil)
	return New(store, runner), runner
}

func (m *memGraph) Run(ctx context.Context, q graph.Query) ([]graph.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)

	text := q.Text
	switch {
	case reMerge.MatchString(text):
		return m.merge(q)
	case strings.Contains(text, "MERGE (c:"):
		from := q.Params["from"].(string)
		m.edges[memEdge{from: from, label: "JOINED", to: "Users"}] = true
		return []graph.Record{{Values: map[string]interface{}{"edges": int64(1)}}}, nil
	case strings.Contains(text, "MERGE (a)-["):
		return m.relate(q)
	case strings.Contains(text, "DETACH DELETE"):
		return m.delete(q)
	case reRelated.MatchString(text):
		sub := reRelated.FindStringSubmatch(text)
		owner := m.find(sub[1], "id", q.Params["id"])
		if owner == nil {
			return nil, nil
		}
		return m.targets(owner.id, sub[2]), nil
	case reRemoval.MatchString(text):
		return m.remove(q)
	case strings.Contains(text, "AS shared"):
		return m.recommend(q.Params["from"].(string)), nil
	case strings.Contains(text, ":LIKES]->(node:Job)"):
		return m.targets(q.Params["from"].(string), "LIKES"), nil
	case reMatchKey.MatchString(text):
		sub := reMatchKey.FindStringSubmatch(text)
		if n := m.find(sub[1], "id", q.Params["id"]); n != nil {
			return []graph.Record{record(n)}, nil
		}
		return nil, nil
	case reMatchAll.MatchString(text):
		label := reMatchAll.FindStringSubmatch(text)[1]
		return m.all(label), nil
	}
	return nil, fmt.Errorf("memgraph: unsupported statement %q", text)
}

func (m *memGraph) merge(q graph.Query) ([]graph.Record, error) {
	sub := reMerge.FindStringSubmatch(q.Text)
	label, key := sub[1], sub[2]
	if m.failLabels[label] {
		return nil, apperrors.NewStoreFailed(q.Text, errors.New("write refused"))
	}
	val := q.Params[key]
	if val == nil {
		return nil, apperrors.NewStoreFailed(q.Text, errors.New("cannot merge on null"))
	}

	n := m.find(label, key, val)
	if n == nil {
		n = &memNode{id: fmt.Sprintf("4:%s:%v", label, val), label: label, props: map[string]interface{}{}}
		m.nodes[n.id] = n
	}
	for k, v := range q.Params {
		if strings.HasPrefix(k, "oc_") {
			continue
		}
		n.props[k] = v
	}
	return []graph.Record{record(n)}, nil
}

func (m *memGraph) relate(q graph.Query) ([]graph.Record, error) {
	from := q.Params["from"].(string)
	if m.nodes[from] == nil {
		return nil, nil
	}
	merges := reRelMerge.FindAllStringSubmatch(q.Text, -1)
	for _, sub := range merges {
		to := q.Params["ident_"+sub[3]].(string)
		if m.nodes[to] == nil {
			return nil, nil
		}
		m.edges[memEdge{from: from, label: sub[2], to: to}] = true
	}
	return []graph.Record{{Values: map[string]interface{}{"edges": int64(len(merges))}}}, nil
}

func (m *memGraph) delete(q graph.Query) ([]graph.Record, error) {
	var label string
	if sub := reMatchKey.FindStringSubmatch(q.Text); sub != nil {
		label = sub[1]
	} else if sub := reMatchAll.FindStringSubmatch(q.Text); sub != nil {
		label = sub[1]
	}
	var deleted int64
	for id, n := range m.nodes {
		if n.label != label {
			continue
		}
		if want, ok := q.Params["id"]; ok && n.props["id"] != want {
			continue
		}
		delete(m.nodes, id)
		for e := range m.edges {
			if e.from == id || e.to == id {
				delete(m.edges, e)
			}
		}
		deleted++
	}
	return []graph.Record{{Values: map[string]interface{}{"deleted": deleted}}}, nil
}

func (m *memGraph) remove(q graph.Query) ([]graph.Record, error) {
	sub := reRemoval.FindStringSubmatch(q.Text)
	owner := m.find(sub[1], "id", q.Params["id"])
	if owner == nil {
		return []graph.Record{{Values: map[string]interface{}{"removed": int64(0)}}}, nil
	}
	conds := reCond.FindAllStringSubmatch(q.Text, -1)

	var removed int64
	for e := range m.edges {
		if e.from != owner.id || e.label != sub[2] {
			continue
		}
		target := m.nodes[e.to]
		if target == nil || target.label != sub[3] {
			continue
		}
		for _, c := range conds {
			if target.props[c[1]] == q.Params[c[2]] {
				delete(m.edges, e)
				removed++
				break
			}
		}
	}
	return []graph.Record{{Values: map[string]interface{}{"removed": removed}}}, nil
}

// recommend ranks jobs by skills shared with the user, skipping disliked ones
func (m *memGraph) recommend(from string) []graph.Record {
	shared := make(map[string]int)
	for e := range m.edges {
		if e.from != from || e.label != "HAS_SKILL" {
			continue
		}
		for r := range m.edges {
			if r.label == "REQUIRES_SKILL" && r.to == e.to && !m.edges[memEdge{from: from, label: "DISLIKES", to: r.from}] {
				shared[r.from]++
			}
		}
	}
	ids := make([]string, 0, len(shared))
	for id := range shared {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if shared[ids[i]] != shared[ids[j]] {
			return shared[ids[i]] > shared[ids[j]]
		}
		return ids[i] < ids[j]
	})
	records := make([]graph.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, record(m.nodes[id]))
	}
	return records
}

func (m *memGraph) find(label, key string, val interface{}) *memNode {
	for _, n := range m.nodes {
		if n.label == label && n.props[key] == val {
			return n
		}
	}
	return nil
}

func (m *memGraph) all(label string) []graph.Record {
	var out []*memNode
	for _, n := range m.nodes {
		if n.label == label {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	records := make([]graph.Record, 0, len(out))
	for _, n := range out {
		records = append(records, record(n))
	}
	return records
}

func (m *memGraph) targets(from, label string) []graph.Record {
	var ids []string
	for e := range m.edges {
		if e.from == from && e.label == label {
			ids = append(ids, e.to)
		}
	}
	sort.Strings(ids)
	records := make([]graph.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, record(m.nodes[id]))
	}
	return records
}

func (m *memGraph) hasEdge(fromLabel, fromKey, label, toLabel, toKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for e := range m.edges {
		if e.label != label {
			continue
		}
		from, to := m.nodes[e.from], m.nodes[e.to]
		if from == nil || from.label != fromLabel || from.props[keyOf(fromLabel)] != fromKey {
			continue
		}
		if toLabel == "Users" && e.to == "Users" {
			return true
		}
		if to != nil && to.label == toLabel && to.props[keyOf(toLabel)] == toKey {
			return true
		}
	}
	return false
}

func (m *memGraph) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

func keyOf(label string) string {
	switch label {
	case "Skill":
		return "name"
	case "Location":
		return "city"
	}
	return "id"
}

func record(n *memNode) graph.Record {
	props := make(map[string]interface{}, len(n.props))
	for k, v := range n.props {
		props[k] = v
	}
	return graph.Record{InternalID: n.id, Labels: []string{n.label}, Props: props, Values: map[string]interface{}{}}
}
