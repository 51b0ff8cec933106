package graph

import (
	"fmt"
	"sort"
	"strings"

	"jobgraph/backend/internal/schema"
)

// Raw is a store expression written verbatim into query text, e.g. timestamp()
type Raw string

// Timestamp is the store clock in epoch millis
const Timestamp Raw = "timestamp()"

// Kind is the shape of query a template produces
type Kind string

const (
	KindMatch   Kind = "match"
	KindMerge   Kind = "merge"
	KindDelete  Kind = "delete"
	KindRelated Kind = "related"
)

// nodeVar is the variable every template binds the primary node to
const nodeVar = "node"

// Builder produces query templates for one schema
type Builder struct {
	schema *schema.Schema
}

// NewBuilder creates a builder for a schema
func NewBuilder(s *schema.Schema) *Builder {
	return &Builder{schema: s}
}

// Schema returns the schema the builder projects through
func (b *Builder) Schema() *schema.Schema {
	return b.schema
}

// Template is an immutable query shape. Apply binds it to caller params.
type Template struct {
	kind         Kind
	schema       *schema.Schema
	keys         []string
	onCreate     []extra
	edgeLabel    string
	placeholders []string
}

type extra struct {
	field string
	value interface{}
}

// Match matches nodes equal on every key present in params. No keys matches the whole label.
func (b *Builder) Match(keys ...string) *Template {
	return b.template(KindMatch, keys)
}

// Delete detaches and deletes whatever Match(keys...) would return
func (b *Builder) Delete(keys ...string) *Template {
	return b.template(KindDelete, keys)
}

// Merge upserts on keys. onCreate values are applied only when the node is created;
// Raw values are inlined, anything else is bound as oc_<field>.
func (b *Builder) Merge(keys []string, onCreate map[string]interface{}) *Template {
	t := b.template(KindMerge, keys)
	fields := make([]string, 0, len(onCreate))
	for f := range onCreate {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		mustIdent(f)
		t.onCreate = append(t.onCreate, extra{field: f, value: onCreate[f]})
	}
	for _, name := range b.schema.Names() {
		if !contains(t.keys, name) {
			t.placeholders = append(t.placeholders, name)
		}
	}
	for _, e := range t.onCreate {
		if _, raw := e.value.(Raw); !raw {
			t.placeholders = append(t.placeholders, "oc_"+e.field)
		}
	}
	return t
}

// Related returns the nodes reached over an outgoing edgeLabel from the matched node
func (b *Builder) Related(edgeLabel string, keys ...string) *Template {
	mustIdent(edgeLabel)
	t := b.template(KindRelated, keys)
	t.edgeLabel = edgeLabel
	return t
}

func (b *Builder) template(kind Kind, keys []string) *Template {
	for _, k := range keys {
		if !b.schema.Has(k) {
			// Templates are built at package init; an unknown key is a programming error
			panic(fmt.Sprintf("graph: %s has no field %q", b.schema.Label, k))
		}
	}
	ks := append([]string(nil), keys...)
	return &Template{
		kind:         kind,
		schema:       b.schema,
		keys:         ks,
		placeholders: append([]string(nil), ks...),
	}
}

// Kind returns the template's query kind
func (t *Template) Kind() Kind { return t.kind }

// Placeholders returns every parameter name the template may bind, in order
func (t *Template) Placeholders() []string {
	return append([]string(nil), t.placeholders...)
}

// Apply binds params to the template. Only schema fields are ever bound.
func (t *Template) Apply(params map[string]interface{}) Query {
	projected := t.schema.Project(params)
	switch t.kind {
	case KindMerge:
		return t.merge(projected)
	case KindDelete:
		text, bound := t.match(projected)
		return Query{
			Text:   text + "\nDETACH DELETE " + nodeVar + "\nRETURN count(" + nodeVar + ") AS deleted",
			Params: bound,
			Write:  true,
		}
	case KindRelated:
		pattern, bound := t.pattern("a", projected)
		return Query{
			Text:   fmt.Sprintf("MATCH %s-[:%s]->(%s)\nRETURN %s", pattern, t.edgeLabel, nodeVar, nodeVar),
			Params: bound,
		}
	default:
		text, bound := t.match(projected)
		return Query{Text: text + "\nRETURN " + nodeVar, Params: bound}
	}
}

func (t *Template) match(projected map[string]interface{}) (string, map[string]interface{}) {
	pattern, bound := t.pattern(nodeVar, projected)
	return "MATCH " + pattern, bound
}

// pattern renders (v:Label {k: $k, ...}) over the keys present in projected
func (t *Template) pattern(v string, projected map[string]interface{}) (string, map[string]interface{}) {
	bound := make(map[string]interface{})
	var props []string
	for _, k := range t.keys {
		val, ok := projected[k]
		if !ok {
			continue
		}
		bound[k] = val
		props = append(props, fmt.Sprintf("%s: $%s", k, k))
	}
	if len(props) == 0 {
		return fmt.Sprintf("(%s:%s)", v, t.schema.Label), bound
	}
	return fmt.Sprintf("(%s:%s {%s})", v, t.schema.Label, strings.Join(props, ", ")), bound
}

func (t *Template) merge(projected map[string]interface{}) Query {
	bound := make(map[string]interface{})
	var keyProps []string
	for _, k := range t.keys {
		// Absent keys bind null so the store rejects the merge instead of matching any node
		bound[k] = projected[k]
		keyProps = append(keyProps, fmt.Sprintf("%s: $%s", k, k))
	}

	lines := []string{fmt.Sprintf("MERGE (%s:%s {%s})", nodeVar, t.schema.Label, strings.Join(keyProps, ", "))}
	if len(keyProps) == 0 {
		lines[0] = fmt.Sprintf("MERGE (%s:%s)", nodeVar, t.schema.Label)
	}

	if len(t.onCreate) > 0 {
		sets := make([]string, 0, len(t.onCreate))
		for _, e := range t.onCreate {
			if raw, ok := e.value.(Raw); ok {
				sets = append(sets, fmt.Sprintf("%s.%s = %s", nodeVar, e.field, raw))
				continue
			}
			name := "oc_" + e.field
			bound[name] = e.value
			sets = append(sets, fmt.Sprintf("%s.%s = $%s", nodeVar, e.field, name))
		}
		lines = append(lines, "ON CREATE SET "+strings.Join(sets, ", "))
	}

	var sets []string
	for _, name := range t.schema.Names() {
		if contains(t.keys, name) {
			continue
		}
		val, ok := projected[name]
		if !ok {
			continue
		}
		bound[name] = val
		sets = append(sets, fmt.Sprintf("%s.%s = $%s", nodeVar, name, name))
	}
	if len(sets) > 0 {
		lines = append(lines, "SET "+strings.Join(sets, ", "))
	}
	lines = append(lines, "RETURN "+nodeVar)

	return Query{Text: strings.Join(lines, "\n"), Params: bound, Write: true}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
