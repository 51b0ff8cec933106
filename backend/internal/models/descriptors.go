package models

import (
	"fmt"
	"strings"

	"jobgraph/backend/internal/constants"
	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/schema"
	apperrors "jobgraph/backend/pkg/errors"
)

// RelationshipDescriptor identifies the far end of an edge to remove
type RelationshipDescriptor struct {
	Name       string `json:"name,omitempty"`
	Normalized string `json:"normalized,omitempty"`
	City       string `json:"city,omitempty"`
}

// ParseDescriptors accepts a JSON string holding a list or an already decoded list
func ParseDescriptors(value interface{}) ([]RelationshipDescriptor, error) {
	var out []RelationshipDescriptor
	if list, ok := value.([]RelationshipDescriptor); ok {
		return list, nil
	}
	if err := decodeJSONText("relationships", value, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// relationshipGroup is a named set of outgoing user edges
type relationshipGroup struct {
	edge   string
	target string
}

var userGroups = map[string]relationshipGroup{
	"skills":    {edge: constants.RelHasSkill, target: schema.LabelSkill},
	"locations": {edge: constants.RelWantsLocation, target: schema.LabelLocation},
}

func lookupGroup(name string) (relationshipGroup, error) {
	g, ok := userGroups[name]
	if !ok {
		return relationshipGroup{}, apperrors.NewInvalidInput("type", fmt.Sprintf("unknown relationship group %q", name))
	}
	return g, nil
}

// condition returns the predicate on the far node b that matches d
func (g relationshipGroup) condition(d RelationshipDescriptor, param string) (string, interface{}, error) {
	switch g.target {
	case schema.LabelSkill:
		if d.Normalized != "" {
			return "b.normalized = $" + param, d.Normalized, nil
		}
		if d.Name != "" {
			return "b.name = $" + param, d.Name, nil
		}
		return "", nil, apperrors.NewInvalidInput("relationships", "skill needs a name or normalized name")
	case schema.LabelLocation:
		if d.City != "" {
			return "b.city = $" + param, d.City, nil
		}
		return "", nil, apperrors.NewInvalidInput("relationships", "location needs a city")
	}
	return "", nil, apperrors.NewInvalidInput("type", "group has no removal rule")
}

// removalQuery builds one statement deleting the user's group edges whose far node
// matches any descriptor. Nodes are kept.
func removalQuery(userID string, g relationshipGroup, list []RelationshipDescriptor) (graph.Query, error) {
	params := map[string]interface{}{"id": userID}
	lines := []string{fmt.Sprintf("MATCH (a:%s {id: $id})-[r:%s]->(b:%s)", schema.LabelUser, g.edge, g.target)}

	for i, d := range list {
		param := fmt.Sprintf("rel_%d", i)
		cond, value, err := g.condition(d, param)
		if err != nil {
			return graph.Query{}, err
		}
		params[param] = value

		prefix := "OR"
		if i == 0 {
			prefix = "WHERE"
		}
		lines = append(lines, prefix+" "+cond)
	}

	lines = append(lines, "DELETE r", "RETURN count(r) AS removed")
	return graph.Query{Text: strings.Join(lines, "\n"), Params: params, Write: true}, nil
}
