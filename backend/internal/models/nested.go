package models

import (
	"fmt"

	apperrors "jobgraph/backend/pkg/errors"
)

// splitNested separates the primary node fields from the nested skills and location.
// Both nested values may arrive decoded or as JSON text; a bare string skill is a name.
func splitNested(params map[string]interface{}, skillsKey, locationKey string) (map[string]interface{}, []map[string]interface{}, map[string]interface{}, error) {
	primary := make(map[string]interface{}, len(params))
	for k, v := range params {
		if k == skillsKey || k == locationKey {
			continue
		}
		primary[k] = v
	}

	var rawSkills []interface{}
	if err := decodeJSONText(skillsKey, params[skillsKey], &rawSkills); err != nil {
		return nil, nil, nil, err
	}
	skills := make([]map[string]interface{}, 0, len(rawSkills))
	for i, s := range rawSkills {
		switch v := s.(type) {
		case string:
			skills = append(skills, map[string]interface{}{"name": v})
		case map[string]interface{}:
			skills = append(skills, v)
		default:
			return nil, nil, nil, invalidNested(skillsKey, i)
		}
	}

	var location map[string]interface{}
	if err := decodeJSONText(locationKey, params[locationKey], &location); err != nil {
		return nil, nil, nil, err
	}
	// an empty object means no location was tagged
	if len(location) == 0 {
		location = nil
	}

	return primary, skills, location, nil
}

func invalidNested(field string, i int) error {
	return apperrors.NewInvalidInput(fmt.Sprintf("%s[%d]", field, i), "expected a name or an object")
}
