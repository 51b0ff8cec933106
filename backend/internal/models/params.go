package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/schema"
	apperrors "jobgraph/backend/pkg/errors"
)

// normalize returns a Setup that coerces declared string fields (JSON numbers and bools
// arrive untyped) and requires the key to be present.
func normalize(s *schema.Schema, key string) graph.Setup {
	return func(params map[string]interface{}) (map[string]interface{}, error) {
		out := make(map[string]interface{}, len(params))
		for k, v := range params {
			typ, declared := s.Type(k)
			if declared && typ == schema.String {
				if str, ok := toString(v); ok {
					v = str
				}
			}
			out[k] = v
		}
		if key != "" {
			if str, _ := out[key].(string); str == "" {
				return nil, apperrors.NewInvalidInput(key, fmt.Sprintf("%s %s is required", s.Label, key))
			}
		}
		return out, nil
	}
}

func toString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func stringParam(params map[string]interface{}, key string) string {
	s, _ := toString(params[key])
	return s
}

// decodeJSONText accepts either a JSON string holding a document or an already decoded
// value, and decodes it into out.
func decodeJSONText(field string, value interface{}, out interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		raw = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return apperrors.NewInvalidInputWrap(field, "not encodable", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewInvalidInputWrap(field, "malformed JSON", err)
	}
	return nil
}
