package api

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "jobgraph/backend/pkg/errors"
)

func invalidBody(err error) error {
	return apperrors.NewInvalidInputWrap("body", "malformed request", err)
}

func unsupported(field, reason string) error {
	return apperrors.NewInvalidInput(field, reason)
}

// bindParams decodes a JSON object body into loose params
func bindParams(c *gin.Context) (map[string]interface{}, error) {
	var params map[string]interface{}
	if err := c.ShouldBindJSON(&params); err != nil {
		return nil, invalidBody(err)
	}
	if params == nil {
		params = make(map[string]interface{})
	}
	return params, nil
}

// decodeList accepts a list of objects, a list of JSON object strings, or JSON text
// holding either. An empty list is invalid.
func decodeList(value interface{}) ([]map[string]interface{}, error) {
	if s, ok := value.(string); ok {
		if err := json.Unmarshal([]byte(s), &value); err != nil {
			return nil, apperrors.NewInvalidInputWrap("list", "malformed JSON", err)
		}
	}
	items, ok := value.([]interface{})
	if !ok || len(items) == 0 {
		return nil, apperrors.NewInvalidInput("list", "expected a non-empty list")
	}

	out := make([]map[string]interface{}, 0, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			var decoded map[string]interface{}
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				return nil, apperrors.NewInvalidInputWrap(fmt.Sprintf("list[%d]", i), "malformed JSON", err)
			}
			item = decoded
		}
		m, ok := item.(map[string]interface{})
		if !ok || m == nil {
			return nil, apperrors.NewInvalidInput(fmt.Sprintf("list[%d]", i), "expected an object")
		}
		out = append(out, m)
	}
	return out, nil
}

// textOf renders JSON scalars as text; anything else is empty
func textOf(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
