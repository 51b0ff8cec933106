package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobgraph/backend/internal/constants"
	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/schema"
	apperrors "jobgraph/backend/pkg/errors"
)

const ctxCredentials = "credentials_allowed"

type response struct {
	Results interface{}   `json:"results"`
	Queries []graph.Query `json:"queries,omitempty"`
}

// ok writes value; the queries are included only when ?neo4j is present
func (h *handlers) ok(c *gin.Context, status int, value interface{}, queries ...graph.Query) {
	resp := response{Results: value}
	if _, want := c.GetQuery("neo4j"); want {
		resp.Queries = queries
	}
	c.JSON(status, resp)
}

// fail maps err onto a status. A partial write also carries what was stored.
func (h *handlers) fail(c *gin.Context, err error, partial interface{}) {
	_ = c.Error(err)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}

	body := gin.H{"error": err.Error()}
	var pw *apperrors.ErrPartialWrite
	if errors.As(err, &pw) {
		body["failed"] = pw.Failed
		if partial != nil {
			body["results"] = partial
		}
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	switch {
	case apperrors.IsErrorType(err, apperrors.ErrorTypeInput):
		return http.StatusBadRequest
	case apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// credentialsAllowed verifies the request's one-time token at most once per request
func (h *handlers) credentialsAllowed(c *gin.Context) bool {
	if v, ok := c.Get(ctxCredentials); ok {
		return v.(bool)
	}
	allowed := false
	if token := c.GetHeader(constants.HeaderOneTimeToken); token != "" && h.tokens != nil {
		allowed = h.tokens.Allows(token)
	}
	c.Set(ctxCredentials, allowed)
	return allowed
}

// redact strips stored credentials from user entities unless the request may see them
func (h *handlers) redact(c *gin.Context, entities ...*graph.Entity) {
	if h.credentialsAllowed(c) {
		return
	}
	for _, e := range entities {
		if e != nil && e.Label == schema.LabelUser {
			delete(e.Data, "linkedInToken")
		}
	}
}
