package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobgraph/backend/internal/graph"
)

func (h *handlers) listJobs(c *gin.Context) {
	res, err := h.svc.Jobs.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusOK, res.Value, res.Query)
}

// createJob upserts one ingested listing
func (h *handlers) createJob(c *gin.Context) {
	params, err := bindParams(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	if err := validateStruct(jobFieldsOf(params)); err != nil {
		h.fail(c, err, nil)
		return
	}

	out, err := h.svc.Jobs.Create(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err, viewOf(out))
		return
	}
	h.ok(c, http.StatusCreated, viewOf(out), outcomeQueries(out)...)
}

func (h *handlers) createJobs(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalidBody(err), nil)
		return
	}
	if err := validateStruct(req); err != nil {
		h.fail(c, err, nil)
		return
	}
	list, err := decodeList(req.List)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	for _, params := range list {
		if err := validateStruct(jobFieldsOf(params)); err != nil {
			h.fail(c, err, nil)
			return
		}
	}

	out, err := h.svc.Jobs.CreateMany(c.Request.Context(), list)
	if err != nil {
		h.fail(c, err, viewsOf(out))
		return
	}
	var queries []graph.Query
	for _, o := range out {
		queries = append(queries, outcomeQueries(o)...)
	}
	h.ok(c, http.StatusCreated, viewsOf(out), queries...)
}

func (h *handlers) getJob(c *gin.Context) {
	res, err := h.svc.Jobs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusOK, res.Value, res.Query)
}

func (h *handlers) deleteJob(c *gin.Context) {
	res, err := h.svc.Jobs.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"deleted": res.Value}, res.Query)
}

func (h *handlers) deleteJobs(c *gin.Context) {
	res, err := h.svc.Jobs.DeleteAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"deleted": res.Value}, res.Query)
}

func jobFieldsOf(params map[string]interface{}) jobFields {
	return jobFields{
		ID:    textOf(params["id"]),
		Title: textOf(params["title"]),
	}
}
