package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listSkills(c *gin.Context) {
	res, err := h.svc.Skills.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusOK, res.Value, res.Query)
}

func (h *handlers) createSkill(c *gin.Context) {
	params, err := bindParams(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	res, err := h.svc.Skills.Create(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusCreated, res.Value, res.Query)
}

func (h *handlers) listLocations(c *gin.Context) {
	res, err := h.svc.Locations.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusOK, res.Value, res.Query)
}

func (h *handlers) createLocation(c *gin.Context) {
	params, err := bindParams(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	res, err := h.svc.Locations.Create(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusCreated, res.Value, res.Query)
}

// issueToken hands out a one-time token that lets one request see credentials
func (h *handlers) issueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalidBody(err), nil)
		return
	}
	if err := validateStruct(req); err != nil {
		h.fail(c, err, nil)
		return
	}
	token, err := h.tokens.Issue(req.Subject)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}
