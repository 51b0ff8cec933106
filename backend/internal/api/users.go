package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/models"
)

func (h *handlers) listUsers(c *gin.Context) {
	res, err := h.svc.Users.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.redact(c, res.Value...)
	h.ok(c, http.StatusOK, res.Value, res.Query)
}

func (h *handlers) createUser(c *gin.Context) {
	params, err := bindParams(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.writeUser(c, params, http.StatusCreated)
}

func (h *handlers) updateUser(c *gin.Context) {
	params, err := bindParams(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	params["id"] = c.Param("id")
	h.writeUser(c, params, http.StatusOK)
}

func (h *handlers) writeUser(c *gin.Context, params map[string]interface{}, status int) {
	if err := validateStruct(userFieldsOf(params)); err != nil {
		h.fail(c, err, nil)
		return
	}

	out, err := h.svc.Users.Create(c.Request.Context(), params)
	if out != nil {
		h.redact(c, out.Primary.Value)
	}
	if err != nil {
		h.fail(c, err, viewOf(out))
		return
	}
	h.ok(c, status, viewOf(out), outcomeQueries(out)...)
}

// createUsers creates a batch of users and links them to each other in a ring
func (h *handlers) createUsers(c *gin.Context) {
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
		if err := validateStruct(userFieldsOf(params)); err != nil {
			h.fail(c, err, nil)
			return
		}
	}

	ctx := c.Request.Context()
	out, err := h.svc.Users.CreateMany(ctx, list)

	var users []*graph.Entity
	var queries []graph.Query
	for _, o := range out {
		if o == nil {
			continue
		}
		users = append(users, o.Primary.Value)
		queries = append(queries, outcomeQueries(o)...)
	}
	h.svc.Users.Knows(ctx, users)
	h.redact(c, users...)

	if err != nil {
		h.fail(c, err, viewsOf(out))
		return
	}
	h.ok(c, http.StatusCreated, viewsOf(out), queries...)
}

func (h *handlers) deleteUsers(c *gin.Context) {
	res, err := h.svc.Users.DeleteAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"deleted": res.Value}, res.Query)
}

func (h *handlers) getUser(c *gin.Context) {
	var related []string
	if raw := c.Query("optionalNodes"); raw != "" {
		related = strings.Split(raw, ",")
	}

	view, err := h.svc.Users.GetByID(c.Request.Context(), models.GetUserInput{
		ID:      c.Param("id"),
		Related: related,
	})
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.redact(c, view.Value)

	queries := []graph.Query{view.Query}
	names := make([]string, 0, len(view.Related))
	for name := range view.Related {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		queries = append(queries, view.Related[name])
	}
	h.ok(c, http.StatusOK, view.Value, queries...)
}

func (h *handlers) deleteUser(c *gin.Context) {
	res, err := h.svc.Users.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"deleted": res.Value}, res.Query)
}

func (h *handlers) getUserJobs(c *gin.Context) {
	res, err := h.svc.Users.GetUserJobs(c.Request.Context(), c.Param("id"), c.Query("type"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.ok(c, http.StatusOK, res.Value, res.Query)
}

func (h *handlers) rateJob(c *gin.Context) {
	params, err := bindParams(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	out, err := h.svc.Users.RateJob(c.Request.Context(), models.RateInput{
		UserID: c.Param("id"),
		JobID:  c.Param("jobId"),
		Like:   textOf(params["like"]),
	})
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.redact(c, out.User.Value)

	queries := []graph.Query{out.User.Query, out.Job.Query}
	if out.Edge != nil {
		queries = append(queries, out.Edge.Query)
	}
	h.ok(c, http.StatusOK, gin.H{
		"user":  out.User.Value,
		"job":   out.Job.Value,
		"rated": out.Edge != nil,
	}, queries...)
}

// updateRelationships removes skill and location edges named in the body. Each group is
// handled concurrently.
func (h *handlers) updateRelationships(c *gin.Context) {
	var query relationshipsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.fail(c, invalidBody(err), nil)
		return
	}
	if err := validateStruct(query); err != nil {
		h.fail(c, err, nil)
		return
	}
	if query.Action == "create" {
		h.fail(c, unsupported("action", "relationships are created through the user endpoints"), nil)
		return
	}

	var req relationshipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalidBody(err), nil)
		return
	}
	if err := validateStruct(req); err != nil {
		h.fail(c, err, nil)
		return
	}

	groups := map[string]interface{}{}
	if req.Skills != nil {
		groups["skills"] = req.Skills
	}
	if req.Locations != nil {
		groups["locations"] = req.Locations
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]graph.Result[int64], len(names))
	g, ctx := errgroup.WithContext(c.Request.Context())
	for i, name := range names {
		idx, group := i, name
		g.Go(func() error {
			res, err := h.svc.Users.RemoveRelationships(ctx, models.RemoveInput{
				ID:            c.Param("id"),
				Type:          group,
				Relationships: groups[group],
			})
			results[idx] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		h.fail(c, err, nil)
		return
	}

	removed := make(gin.H, len(names))
	var queries []graph.Query
	for i, name := range names {
		removed[name] = results[i].Value
		if results[i].Query.Text != "" {
			queries = append(queries, results[i].Query)
		}
	}
	h.ok(c, http.StatusOK, removed, queries...)
}

func userFieldsOf(params map[string]interface{}) userFields {
	return userFields{
		ID:           textOf(params["id"]),
		Email:        textOf(params["email"]),
		ProfileImage: textOf(params["profileImage"]),
	}
}

// writeView is the response shape of an orchestrated write
type writeView struct {
	Node     *graph.Entity   `json:"node"`
	Skills   []*graph.Entity `json:"skills,omitempty"`
	Location *graph.Entity   `json:"location,omitempty"`
}

func viewOf(o *models.WriteOutcome) *writeView {
	if o == nil {
		return nil
	}
	v := &writeView{Node: o.Primary.Value}
	for _, s := range o.Skills {
		v.Skills = append(v.Skills, s.Value)
	}
	if o.Location != nil {
		v.Location = o.Location.Value
	}
	return v
}

func viewsOf(list []*models.WriteOutcome) []*writeView {
	out := make([]*writeView, len(list))
	for i, o := range list {
		out[i] = viewOf(o)
	}
	return out
}

// outcomeQueries lists every query an orchestrated write sent synchronously
func outcomeQueries(o *models.WriteOutcome) []graph.Query {
	queries := []graph.Query{o.Primary.Query}
	for _, s := range o.Skills {
		queries = append(queries, s.Query)
	}
	if o.Location != nil {
		queries = append(queries, o.Location.Query)
	}
	return queries
}
