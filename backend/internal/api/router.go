// Package api exposes the graph operations over HTTP under /api/v0
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobgraph/backend/internal/constants"
	"jobgraph/backend/internal/metrics"
	"jobgraph/backend/internal/models"
)

// Tokens issues and checks the one-time tokens that unlock credentials in responses
type Tokens interface {
	Issue(subject string) (string, error)
	Allows(token string) bool
}

// Deps are the collaborators of the HTTP layer
type Deps struct {
	Service *models.Service
	Tokens  Tokens // nil redacts every response
	APIKey  string
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

type handlers struct {
	svc    *models.Service
	tokens Tokens
	log    *zap.Logger
}

// NewRouter builds the gin engine with every route and middleware
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Default()
	}
	h := &handlers{svc: d.Service, tokens: d.Tokens, log: d.Logger}

	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(d.Logger))
	router.Use(observe(d.Metrics))
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			constants.HeaderAPIKey, constants.HeaderOneTimeToken,
		},
		ExposeHeaders: []string{constants.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{})))

	write := requireAPIKey(d.APIKey)

	api := router.Group("/api/v0")
	{
		api.GET("/users", h.listUsers)
		api.POST("/users", write, h.createUser)
		api.POST("/users/batch", write, h.createUsers)
		api.DELETE("/users", write, h.deleteUsers)
		api.GET("/users/:id", h.getUser)
		api.PUT("/users/:id", write, h.updateUser)
		api.DELETE("/users/:id", write, h.deleteUser)
		api.GET("/users/:id/jobs", h.getUserJobs)
		api.POST("/users/:id/jobs/:jobId", write, h.rateJob)
		api.PUT("/users/:id/relationships", write, h.updateRelationships)

		api.GET("/jobs", h.listJobs)
		api.POST("/jobs", write, h.createJob)
		api.POST("/jobs/batch", write, h.createJobs)
		api.DELETE("/jobs", write, h.deleteJobs)
		api.GET("/jobs/:id", h.getJob)
		api.DELETE("/jobs/:id", write, h.deleteJob)

		api.GET("/skills", h.listSkills)
		api.POST("/skills", write, h.createSkill)
		api.GET("/locations", h.listLocations)
		api.POST("/locations", write, h.createLocation)

		if d.Tokens != nil {
			api.POST("/auth/onetimetoken", write, h.issueToken)
		}
	}

	return router
}
