package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobgraph/backend/internal/background"
	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/metrics"
	"jobgraph/backend/pkg/config"
)

type emptyStore struct{}

func (emptyStore) Run(context.Context, graph.Query) ([]graph.Record, error) { return nil, nil }

func testRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{APIKey: "key", OneTimeTokenSecret: secret, OneTimeTokenTTL: time.Minute}
	router, err := buildRouter(cfg, emptyStore{}, background.NewRunner(1, nil), metrics.NewCollector("main_test"), zap.NewNop())
	require.NoError(t, err)
	return router
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}

func TestTokenRoute_OnlyWithSecret(t *testing.T) {
	body := []byte(`{"subject":"u1"}`)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v0/auth/onetimetoken", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_key", "key")
	testRouter(t, "").ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/v0/auth/onetimetoken", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_key", "key")
	testRouter(t, "s3cret").ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateUser_RequiresKey(t *testing.T) {
	router := testRouter(t, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v0/users", bytes.NewBuffer([]byte(`{"id":"u1"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

