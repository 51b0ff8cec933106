package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobgraph/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("INGEST_RATE_PER_MIN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 60, cfg.IngestRatePerMin)
	assert.Equal(t, 24*time.Hour, cfg.DedupeTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("ONE_TIME_TOKEN_TTL", "90s")
	t.Setenv("INGEST_PAGES", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.OneTimeTokenTTL)
	assert.Equal(t, 3, cfg.IngestPages)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Neo4jURI: "bolt://x", Neo4jUser: "u", Neo4jPassword: "p", IngestRatePerMin: 1, BreakerFailRatio: 0.5}
	assert.NoError(t, cfg.Validate())

	cfg.Neo4jPassword = ""
	err := cfg.Validate()
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))

	cfg.Neo4jPassword = "p"
	cfg.BreakerFailRatio = 1.5
	assert.Error(t, cfg.Validate())
}
