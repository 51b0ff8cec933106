package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"jobgraph/backend/internal/api"
	"jobgraph/backend/internal/auth"
	"jobgraph/backend/internal/background"
	"jobgraph/backend/internal/graph"
	"jobgraph/backend/internal/metrics"
	"jobgraph/backend/internal/models"
	"jobgraph/backend/pkg/config"
	"jobgraph/backend/pkg/logger"
)

// backgroundErrBuffer is how many task failures wait on the runner's channel
const backgroundErrBuffer = 64

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	collector := metrics.Default()
	store := collector.InstrumentStore(graph.NewNeo4jStore(driver))
	runner := background.NewRunner(backgroundErrBuffer, collector)
	go drainBackgroundErrors(runner, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := buildRouter(cfg, store, runner, collector, log)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// edges linked after a response may still be in flight
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Error("Background tasks did not finish", zap.Error(err))
	}

	log.Info("Server exited")
}

// buildRouter wires the service layer and the HTTP surface
func buildRouter(cfg *config.Config, store graph.Store, runner *background.Runner, collector *metrics.Collector, log *zap.Logger) (*gin.Engine, error) {
	deps := api.Deps{
		Service: models.New(store, runner),
		APIKey:  cfg.APIKey,
		Metrics: collector,
		Logger:  log.Named("http"),
	}

	if cfg.OneTimeTokenSecret != "" {
		tokens, err := auth.NewOneTimeTokens(cfg.OneTimeTokenSecret, cfg.OneTimeTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("one-time tokens: %w", err)
		}
		deps.Tokens = tokens
	} else {
		log.Warn("ONE_TIME_TOKEN_SECRET not set, credentials are always redacted")
	}

	return api.NewRouter(deps), nil
}

// drainBackgroundErrors keeps the runner's failure channel from filling up
func drainBackgroundErrors(runner *background.Runner, log *zap.Logger) {
	for err := range runner.Errors() {
		log.Warn("Background write failed", zap.Error(err))
	}
}
