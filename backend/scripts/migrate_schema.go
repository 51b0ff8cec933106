package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"jobgraph/backend/pkg/config"
	"jobgraph/backend/pkg/logger"
)

const migrationVersion = "jobgraph_schema_v1"

func main() {
	force := flag.Bool("force", false, "Force migration even if already applied")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Neo4j schema migration...")

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

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Check if migration already applied
	if !*force {
		applied, err := checkMigrationApplied(ctx, driver)
		if err != nil {
			log.Fatal("Failed to check migration status", zap.Error(err))
		}
		if applied {
			log.Info("Migration already applied. Use -force to reapply.")
			os.Exit(0)
		}
	}

	if err := runMigrations(ctx, driver, log); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	if err := markMigrationApplied(ctx, driver); err != nil {
		log.Warn("Failed to mark migration as applied", zap.Error(err))
	}

	log.Info("Migration completed successfully!")
}

func checkMigrationApplied(ctx context.Context, driver neo4j.DriverWithContext) (bool, error) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (m:Migration {version: $version}) RETURN m.applied_at AS applied_at`,
		map[string]interface{}{"version": migrationVersion},
	)
	if err != nil {
		return false, err
	}

	return result.Next(ctx), nil
}

func markMigrationApplied(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (m:Migration {version: $version})
		SET m.applied_at = datetime(),
		    m.description = 'Key uniqueness for User, Job, Skill, Location and the Users collection node'
	`, map[string]interface{}{"version": migrationVersion})
	return err
}

func runMigrations(ctx context.Context, driver neo4j.DriverWithContext, log *zap.Logger) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	migrations := []struct {
		name        string
		description string
		query       string
	}{
		{
			name:        "Create Constraints",
			description: "Unique application keys; every upsert merges on these",
			query: `
				CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE;
				CREATE CONSTRAINT job_id_unique IF NOT EXISTS FOR (j:Job) REQUIRE j.id IS UNIQUE;
				CREATE CONSTRAINT skill_name_unique IF NOT EXISTS FOR (s:Skill) REQUIRE s.name IS UNIQUE;
				CREATE CONSTRAINT location_city_unique IF NOT EXISTS FOR (l:Location) REQUIRE l.city IS UNIQUE;
			`,
		},
		{
			name:        "Create Indexes",
			description: "Indexes used by job listings and relationship removal",
			query: `
				// latest jobs are ordered by creation
				CREATE INDEX job_created IF NOT EXISTS FOR (j:Job) ON (j.created);
				CREATE INDEX skill_normalized IF NOT EXISTS FOR (s:Skill) ON (s.normalized);
			`,
		},
		{
			name:        "Create Users Collection",
			description: "Singleton node every joined user links to",
			query: `
				MERGE (:Users);
			`,
		},
	}

	for i, migration := range migrations {
		log.Info("Running migration",
			zap.Int("step", i+1),
			zap.Int("total", len(migrations)),
			zap.String("name", migration.name),
			zap.String("description", migration.description),
		)

		for j, stmt := range splitStatements(migration.query) {
			if _, err := session.Run(ctx, stmt, nil); err != nil {
				// IF NOT EXISTS keeps most statements idempotent
				log.Warn("Migration step had an error (may be expected)",
					zap.String("migration", migration.name),
					zap.Int("statement", j+1),
					zap.Error(err),
				)
			}
		}

		log.Info("Migration step completed", zap.String("name", migration.name))
	}

	return nil
}

// splitStatements splits a Cypher script on semicolons, dropping // comments
func splitStatements(script string) []string {
	lines := strings.Split(script, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}

	var statements []string
	for _, part := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
