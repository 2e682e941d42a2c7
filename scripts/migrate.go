package main

import (
	"context"
	"log"
	"os"

	"github.com/tinysteps/report-service/internal/infrastructure/clients/postgres"
	"github.com/tinysteps/report-service/pkg/config"
)

const reportsSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id            UUID PRIMARY KEY,
	title         TEXT NOT NULL,
	report_type   VARCHAR(64) NOT NULL,
	format        VARCHAR(16) NOT NULL,
	user_id       VARCHAR(64) NOT NULL DEFAULT '',
	branch_id     VARCHAR(64) NOT NULL DEFAULT 'all',
	start_date    DATE NOT NULL,
	end_date      DATE NOT NULL,
	status        VARCHAR(32) NOT NULL DEFAULT 'CREATED',
	file_path     TEXT,
	file_size     BIGINT,
	failure_cause TEXT,
	generated_at  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_reports_user_id ON reports (user_id);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports (status);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports (created_at DESC);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := pgClient.DB()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping reports table before migrating")
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS reports`); err != nil {
			log.Fatalf("Failed to drop reports table: %v", err)
		}
	}

	if _, err := db.ExecContext(ctx, reportsSchema); err != nil {
		log.Fatalf("Failed to apply reports schema: %v", err)
	}

	log.Println("Reports schema applied successfully")
}
