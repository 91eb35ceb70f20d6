package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS ai_archive (
  id            UUID         PRIMARY KEY,
  workspace_id  VARCHAR(64)  NOT NULL,
  script_id     UUID         NOT NULL,
  script_name   VARCHAR(255) NOT NULL,
  operation     VARCHAR(32)  NOT NULL,
  status        VARCHAR(16)  NOT NULL,
  result_json   TEXT         NULL,
  error_message TEXT         NULL,
  created_at    TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ai_archive_ws_created ON ai_archive (workspace_id, created_at);
CREATE INDEX IF NOT EXISTS idx_ai_archive_script ON ai_archive (workspace_id, script_id, operation, created_at);`

// EnsureSchema creates the archive table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
