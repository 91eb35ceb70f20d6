package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
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
  id            CHAR(36)     NOT NULL PRIMARY KEY,
  workspace_id  VARCHAR(64)  NOT NULL,
  script_id     CHAR(36)     NOT NULL,
  script_name   VARCHAR(255) NOT NULL,
  operation     VARCHAR(32)  NOT NULL,
  status        VARCHAR(16)  NOT NULL,
  result_json   LONGTEXT     NULL,
  error_message TEXT         NULL,
  created_at    DATETIME(3)  NOT NULL,
  KEY idx_ai_archive_ws_created (workspace_id, created_at),
  KEY idx_ai_archive_script (workspace_id, script_id, operation, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

// EnsureSchema creates the archive table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
