package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/scriptlens/internal/domain/archive"
)

type ArchiveRepository struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

const archiveColumns = `id, workspace_id, script_id, script_name, operation, status, result_json, error_message, created_at`

// Save inserts an archive entry
func (r *ArchiveRepository) Save(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO ai_archive
  (` + archiveColumns + `)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  status=VALUES(status), result_json=VALUES(result_json), error_message=VALUES(error_message);
`
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		stringOrDash(e.WorkspaceID),
		e.ScriptID,
		stringOrDash(e.ScriptName),
		e.Operation,
		e.Status,
		nullString(e.Result),
		nullString(e.Error),
		createdAt,
	)
	return err
}

// Paginate returns a page of entries ordered by created_at desc
func (r *ArchiveRepository) Paginate(ctx context.Context, workspace string, page, pageSize int) ([]*domain.Entry, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT ` + archiveColumns + `
FROM ai_archive
WHERE workspace_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, workspace, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ArchiveRepository) Count(ctx context.Context, workspace string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_archive WHERE workspace_id=?`, workspace).Scan(&n)
	return n, err
}

// LatestByScript returns the newest entry of op for a script, nil if none.
func (r *ArchiveRepository) LatestByScript(ctx context.Context, workspace, scriptID string, op domain.Operation) (*domain.Entry, error) {
	const q = `
SELECT ` + archiveColumns + `
FROM ai_archive
WHERE workspace_id=? AND script_id=? AND operation=?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	e, err := scanEntry(r.db.QueryRowContext(ctx, q, workspace, scriptID, op))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.Entry, error) {
	var e domain.Entry
	var result, errMsg sql.NullString
	if err := s.Scan(&e.ID, &e.WorkspaceID, &e.ScriptID, &e.ScriptName, &e.Operation, &e.Status, &result, &errMsg, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Result = result.String
	e.Error = errMsg.String
	return &e, nil
}
