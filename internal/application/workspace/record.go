package workspace

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/scriptlens/internal/domain/archive"
	domain "github.com/bryanwahyu/scriptlens/internal/domain/workspace"
)

const recordTimeout = 5 * time.Second

// record archives one AI operation. Archive failures never reach the caller.
func (w *Workspace) record(ctx context.Context, script domain.Script, op archive.Operation, result any, opErr error) {
	if w.archive == nil {
		return
	}
	e := &archive.Entry{
		ID:          archive.EntryID(uuid.NewString()),
		WorkspaceID: w.id,
		ScriptID:    string(script.ID),
		ScriptName:  script.Name,
		Operation:   op,
		Status:      archive.StatusSuccess,
		CreatedAt:   w.clock.Now(),
	}
	if opErr != nil {
		e.Status = archive.StatusFailed
		e.Error = opErr.Error()
	} else if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			w.log.Warn("archive: encode result", zap.String("op", string(op)), zap.Error(err))
		} else {
			e.Result = string(b)
		}
	}

	// tetap simpan walaupun request sudah selesai / di-cancel
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := w.archive.Save(ctx, e); err != nil {
		w.log.Warn("archive: save entry",
			zap.String("op", string(op)),
			zap.String("script_id", e.ScriptID),
			zap.Error(err))
	}
}

// Archive returns one page of this workspace's archived operations.
// It fails with ErrNoArchive when none is configured.
func (w *Workspace) Archive(ctx context.Context, page, pageSize int) (archive.Page, error) {
	if w.archive == nil {
		return archive.Page{}, ErrNoArchive
	}
	page, pageSize = Paginate(page, pageSize)
	total, err := w.archive.Count(ctx, w.id)
	if err != nil {
		return archive.Page{}, err
	}
	data, err := w.archive.Paginate(ctx, w.id, page, pageSize)
	if err != nil {
		return archive.Page{}, err
	}
	return archive.NewPage(data, page, pageSize, total), nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Paginate clamps paging input to sane bounds.
func Paginate(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// RecordPublish archives the outcome of publishing a script's report to url.
func (w *Workspace) RecordPublish(ctx context.Context, id domain.ScriptID, url string, pubErr error) error {
	script, err := w.scriptFor(id)
	if err != nil {
		return err
	}
	var result any
	if pubErr == nil {
		result = map[string]string{"url": url}
	}
	w.record(ctx, script, archive.OpPublish, result, pubErr)
	return nil
}
