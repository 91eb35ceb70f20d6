package httpserver

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bryanwahyu/scriptlens/internal/application/export"
	appws "github.com/bryanwahyu/scriptlens/internal/application/workspace"
	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
	domain "github.com/bryanwahyu/scriptlens/internal/domain/workspace"
)

// report renders the HTML export of one script with the sections from ?sections=.
func (r *Router) report(ws *appws.Workspace, id domain.ScriptID, req *http.Request) (domain.ScriptState, []byte, error) {
	sections, err := analysis.ParseSections(req.URL.Query().Get("sections"))
	if err != nil {
		return domain.ScriptState{}, nil, badRequest{err}
	}
	state, err := ws.Script(id)
	if err != nil {
		return state, nil, err
	}
	if state.Result == nil {
		return state, nil, export.ErrNoResult
	}
	chat, err := ws.Chat(id)
	if err != nil {
		return state, nil, err
	}
	html, err := r.renderer.RenderBytes(export.Document{
		ScriptName:  state.Name,
		Script:      state.Content,
		Result:      state.Result,
		Sections:    sections,
		Chat:        chat,
		GeneratedAt: r.clock.Now(),
	})
	return state, html, err
}

// GET /v1/{workspace}/scripts/{id}/export?sections=summary,security
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	state, html, err := r.report(ws, id, req)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(state.Name)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(html)
	return err
}

// POST /v1/{workspace}/scripts/{id}/export/publish?sections=...
// Uploads the report to object storage and returns its URL.
func (r *Router) handlePublish(w http.ResponseWriter, req *http.Request) error {
	if r.reports == nil {
		return errNoReportStore
	}
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	state, html, err := r.report(ws, id, req)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("reports/%s/%s/%d-%s",
		chi.URLParam(req, "workspace"), id, r.clock.Now().Unix(), export.Filename(state.Name))
	url, pubErr := r.reports.Publish(req.Context(), key, export.ContentType, html)
	if err := ws.RecordPublish(req.Context(), id, url, pubErr); err != nil {
		r.log.Warn("publish: record", zap.String("script_id", string(id)), zap.Error(err))
	}
	if pubErr != nil {
		return fmt.Errorf("publish report: %w", pubErr)
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url, "key": key})
	return nil
}
