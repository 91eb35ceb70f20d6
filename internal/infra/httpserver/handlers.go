package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
	domain "github.com/bryanwahyu/scriptlens/internal/domain/workspace"
	"github.com/bryanwahyu/scriptlens/internal/middleware"
)

// GET /v1/{workspace}
func (r *Router) handleSnapshot(w http.ResponseWriter, req *http.Request) error {
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
	return nil
}

// DELETE /v1/{workspace}
func (r *Router) handleDropWorkspace(w http.ResponseWriter, req *http.Request) error {
	if !r.registry.Drop(chi.URLParam(req, "workspace")) {
		return domain.ErrWorkspaceNotFound
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// PUT /v1/{workspace}/live-analysis
// Body: {"enabled": true}
func (r *Router) handleLiveAnalysis(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Enabled *bool `json:"enabled" validate:"required"`
	}
	if err := decode(w, req, &body, false); err != nil {
		return err
	}
	ws := r.workspace(req)
	ws.SetLiveAnalysis(*body.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": ws.LiveAnalysis()})
	return nil
}

// POST /v1/{workspace}/analyze-all?wait=true
// Without wait the analyses run in the background and the call returns 202.
func (r *Router) handleAnalyzeAll(w http.ResponseWriter, req *http.Request) error {
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	if queryBool(req, "wait") {
		ws.AnalyzeAll(req.Context())
		writeJSON(w, http.StatusOK, ws.Snapshot())
		return nil
	}

	// request selesai duluan, analisis tetap jalan
	ids, err := ws.StartAnalyzeAll(context.WithoutCancel(req.Context()))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "queued",
		"scripts": ids,
	})
	return nil
}

// GET /v1/{workspace}/archive?page=&page_size=
func (r *Router) handleArchive(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.registry.Archive(req.Context(), chi.URLParam(req, "workspace"), page, size)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /v1/{workspace}/scripts
func (r *Router) handleListScripts(w http.ResponseWriter, req *http.Request) error {
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, ws.Snapshot().Scripts)
	return nil
}

// POST /v1/{workspace}/scripts
// Body (optional): {"name": "...", "content": "..."}
func (r *Router) handleCreateScript(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Name    string `json:"name" validate:"max=255"`
		Content string `json:"content" validate:"max=262144"`
	}
	if err := decode(w, req, &body, true); err != nil {
		return err
	}
	ws := r.workspace(req)
	s, err := ws.AddScriptWith(middleware.SanitizeString(body.Name), body.Content)
	if err != nil {
		return err
	}
	state, err := ws.Script(s.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, state)
	return nil
}

// GET /v1/{workspace}/scripts/{id}
func (r *Router) handleGetScript(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	state, err := ws.Script(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, state)
	return nil
}

// PUT /v1/{workspace}/scripts/{id}
// Body: {"name": "..."} and/or {"content": "..."}
func (r *Router) handleUpdateScript(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	var body struct {
		Name    *string `json:"name" validate:"omitempty,max=255"`
		Content *string `json:"content" validate:"omitempty,max=262144"`
	}
	if err := decode(w, req, &body, false); err != nil {
		return err
	}
	if body.Name == nil && body.Content == nil {
		return badRequestf("name or content is required")
	}

	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	if body.Name != nil {
		if err := ws.Rename(id, middleware.SanitizeString(*body.Name)); err != nil {
			return err
		}
	}
	if body.Content != nil {
		if err := ws.SetContent(id, *body.Content); err != nil {
			return err
		}
	}
	state, err := ws.Script(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, state)
	return nil
}

// DELETE /v1/{workspace}/scripts/{id}
func (r *Router) handleDeleteScript(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	if err := ws.RemoveScript(id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/{workspace}/scripts/{id}/activate
func (r *Router) handleActivate(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	if err := ws.Activate(id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, ws.Snapshot())
	return nil
}

// POST /v1/{workspace}/scripts/{id}/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	res, err := ws.Analyze(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /v1/{workspace}/scripts/{id}/refactor
// Body: {"suggestion": "..."}
func (r *Router) handleRefactor(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	var body struct {
		Suggestion string `json:"suggestion" validate:"required"`
	}
	if err := decode(w, req, &body, false); err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	res, err := ws.Refactor(req.Context(), id, body.Suggestion)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /v1/{workspace}/scripts/{id}/refactor-all
// Body: {"suggestions": ["...", "..."]}
func (r *Router) handleRefactorAll(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	var body struct {
		Suggestions []string `json:"suggestions" validate:"required,min=1"`
	}
	if err := decode(w, req, &body, false); err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	res, err := ws.RefactorAll(req.Context(), id, body.Suggestions)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /v1/{workspace}/scripts/{id}/fixes
// Body: {"originalCode": "...", "refactoredCode": "..."}
func (r *Router) handleApplyFix(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	var fix analysis.Fix
	if err := decode(w, req, &fix, false); err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	ok, err := ws.ApplyFix(id, fix.OriginalCode, fix.RefactoredCode)
	if err != nil {
		return err
	}
	state, err := ws.Script(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": ok, "script": state})
	return nil
}

// POST /v1/{workspace}/scripts/{id}/fixes/batch
// Body: {"fixes": [{"originalCode": "...", "refactoredCode": "..."}]}
func (r *Router) handleApplyFixes(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	var body struct {
		Fixes []analysis.Fix `json:"fixes" validate:"required,min=1,dive"`
	}
	if err := decode(w, req, &body, false); err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	n, err := ws.ApplyAllFixes(id, body.Fixes)
	if err != nil {
		return err
	}
	state, err := ws.Script(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": n, "script": state})
	return nil
}

// GET /v1/{workspace}/scripts/{id}/chat
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	chat, err := ws.Chat(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, chat)
	return nil
}

// POST /v1/{workspace}/scripts/{id}/chat
// Body: {"question": "..."}
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	var body struct {
		Question string `json:"question" validate:"required,max=4000"`
	}
	if err := decode(w, req, &body, false); err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	msg, err := ws.Ask(req.Context(), id, body.Question)
	if err != nil {
		return err
	}
	chat, err := ws.Chat(id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "chat": chat})
	return nil
}

// DELETE /v1/{workspace}/scripts/{id}/chat
func (r *Router) handleClearChat(w http.ResponseWriter, req *http.Request) error {
	id, err := scriptID(req)
	if err != nil {
		return err
	}
	ws, err := r.existing(req)
	if err != nil {
		return err
	}
	if err := ws.ClearChat(id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
