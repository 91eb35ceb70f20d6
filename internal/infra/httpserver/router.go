package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/scriptlens/internal/application"
	"github.com/bryanwahyu/scriptlens/internal/application/export"
	appws "github.com/bryanwahyu/scriptlens/internal/application/workspace"
	domai "github.com/bryanwahyu/scriptlens/internal/domain/ai"
	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
	"github.com/bryanwahyu/scriptlens/internal/domain/archive"
	domain "github.com/bryanwahyu/scriptlens/internal/domain/workspace"
	"github.com/bryanwahyu/scriptlens/internal/middleware"
)

// maxBodyBytes leaves room for JSON escaping around a max size script.
const maxBodyBytes = 4 * middleware.MaxScriptBytes

var errNoReportStore = errors.New("report publishing is not configured")

// Deps wires the router. Reports, Limiter and Checkers are optional.
type Deps struct {
	Registry    *appws.Registry
	Renderer    *export.Renderer
	Reports     archive.ReportStore
	Clock       application.Clock
	Logger      *zap.Logger
	Provider    string
	APIKeys     map[string]string
	CORSOrigins []string
	Limiter     *middleware.RateLimiter
	Checkers    map[string]middleware.HealthChecker
}

type Router struct {
	registry *appws.Registry
	renderer *export.Renderer
	reports  archive.ReportStore
	clock    application.Clock
	log      *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	r := &Router{
		registry: d.Registry,
		renderer: d.Renderer,
		reports:  d.Reports,
		clock:    d.Clock,
		log:      d.Logger,
	}
	if r.renderer == nil {
		r.renderer = export.NewRenderer()
	}
	if r.clock == nil {
		r.clock = application.SystemClock{}
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(r.log))
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(d.Provider, d.Checkers))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Get("/sections", r.wrap(r.handleSections))

	mux.Route("/v1/{workspace}", func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(d.APIKeys))
		rt.Use(middleware.RateLimit(d.Limiter))
		rt.Use(middleware.RequireWorkspace)

		rt.Get("/", r.wrap(r.handleSnapshot))
		rt.Delete("/", r.wrap(r.handleDropWorkspace))
		rt.Put("/live-analysis", r.wrap(r.handleLiveAnalysis))
		rt.Post("/analyze-all", r.wrap(r.handleAnalyzeAll))
		rt.Get("/archive", r.wrap(r.handleArchive))

		rt.Get("/scripts", r.wrap(r.handleListScripts))
		rt.Post("/scripts", r.wrap(r.handleCreateScript))
		rt.Route("/scripts/{id}", func(s chi.Router) {
			s.Get("/", r.wrap(r.handleGetScript))
			s.Put("/", r.wrap(r.handleUpdateScript))
			s.Delete("/", r.wrap(r.handleDeleteScript))
			s.Post("/activate", r.wrap(r.handleActivate))

			s.Post("/analyze", r.wrap(r.handleAnalyze))
			s.Post("/refactor", r.wrap(r.handleRefactor))
			s.Post("/refactor-all", r.wrap(r.handleRefactorAll))
			s.Post("/fixes", r.wrap(r.handleApplyFix))
			s.Post("/fixes/batch", r.wrap(r.handleApplyFixes))

			s.Get("/chat", r.wrap(r.handleChat))
			s.Post("/chat", r.wrap(r.handleAsk))
			s.Delete("/chat", r.wrap(r.handleClearChat))

			s.Get("/export", r.wrap(r.handleExport))
			s.Post("/export/publish", r.wrap(r.handlePublish))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks errors caused by the request itself.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func badRequestf(format string, args ...any) error {
	return badRequest{fmt.Errorf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusOf(err)
			if status >= http.StatusInternalServerError {
				r.log.Error("request failed",
					zap.String("path", req.URL.Path),
					zap.String("request_id", chimw.GetReqID(req.Context())),
					zap.Error(err))
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
		}
	}
}

func statusOf(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br),
		errors.Is(err, domain.ErrEmptyScript),
		errors.Is(err, domain.ErrEmptyQuestion),
		errors.Is(err, domain.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrScriptNotFound), errors.Is(err, domain.ErrWorkspaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrNoResult):
		return http.StatusConflict
	case errors.Is(err, domain.ErrClosed):
		return http.StatusGone
	case errors.Is(err, appws.ErrNoArchive), errors.Is(err, errNoReportStore):
		return http.StatusNotImplemented
	}
	switch domai.KindOf(err) {
	case domai.KindValidation:
		return http.StatusBadRequest
	case domai.KindQuota:
		return http.StatusTooManyRequests
	case domai.KindTransport, domai.KindMalformed, domai.KindIncomplete:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v and validates it. With optional set an
// empty body is accepted as the zero value.
func decode(w http.ResponseWriter, req *http.Request, v any, optional bool) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return badRequestf("request body exceeds %d bytes", mbe.Limit)
		}
		return badRequestf("invalid JSON body: %v", err)
	}
	if err := middleware.ValidateStruct(v); err != nil {
		return badRequest{err}
	}
	return nil
}

// workspace returns the request's workspace, creating it on first use.
// Only routes that add state to a workspace go through here.
func (r *Router) workspace(req *http.Request) *appws.Workspace {
	return r.registry.Get(chi.URLParam(req, "workspace"))
}

func (r *Router) existing(req *http.Request) (*appws.Workspace, error) {
	ws, ok := r.registry.Lookup(chi.URLParam(req, "workspace"))
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	return ws, nil
}

func scriptID(req *http.Request) (domain.ScriptID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScriptID(id); err != nil {
		return "", badRequest{err}
	}
	return domain.ScriptID(id), nil
}

// GET /sections
func (r *Router) handleSections(w http.ResponseWriter, _ *http.Request) error {
	type item struct {
		Key   analysis.Section `json:"key"`
		Label string           `json:"label"`
	}
	out := make([]item, 0, len(analysis.AllSections))
	for _, s := range analysis.AllSections {
		out = append(out, item{Key: s, Label: s.Label()})
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func queryBool(req *http.Request, key string) bool {
	switch strings.ToLower(req.URL.Query().Get(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
