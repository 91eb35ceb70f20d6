package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bryanwahyu/scriptlens/internal/domain/ai"
	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
	"github.com/bryanwahyu/scriptlens/internal/infra/ai/prompt"
)

// Service is the AI client: it builds prompts, calls the generator and
// turns the raw reply into validated results or a typed *ai.Error.
// It is safe for concurrent use.
type Service struct {
	gen     ai.Generator
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.Logger
	observe Observer
}

// Observer is told about every outbound call once it returns.
type Observer interface {
	Started(task ai.Task)
	Finished(task ai.Task, d time.Duration, err error)
}

type Option func(*Service)

// WithLimiter paces outbound calls.
func WithLimiter(l *rate.Limiter) Option { return func(s *Service) { s.limiter = l } }

// WithTimeout bounds each call on top of the caller's context.
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func WithObserver(o Observer) Option { return func(s *Service) { s.observe = o } }

func NewService(gen ai.Generator, opts ...Option) *Service {
	s := &Service{gen: gen, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Provider returns the generator name, e.g. "gemini:gemini-2.5-flash".
func (s *Service) Provider() string { return s.gen.Name() }

// Analyze returns a complete analysis or an error, never a partial result.
func (s *Service) Analyze(ctx context.Context, script string) (*analysis.Result, error) {
	if strings.TrimSpace(script) == "" {
		return nil, invalid(ai.TaskAnalyze, "Script content cannot be empty.")
	}
	raw, err := s.call(ctx, ai.Request{
		Task:   ai.TaskAnalyze,
		System: prompt.GetSystemPrompt(ai.TaskAnalyze),
		User:   prompt.AnalyzePrompt(script),
		Script: script,
	})
	if err != nil {
		return nil, err
	}
	res, err := analysis.DecodeResult(raw)
	if err != nil {
		return nil, s.decodeFailure(ai.TaskAnalyze, err, raw)
	}
	return res, nil
}

// Refactor asks for one replacement answering suggestion.
func (s *Service) Refactor(ctx context.Context, script, suggestion string) (*analysis.RefactorResult, error) {
	if strings.TrimSpace(script) == "" {
		return nil, invalid(ai.TaskRefactor, "Script content cannot be empty.")
	}
	if strings.TrimSpace(suggestion) == "" {
		return nil, invalid(ai.TaskRefactor, "Suggestion cannot be empty.")
	}
	raw, err := s.call(ctx, ai.Request{
		Task:        ai.TaskRefactor,
		System:      prompt.GetSystemPrompt(ai.TaskRefactor),
		User:        prompt.RefactorPrompt(script, suggestion),
		Script:      script,
		Suggestions: []string{suggestion},
	})
	if err != nil {
		return nil, err
	}
	res, err := analysis.DecodeRefactor(raw)
	if err != nil {
		return nil, s.decodeFailure(ai.TaskRefactor, err, raw)
	}
	res.Suggestion = suggestion
	return res, nil
}

// RefactorAll asks for one replacement per suggestion in a single call.
// A single malformed element fails the whole batch.
func (s *Service) RefactorAll(ctx context.Context, script string, suggestions []string) ([]analysis.RefactorResult, error) {
	if strings.TrimSpace(script) == "" {
		return nil, invalid(ai.TaskRefactorAll, "Script content cannot be empty.")
	}
	clean := make([]string, 0, len(suggestions))
	for _, sg := range suggestions {
		if sg = strings.TrimSpace(sg); sg != "" {
			clean = append(clean, sg)
		}
	}
	if len(clean) == 0 {
		return nil, invalid(ai.TaskRefactorAll, "At least one suggestion is required.")
	}
	raw, err := s.call(ctx, ai.Request{
		Task:        ai.TaskRefactorAll,
		System:      prompt.GetSystemPrompt(ai.TaskRefactorAll),
		User:        prompt.RefactorAllPrompt(script, clean),
		Script:      script,
		Suggestions: clean,
	})
	if err != nil {
		return nil, err
	}
	out, err := analysis.DecodeRefactorAll(raw)
	if err != nil {
		return nil, s.decodeFailure(ai.TaskRefactorAll, err, raw)
	}
	if len(out) != len(clean) {
		s.log.Warn("refactor batch size mismatch",
			zap.Int("requested", len(clean)),
			zap.Int("returned", len(out)))
	}
	return out, nil
}

// Ask answers a free-form question about script. The reply is returned trimmed.
func (s *Service) Ask(ctx context.Context, script, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", invalid(ai.TaskAsk, "Question cannot be empty.")
	}
	raw, err := s.call(ctx, ai.Request{
		Task:     ai.TaskAsk,
		System:   prompt.GetSystemPrompt(ai.TaskAsk),
		User:     prompt.AskPrompt(script, question),
		Script:   script,
		Question: question,
	})
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return "", &ai.Error{Task: ai.TaskAsk, Kind: ai.KindMalformed, Err: ai.ErrEmptyResponse}
	}
	return answer, nil
}

func (s *Service) call(ctx context.Context, req ai.Request) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", &ai.Error{Task: req.Task, Kind: ai.KindTransport, Err: err}
		}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.observe != nil {
		s.observe.Started(req.Task)
	}
	start := time.Now()
	raw, err := s.gen.Generate(ctx, req)
	if s.observe != nil {
		s.observe.Finished(req.Task, time.Since(start), err)
	}
	fields := []zap.Field{
		zap.String("task", string(req.Task)),
		zap.String("provider", s.gen.Name()),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		kind := ai.KindTransport
		if errors.Is(err, ai.ErrQuotaExceeded) {
			kind = ai.KindQuota
		} else if errors.Is(err, ai.ErrEmptyResponse) {
			kind = ai.KindMalformed
		}
		s.log.Warn("ai call failed", append(fields, zap.String("kind", string(kind)), zap.Error(err))...)
		return "", &ai.Error{Task: req.Task, Kind: kind, Err: err}
	}
	s.log.Debug("ai call done", append(fields, zap.Int("bytes", len(raw)))...)
	return raw, nil
}

func (s *Service) decodeFailure(task ai.Task, err error, raw string) error {
	kind := ai.KindMalformed
	if errors.Is(err, analysis.ErrIncompleteResponse) || errors.Is(err, analysis.ErrMissingFields) {
		kind = ai.KindIncomplete
	}
	s.log.Warn("ai response rejected",
		zap.String("task", string(task)),
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(raw)),
		zap.Error(err))
	return &ai.Error{Task: task, Kind: kind, Err: err}
}

func invalid(task ai.Task, msg string) error {
	return &ai.Error{Task: task, Kind: ai.KindValidation, Err: &validationError{msg: msg}}
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ai.ErrEmptyInput }
