package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appai "github.com/bryanwahyu/scriptlens/internal/application/ai"
	"github.com/bryanwahyu/scriptlens/internal/config"
	"github.com/bryanwahyu/scriptlens/internal/domain/ai"
	"github.com/bryanwahyu/scriptlens/internal/infra/ai/gemini"
	"github.com/bryanwahyu/scriptlens/internal/infra/ai/heuristic"
	"github.com/bryanwahyu/scriptlens/internal/infra/ai/openai"
	"github.com/bryanwahyu/scriptlens/internal/middleware"
)

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	return config.Load(path)
}

// newGenerator picks the model backend named by cfg.AI.Provider.
func newGenerator(ctx context.Context, cfg *config.Config) (ai.Generator, error) {
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderOpenAI:
		if cfg.AI.BaseURL != "" {
			return openai.NewClientWithBaseURL(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL), nil
		}
		return openai.NewClient(cfg.AI.APIKey, cfg.AI.Model), nil
	case config.ProviderHeuristic:
		return heuristic.New(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AI.Provider)
	}
}

func newAIService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*appai.Service, error) {
	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := []appai.Option{
		appai.WithTimeout(cfg.AI.Timeout),
		appai.WithLogger(log),
		appai.WithObserver(middleware.AIObserver{}),
	}
	if n := cfg.AI.RequestsPerMinute; n > 0 {
		opts = append(opts, appai.WithLimiter(rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)))
	}
	return appai.NewService(gen, opts...), nil
}
