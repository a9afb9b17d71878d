package inject

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/halloween/internal/config"
	"github.com/lehigh-university-libraries/halloween/internal/gemini"
	"github.com/lehigh-university-libraries/halloween/internal/handlers"
	"github.com/lehigh-university-libraries/halloween/internal/providers"
	"github.com/lehigh-university-libraries/halloween/internal/ratelimit"
	"github.com/lehigh-university-libraries/halloween/internal/storage"
	"github.com/lehigh-university-libraries/halloween/internal/transform"
	"github.com/samber/do"
)

func Setup(ctx context.Context, cfg *config.Config) *do.Injector {
	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			slog.Debug(fmt.Sprintf(format, args...))
		},
	})

	do.ProvideValue[*config.Config](injector, cfg)
	do.ProvideValue[*http.Client](injector, &http.Client{Timeout: cfg.UpstreamTimeout})

	do.Provide[storage.Store](injector, func(i *do.Injector) (storage.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.RedisURL == "" {
			slog.Info("Using in-memory rate limit store")
			return storage.NewMemoryStore(), nil
		}

		store, err := storage.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			// throttling is skipped until redis answers
			slog.Warn("Redis rate limit store unreachable", "err", err)
		} else {
			slog.Info("Using redis rate limit store")
		}
		return store, nil
	})
	do.Provide[*ratelimit.Limiter](injector, func(i *do.Injector) (*ratelimit.Limiter, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return ratelimit.New(do.MustInvoke[storage.Store](i), cfg.RateLimitWindow), nil
	})

	do.Provide[providers.ImageTransformer](injector, func(i *do.Injector) (providers.ImageTransformer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return gemini.New(cfg.APIKey, cfg.BaseURL, do.MustInvoke[*http.Client](i)), nil
	})
	do.Provide[*transform.Service](injector, func(i *do.Injector) (*transform.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return transform.NewService(do.MustInvoke[providers.ImageTransformer](i), transform.Options{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Prompt:      cfg.Prompt,
			Temperature: cfg.Temperature,
			Policy:      transform.DefaultPolicy(cfg.MaxAttempts, cfg.BaseDelay, cfg.MaxJitter),
		}), nil
	})

	do.Provide[*handlers.Handler](injector, func(i *do.Injector) (*handlers.Handler, error) {
		return handlers.New(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*transform.Service](i),
			do.MustInvoke[*ratelimit.Limiter](i),
		), nil
	})

	return injector
}
