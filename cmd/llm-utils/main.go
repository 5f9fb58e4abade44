// Command llm-utils serves the token, pricing, text, extraction and chat
// helpers over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/plasma-umass/llm-utils/bootstrap"
	"github.com/plasma-umass/llm-utils/cache"
	"github.com/plasma-umass/llm-utils/chat"
	"github.com/plasma-umass/llm-utils/component"
	"github.com/plasma-umass/llm-utils/config"
	"github.com/plasma-umass/llm-utils/logger"
	"github.com/plasma-umass/llm-utils/observability"
	"github.com/plasma-umass/llm-utils/server"
	"github.com/plasma-umass/llm-utils/tokens"
	"github.com/plasma-umass/llm-utils/version"
)

func main() {
	flags := pflag.NewFlagSet(version.Name, pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "path to config.yml")
	envFile := flags.String("env-file", "", "path to a .env file")
	showVersion := flags.BoolP("version", "v", false, "print the version and exit")
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}
	settings, err := loadSettings(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "llm-utils: %v\n", err)
		os.Exit(1)
	}

	logger.Init(settings.Logging)
	log := logger.GetGlobalLogger()

	if err := run(context.Background(), settings, log); err != nil {
		log.Fatal("llm-utils failed", logger.Fields(logger.FieldError, err.Error()))
	}
}

func loadSettings(opts ...config.LoaderOption) (*config.Settings, error) {
	var s config.Settings
	if err := config.LoadConfig(version.Name, &s, opts...); err != nil {
		return nil, err
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func run(ctx context.Context, s *config.Settings, log *logger.Logger) error {
	app := bootstrap.NewApp(s.Name, version.Version,
		bootstrap.WithLogger(log),
		bootstrap.WithGracefulTimeout(s.Server.ShutdownTimeout+5*time.Second),
	)

	metrics, err := setupTelemetry(ctx, s, app)
	if err != nil {
		return err
	}

	pricing := tokens.DefaultPricing()
	if s.PricingFile != "" {
		if pricing, err = tokens.LoadPricing(s.PricingFile); err != nil {
			return fmt.Errorf("pricing: %w", err)
		}
		log.Info("pricing loaded", logger.Fields("file", s.PricingFile, "models", len(pricing.Models())))
	}

	var checkers []observability.HealthChecker
	store, err := setupCache(s.Cache, app, log)
	if err != nil {
		return err
	}
	if hc, ok := store.(observability.HealthChecker); ok {
		checkers = append(checkers, hc)
	}

	var api chat.ChatAPI
	if s.Chat.Enabled() {
		api, err = chat.New(ctx, chatConfig(s.Chat),
			chat.WithLogger(log),
			chat.WithMetrics(metrics),
			chat.WithPricing(pricing),
		)
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}
		if store != nil {
			api = chat.Cached(api, store, s.Chat.CacheTTL)
		}
		log.Info("chat provider configured", logger.Fields(logger.FieldProvider, api.Name()))
	}

	srv := server.New(server.ConfigFromSettings(s.Server), server.Deps{
		Pricing:  pricing,
		Chat:     api,
		Checkers: checkers,
		Metrics:  metrics,
		Logger:   log,
	})
	if err := app.RegisterComponent(srv); err != nil {
		return err
	}
	return app.Run(ctx)
}

func chatConfig(c config.ChatSettings) chat.Config {
	return chat.Config{
		Provider:        c.Provider,
		Model:           c.Model,
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		MaxRetry:        c.MaxRetry,
		MaxAttempts:     c.MaxAttempts,
		Timeout:         c.Timeout,
	}
}

// setupCache returns nil when no backend is configured.
func setupCache(c config.CacheSettings, app *bootstrap.App, log *logger.Logger) (cache.Store, error) {
	switch c.Backend {
	case "memory":
		return cache.NewMemory(), nil
	case "redis":
		r, err := cache.NewRedis(cache.RedisConfig{
			Addr:      c.Addr,
			Password:  c.Password,
			DB:        c.DB,
			KeyPrefix: c.KeyPrefix,
		}, log)
		if err != nil {
			return nil, err
		}
		if err := app.RegisterComponent(r); err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, nil
}

// setupTelemetry installs OTLP tracing and metrics when enabled and
// registers their shutdown. It returns nil metrics when disabled.
func setupTelemetry(ctx context.Context, s *config.Settings, app *bootstrap.App) (*observability.Metrics, error) {
	if !s.Observability.Enabled {
		return nil, nil
	}
	cfg := observability.DefaultConfig(s.Name)
	cfg.ServiceVersion = version.Version
	cfg.Environment = s.Environment
	if s.Observability.Endpoint != "" {
		cfg.Endpoint = s.Observability.Endpoint
	}
	cfg.Insecure = s.Observability.Insecure
	cfg.SampleRatio = s.Observability.SampleRatio

	tp, err := observability.InitTracer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	mp, err := observability.InitMeter(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	if err := app.RegisterComponent(component.Func("telemetry", nil, func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	})); err != nil {
		return nil, err
	}
	return observability.NewMetrics(observability.Meter())
}
