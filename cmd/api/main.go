package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/komekarch/site/backend/internal/analysis/topic"
	"github.com/komekarch/site/backend/internal/clock"
	"github.com/komekarch/site/backend/internal/config"
	"github.com/komekarch/site/backend/internal/handler"
	"github.com/komekarch/site/backend/internal/logger"
	"github.com/komekarch/site/backend/internal/middleware"
	"github.com/komekarch/site/backend/internal/model/course"
	"github.com/komekarch/site/backend/internal/repository/transcript"
	"github.com/komekarch/site/backend/internal/service/ai"
	"github.com/komekarch/site/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		logger.L.Fatal().Err(err).Msg("KomekArch backend failed")
	}
}

// run 装配依赖并阻塞到 ctx 结束；所有 defer 的清理都在返回前执行。
func run(ctx context.Context) error {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	log := logger.For("main")

	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file, using process environment only")
	}

	courses, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("load course catalog: %w", err)
	}

	engine, err := loadEngine(cfg.Assistant)
	if err != nil {
		return fmt.Errorf("load assistant rules: %w", err)
	}

	opts := chat.Options{
		ReplyDelay: cfg.Assistant.ReplyDelay,
		ReplyMode:  cfg.Assistant.ReplyMode,
		IdleTTL:    cfg.Session.IdleTTL,
		Clock:      clock.Real(),
		Responder:  chat.EngineResponder(engine),
	}
	deps := handler.Dependencies{
		Courses:       courses,
		Engine:        engine,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Limiter:       middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}

	if cfg.AI.Enabled() {
		tutor, err := newTutor(ctx, cfg, engine, courses.List())
		if err != nil {
			log.Warn().Err(err).Msg("AI tutor unavailable, answering from the keyword table")
		} else {
			opts.Responder = tutor
			deps.Tutor = tutor
			log.Info().Str("model", cfg.AI.Model).Msg("AI tutor enabled")
		}
	} else {
		log.Info().Msg("Ark credentials not configured, assistant runs in demo mode")
	}

	if cfg.Transcript.DBPath != "" {
		archive, err := transcript.Open(ctx, cfg.Transcript.DBPath)
		if err != nil {
			return fmt.Errorf("open transcript archive %q: %w", cfg.Transcript.DBPath, err)
		}
		defer func() {
			if err := archive.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close transcript archive")
			}
		}()
		opts.Recorder = archive
		deps.Archive = archive
		log.Info().Str("path", cfg.Transcript.DBPath).Msg("transcript archive enabled")
	}

	chatService := chat.NewService(opts)
	defer chatService.Shutdown()
	go chatService.RunJanitor(ctx)
	deps.Chat = chatService

	return startServer(ctx, cfg.Server, handler.NewRouter(deps))
}

func loadCatalog(cfg config.CatalogConfig) (course.Store, error) {
	if cfg.Path == "" {
		return course.NewMemoryStore(course.Seed()), nil
	}
	modules, err := course.LoadFile(cfg.Path)
	if err != nil {
		return nil, err
	}
	return course.NewMemoryStore(modules), nil
}

func loadEngine(cfg config.AssistantConfig) (*topic.Engine, error) {
	if cfg.RulesPath == "" {
		return topic.Default(), nil
	}
	return topic.LoadFile(cfg.RulesPath)
}

func newTutor(ctx context.Context, cfg *config.Config, engine *topic.Engine, modules []course.Module) (*ai.Tutor, error) {
	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return nil, err
	}
	return ai.NewTutor(ctx, chatModel, ai.Options{
		Fallback: engine,
		Timeout:  cfg.Assistant.AITimeout,
		Modules:  modules,
	})
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	log := logger.For("main")
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("KomekArch backend listening")
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("serve http: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
