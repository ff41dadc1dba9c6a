package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"gorm.io/gorm"

	"github.com/totegamma/tubesage/client"
	"github.com/totegamma/tubesage/internal/config"
	"github.com/totegamma/tubesage/internal/infra/database"
	"github.com/totegamma/tubesage/internal/infra/gateway"
	"github.com/totegamma/tubesage/internal/infra/llm"
	"github.com/totegamma/tubesage/internal/infra/repository"
	"github.com/totegamma/tubesage/internal/logger"
	"github.com/totegamma/tubesage/internal/observability"
	"github.com/totegamma/tubesage/internal/present/rest"
	authmw "github.com/totegamma/tubesage/internal/present/rest/middleware"
	"github.com/totegamma/tubesage/internal/service"
	"github.com/totegamma/tubesage/internal/usecase"
	"github.com/totegamma/tubesage/platform"
)

const contentCacheSeconds = 60 * 60

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.Server.Database == "sqlite" {
		return database.NewSQLite(cfg.Server.SqlitePath)
	}
	return database.NewPostgres(cfg.Server.PostgresDsn)
}

func newGenerator(ctx context.Context, cfg config.Config, platforms *platform.Registry) (usecase.Generator, error) {
	cl := client.New(cfg.Generation.Endpoint, client.WithUserAgent("tubesage/"+version))

	switch cfg.Generation.Backend {
	case "openai":
		model, err := llm.NewOpenAI(cfg.Generation.APIKey, cfg.Generation.Model)
		if err != nil {
			return nil, err
		}
		return gateway.NewLLMGateway(cl, model, platforms), nil
	case "gemini":
		model, err := llm.NewGemini(ctx, cfg.Generation.APIKey, cfg.Generation.Model)
		if err != nil {
			return nil, err
		}
		return gateway.NewLLMGateway(cl, model, platforms), nil
	default:
		return gateway.NewRemoteGateway(cl, platforms), nil
	}
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Server.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Server.EnableTrace {
		shutdown, err := observability.SetupTracing(ctx, log, "tubesage", version, cfg.Server.TraceEndpoint)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	rdb, err := database.NewRedis(ctx, cfg.Server.RedisAddr, cfg.Server.RedisPassword, cfg.Server.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	platforms, err := platform.NewDefault(
		&http.Client{Timeout: cfg.Platform.ProbeTimeout},
		platform.WithProbeTimeout(cfg.Platform.ProbeTimeout),
		platform.WithCacheTTL(cfg.Platform.CacheTTL),
	)
	if err != nil {
		return err
	}

	generator, err := newGenerator(ctx, cfg, platforms)
	if err != nil {
		return err
	}

	var contentRepo usecase.ContentRepository = repository.NewContentRepository(db)
	if cfg.Server.MemcachedAddr != "" {
		mc := database.NewMemcached(cfg.Server.MemcachedAddr)
		contentRepo = repository.NewCachedContentRepository(repository.NewContentRepository(db), mc, contentCacheSeconds)
	}

	signalService := service.NewSignalService(rdb, log)
	sessionService := service.NewSessionService(rdb, cfg.Chat.SessionTTL)
	authService := service.NewAuthService(cfg.Auth.JWTSecret)

	linkUsecase := usecase.NewLinkUsecase(platforms)
	contentUsecase := usecase.NewContentUsecase(contentRepo, generator, cfg.Generation.Timeout)
	chatUsecase := usecase.NewChatUsecase(repository.NewChatRepository(db), generator, signalService, cfg.Chat.Scope, cfg.Chat.History)
	resultUsecase := usecase.NewQuizResultUsecase(repository.NewQuizResultRepository(db))

	handler := rest.NewHandler(
		linkUsecase,
		contentUsecase,
		chatUsecase,
		resultUsecase,
		sessionService,
		signalService,
		cfg.Chat.CookieName,
		log,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware("tubesage"))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowCredentials: len(cfg.Server.AllowedOrigins) > 0,
	}))
	e.Use(authmw.NewAuthMiddleware(authService, cfg.Auth.TrustHeader).IdentifyIdentity)
	handler.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "listen", cfg.Server.Listen, "scope", cfg.Chat.Scope, "generation", cfg.Generation.Backend)
		if err := e.Start(cfg.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
