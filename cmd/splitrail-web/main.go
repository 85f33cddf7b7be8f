package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/splitrail/splitrail-web/internal/config"
	"github.com/splitrail/splitrail-web/internal/database"
	"github.com/splitrail/splitrail-web/internal/handlers"
	"github.com/splitrail/splitrail-web/internal/logger"
	"github.com/splitrail/splitrail-web/internal/metrics"
	authmw "github.com/splitrail/splitrail-web/internal/middleware"
	"github.com/splitrail/splitrail-web/internal/ratelimit"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/internal/sse"
	"github.com/splitrail/splitrail-web/internal/view"
)

type limiters struct {
	token  ratelimit.Limiter
	upload ratelimit.Limiter
	close  func()
}

// newLimiters uses redis when configured so limits hold across replicas.
func newLimiters(ctx context.Context, cfg *config.Config) (*limiters, error) {
	if cfg.RedisURL == "" {
		token := ratelimit.NewMemoryLimiter(cfg.RateLimit.TokenCreatePerMinute)
		upload := ratelimit.NewMemoryLimiter(cfg.RateLimit.UploadPerMinute)

		sweepCtx, cancel := context.WithCancel(ctx)
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case <-ticker.C:
					n := token.Cleanup() + upload.Cleanup()
					if n > 0 {
						slog.Debug("rate limiters swept", "evicted", n)
					}
				}
			}
		}()
		return &limiters{token: token, upload: upload, close: cancel}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &limiters{
		token:  ratelimit.NewRedisLimiterWithClient(client, cfg.RateLimit.TokenCreatePerMinute, time.Minute),
		upload: ratelimit.NewRedisLimiterWithClient(client, cfg.RateLimit.UploadPerMinute, time.Minute),
		close:  func() { _ = client.Close() },
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logger.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	limits, err := newLimiters(ctx, cfg)
	if err != nil {
		log.Error("failed to set up rate limiting", "error", err)
		os.Exit(1)
	}
	defer limits.close()

	renderer, err := view.New()
	if err != nil {
		log.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	apiTokenService := services.NewAPITokenService(db)
	usageService := services.NewUsageService(db)

	hub := sse.NewHub()
	go hub.Run(ctx)

	authHandler := handlers.NewAuthHandler(cfg, userService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	apiTokenHandler := handlers.NewAPITokenHandler(apiTokenService).WithEvents(hub)
	usageHandler := handlers.NewUsageHandler(usageService).WithEvents(hub)
	eventsHandler := handlers.NewEventsHandler(hub)
	pagesHandler := handlers.NewPagesHandler(renderer, cfg.BaseURL, userService, apiTokenService, usageService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))

	api := app.Group("/api")
	api.Use(middleware.BodyParser())

	auth := api.Group("/auth")
	auth.Get("/:provider/login", authHandler.Login)
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/user/me", userHandler.GetMe)
	protected.Patch("/user/me", userHandler.UpdateMe)

	protected.Get("/user/token", apiTokenHandler.List)
	protected.Delete("/user/token", apiTokenHandler.Delete)
	protected.Get("/user/stats", usageHandler.Stats)
	protected.Get("/user/events", eventsHandler.Connect)

	tokenCreate := api.Group("")
	tokenCreate.Use(authmw.Auth(jwtService))
	tokenCreate.Use(authmw.RateLimit(limits.token, "token"))
	tokenCreate.Post("/user/token", apiTokenHandler.Create)

	cli := api.Group("")
	cli.Use(authmw.APITokenAuth(apiTokenService))
	cli.Use(authmw.RateLimit(limits.upload, "upload"))
	cli.Post("/upload", usageHandler.Upload)

	api.Get("/leaderboard", usageHandler.Leaderboard)
	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	pages := app.Group("")
	pages.Use(authmw.OptionalAuth(jwtService))
	pages.Get("/", pagesHandler.Home)
	pages.Get("/tokens", pagesHandler.Tokens)
	pages.Post("/tokens", pagesHandler.CreateToken)
	pages.Post("/tokens/:id/delete", pagesHandler.DeleteToken)
	pages.Get("/dashboard", pagesHandler.Dashboard)
	pages.Get("/theme/:theme", pagesHandler.SetTheme)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", metrics.Middleware(app))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go authHandler.RunCleanup(ctx)
	go apiTokenService.RunFlusher(ctx, 30*time.Second)

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := tokenService.CleanupExpired(ctx); err != nil {
					log.Warn("refresh token cleanup failed", "error", err)
				}
			}
		}
	}()

	go func() {
		log.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if err := apiTokenService.Close(shutdownCtx); err != nil {
		log.Error("flushing token usage failed", "error", err)
	}
}
