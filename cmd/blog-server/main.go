package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-api/internal/config"
	"blog-api/internal/domain"
	"blog-api/internal/handler"
	"blog-api/internal/messaging"
	"blog-api/internal/middleware"
	"blog-api/internal/observability"
	"blog-api/internal/repository/postgres"
	"blog-api/internal/repository/redisstore"
	"blog-api/internal/security"
	"blog-api/internal/service"
	"blog-api/internal/storage"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting blog server", slog.String("environment", cfg.Environment))

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(connCtx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgresql")

	if err := postgres.EnsureSchema(connCtx, db); err != nil {
		slog.Error("failed to apply schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rmqCtx, rmqCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer rmqCancel()

	rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
	if err != nil {
		slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rmq.Close()

	tokenStore, err := redisstore.New(connCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer tokenStore.Close()
	slog.Info("connected to redis")

	images, imageDir, err := newImageStore(connCtx, cfg)
	if err != nil {
		slog.Error("failed to initialise image storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	postRepo := postgres.NewPostRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	commentRepo := postgres.NewCommentRepository(db)

	tokens, err := security.NewTokenGenerator(cfg.TokenSecretKey, cfg.TokenExpiry)
	if err != nil {
		slog.Error("invalid action token settings", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jwtIssuer, err := security.NewJWTIssuer(cfg.SecretKey, cfg.AccessTokenExpiry)
	if err != nil {
		slog.Error("invalid access token settings", slog.String("error", err.Error()))
		os.Exit(1)
	}
	notifier := service.NewNotifier(rmq, cfg.PublicBaseURL)

	authService := service.NewAuthService(userRepo, tokens, jwtIssuer, tokenStore, notifier)
	userService := service.NewUserService(userRepo, images, cfg.Images.MaxBytes)
	postService := service.NewPostService(postRepo, categoryRepo)
	commentService := service.NewCommentService(commentRepo, postRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go recordDBStats(ctx, db)

	api := &handler.API{
		Auth:          handler.NewAuthHandler(authService, userService, cfg.CSRFCookieMaxAge),
		Users:         handler.NewUserHandler(userService, postService, commentService, cfg.Images.MaxBytes),
		Posts:         handler.NewPostHandler(postService),
		Comments:      handler.NewCommentHandler(commentService),
		Authenticator: authService,
		AuthLimiter:   middleware.NewRateLimiter(ctx, 5, 10),
		APILimiter:    middleware.NewRateLimiter(ctx, 20, 50),
		CSRF:          middleware.DefaultCSRFConfig(),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics())
	r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig(cfg.OpenAPIValidation, cfg.OpenAPISpecPath)))

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db, rmq, tokenStore))
	r.Handle("/metrics", promhttp.Handler())

	if imageDir != "" {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(imageDir))))
	}

	api.Mount(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("blog server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	slog.Info("server stopped gracefully")
}

// newImageStore returns the configured store and, for local storage, the
// directory to serve under /images/
func newImageStore(ctx context.Context, cfg *config.Config) (domain.ImageStore, string, error) {
	if cfg.Images.Storage == config.ImageStorageS3 {
		store, err := storage.NewS3ImageStore(ctx, storage.S3Config{
			Bucket:    cfg.Images.S3Bucket,
			Region:    cfg.Images.S3Region,
			Endpoint:  cfg.Images.S3Endpoint,
			AccessKey: cfg.Images.S3AccessKey,
			SecretKey: cfg.Images.S3SecretKey,
		})
		return store, "", err
	}

	store, err := storage.NewLocalImageStore(cfg.Images.Dir, cfg.PublicBaseURL)
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}

// recordDBStats publishes connection pool gauges until ctx is done
func recordDBStats(ctx context.Context, db *sql.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.RecordDBStats(db.Stats())
		}
	}
}
