package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Callypige/dreamology-diary/internal/config"
	"github.com/Callypige/dreamology-diary/internal/database"
	"github.com/Callypige/dreamology-diary/internal/handler"
	"github.com/Callypige/dreamology-diary/internal/queue"
	appredis "github.com/Callypige/dreamology-diary/internal/redis"
	"github.com/Callypige/dreamology-diary/internal/repository"
	"github.com/Callypige/dreamology-diary/internal/service"
	"github.com/Callypige/dreamology-diary/internal/worker"
)

// Run wires the whole application and serves until interrupted.
func Run() error {
	ctx := context.Background()

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Postgres
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	dreamRepo := repository.NewDreamRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 4. Email delivery: Redis stream + worker pool when Redis is
	// configured, synchronous SMTP fallback otherwise.
	mailer := service.NewMailer(cfg)

	var emails service.EmailDispatcher
	var workers *worker.Manager
	var redisClient *appredis.Client

	if cfg.RedisURL != "" {
		redisClient, err = appredis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		defer redisClient.Close()

		emails = service.NewQueueDispatcher(queue.NewPublisher(redisClient.Client))

		workerCfg := worker.DefaultManagerConfig()
		workerCfg.WorkerCount = cfg.EmailWorkerCount
		workers = worker.NewManager(
			queue.NewConsumer(redisClient.Client),
			worker.NewHandler(mailer),
			workerCfg,
		)
		if err := workers.Start(ctx); err != nil {
			return fmt.Errorf("failed to start email workers: %w", err)
		}
		defer workers.Stop()
	} else {
		log.Println("REDIS_URL not set, sending emails synchronously")
		emails = service.NewSyncDispatcher(mailer)
	}

	// 5. Services
	userService := service.NewUserService(userRepo, profileRepo, emails)
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	dreamService := service.NewDreamService(dreamRepo)
	profileService := service.NewProfileService(profileRepo, userRepo)
	statsService := service.NewStatsService(dreamRepo, cfg.StatsTimeZone)

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	// 6. Handlers and router
	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, authService),
		DreamHandler:   handler.NewDreamHandler(dreamService),
		ProfileHandler: handler.NewProfileHandler(profileService, statsService),
		UploadHandler:  handler.NewUploadHandler(mediaService, profileService),
		JWTSecret:      cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// 7. Serve, shutting down cleanly on SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
