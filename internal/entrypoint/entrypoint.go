package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/settings"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/feedback"
	http_controllers "github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/lifecycle"
	"github.com/mrlokans/librarian/internal/notify"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT, SIGKILL can't be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before tearing down what handlers depend on
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Librarian v%s", version)

	catalog, err := database.NewCatalogDatabase(cfg.Database.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to initialize catalog database: %v", err)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			log.Printf("Error closing catalog database: %v", err)
		}
	}()

	feedbackDB, err := database.NewFeedbackDatabase(cfg.Database.FeedbackPath)
	if err != nil {
		log.Fatalf("Failed to initialize feedback database: %v", err)
	}
	defer func() {
		if err := feedbackDB.Close(); err != nil {
			log.Printf("Error closing feedback database: %v", err)
		}
	}()

	emitter := notify.NewEmitter(catalog.DB, feedbackDB.DB)
	manager := lifecycle.NewManager(catalog.DB, emitter)
	feedbackService := feedback.NewService(feedbackDB.DB, emitter)
	bookRepo := books.NewRepository(catalog.DB)
	userRepo := users.NewRepository(catalog.DB)
	settingsRepo := settings.NewRepository(catalog.DB)

	// Outbox delivery runs on the task queue when enabled, inline otherwise
	var enqueuer scheduler.Enqueuer
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.CatalogPath, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewDeliverNotificationsQueue(emitter),
			tasks.NewPruneNotificationsQueue(emitter),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
		enqueuer = taskClient
	} else {
		log.Printf("Task queue disabled, notification jobs run inline")
		enqueuer = tasks.NewInlineRunner(emitter, emitter)
	}

	notificationScheduler := scheduler.NewNotificationScheduler(enqueuer, scheduler.Config{
		DeliverySchedule: cfg.Notifications.DeliverySchedule,
		PruneSchedule:    cfg.Notifications.PruneSchedule,
		Retention:        cfg.Notifications.Retention,
	})
	if err := notificationScheduler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start notification scheduler: %v", err)
	}

	// Initialize authentication if enabled
	authService := auth.NewService(userRepo, cfg.Auth)
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		sqlDB, err := catalog.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)
		csrfSecret = loadCSRFSecret(cfg.Auth.SessionSecret)

		hasUsers, err := authService.HasUsers(context.Background())
		if err != nil {
			log.Printf("WARNING: could not count users: %v", err)
		} else if !hasUsers {
			log.Printf("No users found. Run '%s create-admin' to create an administrator account.", os.Args[0])
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	// A nil interface keeps archiving off; a typed nil pointer would not
	var archiver http_controllers.SubmissionArchiver
	if cfg.Audit.Dir != "" {
		archiver = audit.NewAuditor(cfg.Audit.Dir)
		log.Printf("Archiving public submissions to %s", cfg.Audit.Dir)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		AuthConfig:     cfg.Auth,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		CSRFSecret:     csrfSecret,
		Stores: map[string]http_controllers.Pinger{
			"catalog":  catalog,
			"feedback": feedbackDB,
		},
		Books:         bookRepo,
		Availability:  manager,
		Users:         userRepo,
		Accounts:      authService,
		Settings:      settingsRepo,
		Lifecycle:     manager,
		Feedback:      feedbackService,
		Notifications: emitter,
		Archiver:      archiver,
		LibraryName:   cfg.Global.LibraryName,
		Version:       version,
	})

	onShutdown := func(ctx context.Context) {
		notificationScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		if sessionManager != nil {
			sessionManager.Close()
		}
	}

	Serve(router, cfg, onShutdown)
}

// loadCSRFSecret decodes a hex secret, falls back to raw bytes, and
// generates a throwaway one when none is configured.
func loadCSRFSecret(configured string) []byte {
	if configured != "" {
		secret, err := hex.DecodeString(configured)
		if err != nil {
			return []byte(configured)
		}
		return secret
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}
	secret, _ := hex.DecodeString(generated)
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return secret
}
