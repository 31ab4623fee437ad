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

	"github.com/permitportal/permitportal/internal/audit"
	"github.com/permitportal/permitportal/internal/auth"
	"github.com/permitportal/permitportal/internal/config"
	"github.com/permitportal/permitportal/internal/database"
	auditrepo "github.com/permitportal/permitportal/internal/database/audit"
	"github.com/permitportal/permitportal/internal/database/users"
	http_controllers "github.com/permitportal/permitportal/internal/http"
	"github.com/permitportal/permitportal/internal/scheduler"
	"github.com/permitportal/permitportal/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully within the configured timeout.
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown signal received, waiting up to %v", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the application together and serves HTTP.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Permit Portal v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	sqlDB, err := db.SQLDB()
	if err != nil {
		log.Fatalf("Failed to get SQL database: %v", err)
	}

	secret := cfg.Auth.SessionSecret
	if secret == "" {
		secret, err = auth.GenerateSecret()
		if err != nil {
			log.Fatalf("Failed to generate session secret: %v", err)
		}
		log.Printf("WARNING: SESSION_SECRET not set; generated an ephemeral secret. Sessions will not survive restarts.")
	}
	csrfSecret := secretBytes(secret)

	usersRepo := users.NewRepository(db.DB)
	auditRepo := auditrepo.NewRepository(db.DB)
	auditService := audit.NewService(auditRepo)
	authService := auth.NewService(usersRepo, cfg.Auth)

	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}

	limiter := auth.NewRequestLimiter(auth.RequestLimitConfig{
		Window:        cfg.RateLimit.Window,
		MaxRequests:   cfg.RateLimit.MaxRequests,
		SweepInterval: cfg.RateLimit.SweepInterval,
	})

	// Background maintenance: auth event retention cleanup on a cron
	// schedule, executed on the task queue.
	var taskClient *tasks.Client
	var cleanupScheduler *scheduler.AuditCleanupScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		})
		if err != nil {
			log.Fatalf("Failed to create task queue: %v", err)
		}
		taskClient.Register(tasks.NewCleanupAuthEventsQueue(auditRepo))
		go taskClient.Start(context.Background())

		cleanupScheduler = scheduler.NewAuditCleanupScheduler(taskClient, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays)
		if err := cleanupScheduler.Start(); err != nil {
			log.Fatalf("Failed to start audit cleanup scheduler: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuditService:   auditService,
		Limiter:        limiter,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
		AuthConfig:     cfg.Auth,
	})

	Serve(router, cfg, func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
			_ = taskClient.Close()
		}
		limiter.Stop()
	})
}

// secretBytes turns the configured secret into key material for CSRF
// signing. Hex-encoded secrets are decoded; anything else is used as
// raw bytes.
func secretBytes(secret string) []byte {
	if decoded, err := hex.DecodeString(secret); err == nil && len(decoded) >= 32 {
		return decoded
	}
	return []byte(secret)
}
