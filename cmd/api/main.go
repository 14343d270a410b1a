package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sweetcrumb/bakebill-api/internal/application/service"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/database"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/repository"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/storage"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/whatsapp"
	"github.com/sweetcrumb/bakebill-api/internal/invoice"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/handler"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/middleware"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/routes"
	"github.com/sweetcrumb/bakebill-api/pkg/billnumber"
	"github.com/sweetcrumb/bakebill-api/pkg/scheduler"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	billRepo := repository.NewBillRepository(db)

	// Invoice rendering with its scratch workspace
	scratch, err := invoice.NewScratch(cfg.Invoice.ScratchDir, cfg.Business.LogoURL, cfg.Invoice.SweepMaxAge)
	if err != nil {
		log.Fatalf("Failed to prepare invoice scratch dir: %v", err)
	}
	renderer := invoice.NewRenderer(cfg.Business, scratch)

	// Object storage is optional; the API degrades to local-only invoices
	// when no bucket is configured.
	var uploader *storage.Uploader
	if cfg.Storage.Configured() {
		uploader, err = storage.NewUploader(ctx, cfg.Storage)
		if err == nil {
			_, err = uploader.EnsureBucketExists(ctx)
		}
		if err != nil {
			log.Printf("Warning: object storage disabled: %v", err)
			uploader = nil
		}
	} else {
		log.Printf("Object storage not configured; invoices will not be uploaded")
	}

	// Initialize services
	loyaltyService := service.NewLoyaltyService(billRepo, cfg.Loyalty)
	var documents service.DocumentStore
	if uploader != nil {
		documents = uploader
	}
	billingService := service.NewBillingService(billRepo, loyaltyService, renderer, documents, billnumber.New("BILL"))
	deliveryService := service.NewDeliveryService(billRepo, renderer, whatsapp.NewClient(&cfg.WhatsApp), cfg.WhatsApp)
	reportService := service.NewReportService(billRepo)

	if !cfg.WhatsApp.Configured() {
		log.Printf("WhatsApp delivery not configured; send endpoints will return 503")
	} else if cfg.WhatsApp.TestMode {
		log.Printf("WhatsApp delivery running in test mode")
	}

	// Background maintenance tasks
	sched := scheduler.New()
	sched.Register(scheduler.Task{
		Name:     "invoice-scratch-sweep",
		Interval: cfg.Invoice.SweepInterval,
		Run: func(ctx context.Context) {
			if n, err := scratch.Sweep(ctx); err != nil {
				log.Printf("scratch sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("scratch sweep removed %d file(s)", n)
			}
		},
	})
	if uploader != nil && cfg.Storage.RetentionDays > 0 {
		sched.Register(scheduler.Task{
			Name:     "storage-retention",
			Interval: 24 * time.Hour,
			Run: func(ctx context.Context) {
				deleted, err := uploader.DeleteOlderThan(ctx, cfg.Storage.RetentionDays)
				if err != nil {
					log.Printf("storage retention failed: %v", err)
					return
				}
				if len(deleted) > 0 {
					log.Printf("storage retention deleted %d document(s)", len(deleted))
				}
			},
		})
	}
	sched.Start(ctx)
	defer sched.Stop()

	// Initialize handlers
	handlers := &routes.Handlers{
		Bill:    handler.NewBillHandler(billingService, deliveryService, cfg),
		Loyalty: handler.NewLoyaltyHandler(loyaltyService, cfg),
		Report:  handler.NewReportHandler(reportService),
		Storage: handler.NewStorageHandler(uploader, cfg),
	}

	rateLimiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.RateLimit.Requests) / float64(cfg.RateLimit.Duration),
		BurstSize:         cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
	defer rateLimiter.Stop()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Cfg:         cfg,
		RateLimiter: rateLimiter,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
