package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/handler"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/middleware"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Bill    *handler.BillHandler
	Loyalty *handler.LoyaltyHandler
	Report  *handler.ReportHandler
	Storage *handler.StorageHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg         *config.Config
	RateLimiter *middleware.ClientRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// Invoice download stays outside the versioned group so the link on a
	// WhatsApp message or printed receipt is short and stable.
	router.GET("/bills/:id/pdf", h.Bill.DownloadPDF)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		if deps.RateLimiter == nil {
			deps.RateLimiter = middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
				RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
				BurstSize:         deps.Cfg.RateLimit.Requests,
				CleanupInterval:   5 * time.Minute,
				EntryTTL:          10 * time.Minute,
			})
		}
		v1.Use(deps.RateLimiter.Middleware())

		registerBillRoutes(v1, h)
		registerLoyaltyRoutes(v1, h)
		registerReportRoutes(v1, h)
		registerStorageRoutes(v1, h)
	}

	return router
}

func registerBillRoutes(v1 *gin.RouterGroup, h *Handlers) {
	bills := v1.Group("/bills")
	{
		bills.GET("", h.Bill.List)
		bills.POST("", h.Bill.Create)
		bills.GET("/:id", h.Bill.Get)
		bills.GET("/:id/pdf", h.Bill.DownloadPDF)
		bills.POST("/:id/send-whatsapp", h.Bill.SendWhatsApp)
	}

	v1.GET("/whatsapp/status", h.Bill.WhatsAppStatus)
}

func registerLoyaltyRoutes(v1 *gin.RouterGroup, h *Handlers) {
	loyalty := v1.Group("/loyalty")
	{
		loyalty.GET("/status", h.Loyalty.Status)
	}
}

func registerReportRoutes(v1 *gin.RouterGroup, h *Handlers) {
	reports := v1.Group("/reports")
	{
		reports.GET("/revenue", h.Report.Revenue)
		reports.GET("/revenue/export", h.Report.ExportRevenue)
	}
}

func registerStorageRoutes(v1 *gin.RouterGroup, h *Handlers) {
	storage := v1.Group("/storage")
	{
		storage.GET("/documents", h.Storage.ListDocuments)
		storage.GET("/stats", h.Storage.Stats)
		storage.POST("/cleanup", h.Storage.Cleanup)
	}
}
