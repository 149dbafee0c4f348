package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/bookshop-pos/internal/config"
	domainRepo "github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/handler"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/middleware"
	"github.com/sangkips/bookshop-pos/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Customer   *handler.CustomerHandler
	Book       *handler.BookHandler
	Bill       *handler.BillHandler
	Collection *handler.CollectionHandler
	Settings   *handler.SettingsHandler
	Report     *handler.ReportHandler
	Printer    *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	// RateLimiter is owned by the caller, which stops it on shutdown
	RateLimiter *middleware.RateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, h)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/change-password", h.Auth.ChangePassword)
	protected.POST("/auth/logout", h.Auth.Logout)

	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo:     deps.IdempotencyRepo,
		Required: true,
	})

	registerUserRoutes(protected, h)
	registerCustomerRoutes(protected, h)
	registerBookRoutes(protected, h)
	registerBillRoutes(protected, h, idempotent)
	registerCollectionRoutes(protected, h, idempotent)
	registerSettingsRoutes(protected, h)
	registerReportRoutes(protected, h)
	registerPrinterRoutes(protected, h)
}

func registerUserRoutes(protected *gin.RouterGroup, h *Handlers) {
	users := protected.Group("/users")
	users.Use(middleware.RequireRole(enum.RoleAdmin))
	{
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id", h.User.Update)
		users.DELETE("/:id", h.User.Delete)
	}
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	customers.Use(middleware.RequireStaff())
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/account/:account", h.Customer.GetByAccount)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
		customers.GET("/:id/stats", h.Customer.Stats)
		customers.DELETE("/:id", middleware.RequireRole(enum.RoleAdmin), h.Customer.Delete)
	}
}

func registerBookRoutes(protected *gin.RouterGroup, h *Handlers) {
	books := protected.Group("/books")
	{
		// the catalog is browsable by customers too
		books.GET("", h.Book.List)
		books.GET("/:id", h.Book.Get)

		staff := books.Group("")
		staff.Use(middleware.RequireStaff())
		staff.GET("/low-stock", h.Book.LowStock)
		staff.PATCH("/:id/stock", h.Book.AdjustStock)

		admin := books.Group("")
		admin.Use(middleware.RequireRole(enum.RoleAdmin))
		admin.POST("", h.Book.Create)
		admin.PUT("/:id", h.Book.Update)
		admin.DELETE("/:id", h.Book.Delete)
	}
}

func registerBillRoutes(protected *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	bills := protected.Group("/bills")
	{
		bills.GET("", h.Bill.List)
		bills.GET("/:id", h.Bill.Get)
		bills.GET("/:id/summary", h.Bill.Summary)

		staff := bills.Group("")
		staff.Use(middleware.RequireStaff())
		staff.POST("/quote", h.Bill.Quote)
		staff.POST("", idempotent, h.Bill.Checkout)
		staff.POST("/hold", idempotent, h.Bill.Hold)
		staff.POST("/:id/pay", idempotent, h.Bill.Pay)
		staff.POST("/:id/cancel", h.Bill.Cancel)
		staff.POST("/:id/print", h.Bill.Print)
	}
}

func registerCollectionRoutes(protected *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	requests := protected.Group("/collection-requests")
	{
		requests.POST("", idempotent, h.Collection.Submit)
		requests.GET("", h.Collection.List)
		requests.GET("/:id", h.Collection.Get)
		// who may take each step is decided per state
		requests.POST("/:id/process", h.Collection.Process)
		requests.POST("/:id/cancel", h.Collection.Cancel)
		requests.POST("/:id/complete", h.Collection.Complete)
	}
}

func registerSettingsRoutes(protected *gin.RouterGroup, h *Handlers) {
	settings := protected.Group("/settings")
	settings.Use(middleware.RequireRole(enum.RoleAdmin))
	{
		settings.GET("", h.Settings.List)
		settings.GET("/:key", h.Settings.Get)
		settings.PUT("/:key", h.Settings.Update)
	}
}

func registerReportRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/dashboard", middleware.RequireStaff(), h.Report.Dashboard)

	reports := protected.Group("/reports")
	reports.Use(middleware.RequireRole(enum.RoleAdmin))
	{
		reports.GET("/:type", h.Report.Report)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printer := protected.Group("/printer")
	printer.Use(middleware.RequireStaff())
	{
		printer.GET("/status", h.Printer.GetStatus)
		printer.POST("/test", h.Printer.TestPrint)
	}
}
