package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/sangkips/bookshop-pos/internal/application/service"
	"github.com/sangkips/bookshop-pos/internal/config"
	"github.com/sangkips/bookshop-pos/internal/domain/billing"
	"github.com/sangkips/bookshop-pos/internal/domain/order"
	domainRepo "github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/internal/infrastructure/cache"
	"github.com/sangkips/bookshop-pos/internal/infrastructure/database"
	"github.com/sangkips/bookshop-pos/internal/infrastructure/repository"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/handler"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/middleware"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/routes"
	"github.com/sangkips/bookshop-pos/pkg/email"
	"github.com/sangkips/bookshop-pos/pkg/printer"
	"github.com/sangkips/bookshop-pos/pkg/utils"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	app := &cli.App{
		Name:  "bookshop-pos",
		Usage: "bookshop point of sale and billing API",
		Before: func(*cli.Context) error {
			config.ConfigureLogging(config.Load().App)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Value: true, Usage: "run migrations and seed defaults before serving"},
				},
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
			{
				Name:   "seed",
				Usage:  "insert default settings and the first administrator",
				Action: seed,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "samples", Usage: "also insert a few sample books"},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("bookshop-pos failed")
	}
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(&cfg.Database, cfg.App.Debug && !cfg.App.IsProduction())
}

func migrate(*cli.Context) error {
	cfg := config.Load()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return database.AutoMigrate(db)
}

func seed(c *cli.Context) error {
	cfg := config.Load()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return database.Seed(c.Context, db, cfg.Admin, c.Bool("samples"))
}

func serve(c *cli.Context) error {
	cfg := config.Load()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if c.Bool("migrate") {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		if err := database.Seed(c.Context, db, cfg.Admin, false); err != nil {
			log.WithError(err).Warn("failed to seed default data")
		}
	}

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)
	billRepo := repository.NewBillRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	snapshotCache := newSnapshotCache(c.Context, cfg)
	if closer, ok := snapshotCache.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	smtpPort, err := strconv.Atoi(cfg.SMTP.Port)
	if err != nil {
		log.WithError(err).Warnf("invalid SMTP_PORT %q, using 587", cfg.SMTP.Port)
		smtpPort = 587
	}
	mailer := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.SMTP.Host,
		SMTPPort:     smtpPort,
		SMTPUsername: cfg.SMTP.Username,
		SMTPPassword: cfg.SMTP.Password,
		FromName:     cfg.SMTP.FromName,
		FromEmail:    cfg.SMTP.From,
		ShopName:     cfg.App.Name,
	})

	thermalPrinter, err := printer.NewPrinterFromConfig(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		log.WithError(err).Warn("failed to initialize printer, receipts will not be printed")
		thermalPrinter = printer.NewNullPrinter()
	}
	defer thermalPrinter.Close()

	// Services
	settingsService := service.NewSettingsService(settingsRepo, snapshotCache, cfg.Billing.ConfigCacheTTL)
	observers := order.NewManager(
		service.NewEmailObserver(mailer, userRepo, billRepo).WithAdminCopy(cfg.Billing.NotifyAdminEmail),
		service.NewInventoryObserver(billRepo, bookRepo, settingsService).WithRestockDefault(cfg.Billing.AutoRestock),
		service.NewAuditObserver(log.StandardLogger()),
	)
	numbers := billing.NewSequence(cfg.Billing.BillPrefix)

	authService := service.NewAuthService(userRepo, jwtManager)
	userService := service.NewUserService(userRepo)
	customerService := service.NewCustomerService(userRepo, billRepo, settingsService)
	bookService := service.NewBookService(bookRepo, settingsService)
	billingService := service.NewBillingService(billRepo, bookRepo, userRepo, settingsService, numbers, observers, service.BillingOptions{
		DefaultPolicy: cfg.Billing.DefaultPolicy,
	})
	collectionService := service.NewCollectionService(billRepo, bookRepo, userRepo, settingsService, numbers, observers, cfg.Billing.DefaultPolicy)
	reportService := service.NewReportService(reportRepo, billRepo, bookRepo, settingsService)
	printerService := service.NewPrinterService(thermalPrinter, billRepo, settingsService, cfg.Printer.Width)

	handlers := &routes.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		User:       handler.NewUserHandler(userService),
		Customer:   handler.NewCustomerHandler(customerService),
		Book:       handler.NewBookHandler(bookService),
		Bill:       handler.NewBillHandler(billingService, printerService),
		Collection: handler.NewCollectionHandler(collectionService),
		Settings:   handler.NewSettingsHandler(settingsService),
		Report:     handler.NewReportHandler(reportService),
		Printer:    handler.NewPrinterHandler(printerService),
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: perSecond(cfg.RateLimit),
		BurstSize:         cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
	defer rateLimiter.Stop()

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
	})

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go purgeIdempotencyKeys(ctx, idempotencyRepo, time.Hour)

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"port": port, "env": cfg.App.Env}).Infof("starting %s", cfg.App.Name)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	log.Info("server stopped")
	return nil
}

// newSnapshotCache uses Redis when REDIS_ADDR is set and reachable,
// otherwise an in-process cache.
func newSnapshotCache(ctx context.Context, cfg *config.Config) cache.SnapshotCache {
	if cfg.Redis.Addr == "" {
		log.Info("settings cache: memory")
		return cache.NewMemorySnapshotCache()
	}
	redisCache := cache.NewRedisSnapshotCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("redis unavailable, settings cache: memory")
		_ = redisCache.Close()
		return cache.NewMemorySnapshotCache()
	}
	log.Info("settings cache: redis")
	return redisCache
}

func perSecond(cfg config.RateLimitConfig) float64 {
	if cfg.Requests <= 0 || cfg.Duration <= 0 {
		return 0
	}
	return float64(cfg.Requests) / float64(cfg.Duration)
}

func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("failed to purge idempotency keys")
				continue
			}
			if n > 0 {
				log.WithField("deleted", n).Debug("purged expired idempotency keys")
			}
		}
	}
}
