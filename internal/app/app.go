// Package app wires configuration, storage, services and HTTP routes into a runnable storefront.
package app

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storage"
	"storefront/internal/storefront"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options override parts of the wiring. Zero values mean "build from config".
type Options struct {
	// Publisher receives order events. Nil disables publishing.
	Publisher services.EventPublisher
	// ObjectFs backs object storage instead of cfg.StorageDir.
	ObjectFs afero.Fs
	// Carts replaces the bbolt cart file.
	Carts repositories.CartRepository
	// RequestLog enables fiber's request logger.
	RequestLog bool
}

// App is a wired storefront.
type App struct {
	Fiber    *fiber.App
	Registry *storefront.Registry
	Metrics  *metrics.Metrics
	Auth     *services.AuthService
	Products *services.ProductService
	Orders   *services.OrderService
	closers  []func() error
}

// OpenDatabase connects GORM for the configured driver. The memory driver has no database.
func OpenDatabase(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	case config.DriverMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DatabaseDriver, err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}

// storagePrefix is the path public object URLs are served under.
func storagePrefix(publicBaseURL string) string {
	u, err := url.Parse(publicBaseURL)
	if err != nil || u.Path == "" {
		return "/storage"
	}
	return strings.TrimRight(u.Path, "/")
}

// New builds the application from cfg.
func New(cfg config.Config, opts Options) (*App, error) {
	log := logging.For("app")
	a := &App{}

	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	var (
		productRepo repositories.ProductRepository
		orderRepo   repositories.OrderRepository
		userRepo    repositories.UserRepository
	)
	if db == nil {
		productRepo = repositories.NewMockProductRepository()
		orderRepo = repositories.NewMockOrderRepository()
		userRepo = repositories.NewMockUserRepository()
	} else {
		productRepo = repositories.NewGORMProductRepository(db)
		orderRepo = repositories.NewGORMOrderRepository(db)
		userRepo = repositories.NewGORMUserRepository(db)
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
	}

	carts := opts.Carts
	if carts == nil {
		if cfg.DatabaseDriver == config.DriverMemory {
			carts = repositories.NewMockCartRepository()
		} else {
			if err := afero.NewOsFs().MkdirAll(filepath.Dir(cfg.CartDBPath), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create cart directory: %w", err)
			}
			bolt, err := repositories.OpenBoltCartRepository(cfg.CartDBPath)
			if err != nil {
				return nil, errors.Join(err, a.Close())
			}
			a.closers = append(a.closers, bolt.Close)
			carts = bolt
		}
	}

	var store *storage.FSStore
	if opts.ObjectFs != nil {
		store = storage.NewFSStore(opts.ObjectFs, cfg.PublicBaseURL)
	} else {
		store, err = storage.NewDiskStore(cfg.StorageDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, errors.Join(err, a.Close())
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(reg)

	a.Auth = services.NewAuthService(userRepo, cfg.JWTSecret)
	a.Products = services.NewProductService(productRepo)
	a.Orders = services.NewOrderService(orderRepo, opts.Publisher, a.Metrics)
	checkout := services.NewCheckoutService(a.Orders, a.Products, store, cfg.CheckoutRequiresLogin, a.Metrics)
	admin := services.NewAdminService(cfg.SellerEmail, a.Orders, a.Products, store)
	a.Registry = storefront.NewRegistry(storefront.Services{
		Products: a.Products,
		Orders:   a.Orders,
		Checkout: checkout,
		Admin:    admin,
		Carts:    storefront.NewCartFactory(carts, a.Metrics),
	}, storefront.WithLimits(cfg.MaxDevices, cfg.DeviceIdleTimeout))
	metrics.WatchDevices(reg, a.Registry.Len)

	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		Immutable:             true,
		BodyLimit:             16 * 1024 * 1024,
		DisableStartupMessage: true,
	})
	if opts.RequestLog {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": cfg.DatabaseDriver,
			"events":   opts.Publisher != nil,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})))
	app.Use(storagePrefix(cfg.PublicBaseURL), filesystem.New(filesystem.Config{
		Root:   afero.NewHttpFs(store.Fs()),
		Browse: false,
	}))

	handlers.RegisterRoutes(app, handlers.Deps{
		Auth:     a.Auth,
		Orders:   a.Orders,
		Admin:    admin,
		Registry: a.Registry,
	})

	a.Fiber = app
	log.Info().Str("database", cfg.DatabaseDriver).Bool("checkout_requires_login", cfg.CheckoutRequiresLogin).Msg("storefront wired")
	return a, nil
}

// Close releases the database and cart file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
