package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/events"
	"github.com/wichananm65/storefront-backend/internal/httpx"
	"github.com/wichananm65/storefront-backend/internal/logger"
	"github.com/wichananm65/storefront-backend/internal/metrics"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()
	publisher := newPublisher(cfg, log)
	defer publisher.Close()

	productService := product.NewService(st.products, log)
	if cfg.SeedCatalog {
		if err := seedCatalog(ctx, productService); err != nil {
			return err
		}
	}
	tokens := user.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	userHandler := user.NewHandler(user.NewService(st.users, log), tokens)
	productHandler := product.NewHandler(productService)
	cartService := cart.NewService(st.carts, productService, log, m)
	cartHandler := cart.NewHandler(cartService)
	orderHandler := order.NewHandler(order.NewService(st.orders, st.products, cartService, publisher, m, log))

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		ErrorHandler: httpx.ErrorHandler,
	})
	app.Use(recover.New())
	setupCORS(app, cfg.HTTP.CORSOrigins)
	app.Use(logger.Middleware(log))
	app.Use(httpx.Diagnostics(!cfg.IsProduction()))

	app.Get("/health", func(c *fiber.Ctx) error {
		return httpx.OK(c, fiber.StatusOK, "Server is running", fiber.Map{
			"environment": cfg.Env,
			"storage":     cfg.Storage,
			"timestamp":   time.Now().UTC(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api")
	api.Use("/auth", limiter.New(limiter.Config{
		Max:        cfg.Auth.Max,
		Expiration: cfg.Auth.Window,
		LimitReached: func(c *fiber.Ctx) error {
			return httpx.FailStatus(c, fiber.StatusTooManyRequests, "Too many authentication attempts, please try again later.")
		},
	}))

	userHandler.RegisterPublicRoutes(api)
	productHandler.RegisterPublicRoutes(api)

	api.Use(tokens.Middleware())

	adminOnly := user.RequireRole(user.RoleAdmin)
	userHandler.RegisterProtectedRoutes(api)
	productHandler.RegisterProtectedRoutes(api, adminOnly)
	cartHandler.RegisterProtectedRoutes(api)
	orderHandler.RegisterProtectedRoutes(api, adminOnly)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.HTTP.Addr), zap.String("env", cfg.Env))
		errCh <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func newPublisher(cfg config.Config, log *zap.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewLogPublisher(log)
	}
	log.Info("publishing order events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

// seedCatalog loads the sample products into an empty catalog.
func seedCatalog(ctx context.Context, products *product.Service) error {
	existing, err := products.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return products.Seed(ctx, product.DefaultCatalog())
}
