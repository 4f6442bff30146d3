package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/wichananm65/storefront-backend/internal/address"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/category"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/database"
	"github.com/wichananm65/storefront-backend/internal/logging"
	"github.com/wichananm65/storefront-backend/internal/metrics"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/user"
	"github.com/wichananm65/storefront-backend/internal/wishlist"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log, err := logging.New("storefront", cfg.LogLevel, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("build logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Entry) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	pool, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	db := database.SQLDB(pool)
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg)
	orderMetrics := metrics.NewOrderMetrics(reg)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	setupCORS(app, cfg.CORSAllowOrigins)
	app.Use(logging.Middleware(log, user.UserIDString))
	app.Use(serverMetrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler(reg))

	userService := user.NewService(user.NewPostgresRepository(db))
	userHandler := user.NewHandler(userService, user.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL))

	productRepo := product.NewPostgresRepository(pool)
	productService := product.NewService(productRepo)
	productHandler := product.NewHandler(productService)
	categoryHandler := category.NewHandler(category.NewService(category.NewPostgresRepository(db), productService))

	addressService := address.NewService(address.NewPostgresRepository(db))
	addressHandler := address.NewHandler(addressService)

	cartHandler := cart.NewHandler(cart.NewService(cart.NewPostgresRepository(db), productService))
	wishlistHandler := wishlist.NewHandler(wishlist.NewService(wishlist.NewPostgresRepository(db), productService))

	opts := []order.Option{
		order.WithLogger(log),
		order.WithRecorder(orderMetrics),
	}
	if cfg.Order.StrictTransitions {
		opts = append(opts, order.WithTransitionPolicy(order.Lifecycle))
	}
	orderService := order.NewService(order.NewPostgresRepository(pool), addressService, productService, pricing(cfg.Order), opts...)
	orderHandler := order.NewHandler(orderService)

	userHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)

	app.Use(user.Protected(cfg.JWTSecret))

	userHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	categoryHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	wishlistHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		errc <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func pricing(oc config.OrderConfig) order.Pricing {
	return order.Pricing{
		Currency:              oc.Currency,
		TaxRate:               oc.TaxRate,
		FreeShippingThreshold: oc.FreeShippingThreshold,
		StandardFee:           oc.StandardFee,
		ExpressFee:            oc.ExpressFee,
		SameDayFee:            oc.SameDayFee,
	}
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}
