package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oscodesolution-devops/gift-ginnie-server/api/routes"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/address"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/cart"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/checkout"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/coupons"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/orders"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/payments"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/products"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/config"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/logger"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/metrics"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/migrate"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/razorpay"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap razorpay client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	pipeline := metrics.NewPipelineMetrics(registry)

	productsRepo := products.NewRepository(dbClient.DB())
	cartsRepo := cart.NewRepository(dbClient.DB())
	couponsRepo := coupons.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	productService, err := products.NewService(productsRepo)
	exitOnWireError(logg, "product service", err)

	cartService, err := cart.NewService(cartsRepo, dbClient, productsRepo)
	exitOnWireError(logg, "cart service", err)

	couponService, err := coupons.NewService(couponsRepo, cartsRepo, dbClient)
	exitOnWireError(logg, "coupon service", err)

	addressService, err := address.NewService(dbClient.DB())
	exitOnWireError(logg, "address service", err)

	checkoutService, err := checkout.NewService(dbClient, cartsRepo, ordersRepo, productsRepo, addressService, gateway, pipeline)
	exitOnWireError(logg, "checkout service", err)

	paymentService, err := payments.NewService(dbClient, ordersRepo, productsRepo, gateway, logg, pipeline)
	exitOnWireError(logg, "payment service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Gateway:  gateway,
			Registry: registry,
			Products: productService,
			Carts:    cartService,
			Coupons:  couponService,
			Address:  addressService,
			Checkout: checkoutService,
			Payments: paymentService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func exitOnWireError(logg *logger.Logger, component string, err error) {
	if err != nil {
		ctx := logg.WithField(context.Background(), "component", component)
		logg.Error(ctx, "failed to wire component", err)
		os.Exit(1)
	}
}
