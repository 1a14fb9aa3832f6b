package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oakmart/storefront-backend/api/controllers"
	"github.com/oakmart/storefront-backend/api/routes"
	"github.com/oakmart/storefront-backend/internal/address"
	"github.com/oakmart/storefront-backend/internal/auth"
	"github.com/oakmart/storefront-backend/internal/cart"
	"github.com/oakmart/storefront-backend/internal/mailer"
	"github.com/oakmart/storefront-backend/internal/notifications"
	"github.com/oakmart/storefront-backend/internal/orders"
	"github.com/oakmart/storefront-backend/internal/paymentmethods"
	"github.com/oakmart/storefront-backend/internal/products"
	"github.com/oakmart/storefront-backend/internal/reviews"
	"github.com/oakmart/storefront-backend/internal/uploads"
	"github.com/oakmart/storefront-backend/internal/users"
	"github.com/oakmart/storefront-backend/pkg/config"
	"github.com/oakmart/storefront-backend/pkg/db"
	"github.com/oakmart/storefront-backend/pkg/logger"
	"github.com/oakmart/storefront-backend/pkg/mail"
	"github.com/oakmart/storefront-backend/pkg/metrics"
	"github.com/oakmart/storefront-backend/pkg/migrate"
	"github.com/oakmart/storefront-backend/pkg/redis"
	"github.com/oakmart/storefront-backend/pkg/storage/gcs"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	usersRepo := users.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	paymentMethodsRepo := paymentmethods.NewRepository(gormDB)
	reviewsRepo := reviews.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	authParams := auth.ServiceParams{
		UserRepo:       usersRepo,
		Logger:         logg,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	}
	ordersParams := orders.ServiceParams{
		Tx:           dbClient,
		Repo:         ordersRepo,
		ProductsRepo: productsRepo,
		CartRepo:     cartRepo,
		Notifier:     notificationsService,
		Logger:       logg,
		Metrics:      metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
	}

	// Transactional email is optional; without provider credentials the API
	// runs and simply skips sends.
	if mailClient, err := mail.NewClient(cfg.Mail); err != nil {
		logg.Warn(logg.WithField(context.Background(), "reason", err.Error()), "mail disabled")
	} else {
		m, err := mailer.New(mailClient, cfg.Mail)
		if err != nil {
			logg.Error(context.Background(), "failed to create mailer", err)
			os.Exit(1)
		}
		authParams.Mailer = m
		ordersParams.Mailer = m
	}

	authService, err := auth.NewService(authParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(ordersParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	addressService, err := address.NewService(dbClient, addressRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}
	paymentMethodsService, err := paymentmethods.NewService(dbClient, paymentMethodsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment methods service", err)
		os.Exit(1)
	}
	reviewsService, err := reviews.NewService(reviewsRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	// Uploads need object storage; without a bucket the endpoint reports the
	// service unavailable.
	var uploadsService uploads.Service
	if cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		uploadsService, err = uploads.NewService(gcsClient, gcsClient.DefaultBucket(), cfg.GCS.UploadURLExpiry, cfg.Uploads.MaxUploadMB)
		if err != nil {
			logg.Error(context.Background(), "failed to create uploads service", err)
			os.Exit(1)
		}
		readiness["gcs"] = gcsClient
	}

	router := routes.NewRouter(cfg, logg, routes.Services{
		Auth:           authService,
		Users:          usersService,
		Products:       productsService,
		Cart:           cartService,
		Orders:         ordersService,
		Addresses:      addressService,
		PaymentMethods: paymentMethodsService,
		Reviews:        reviewsService,
		Notifications:  notificationsService,
		Uploads:        uploadsService,
	}, routes.Deps{
		Readiness:   readiness,
		RedisClient: redisClient,
		HTTPMetrics: metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
	})

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
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
