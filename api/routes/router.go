package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakmart/storefront-backend/api/controllers"
	"github.com/oakmart/storefront-backend/api/middleware"
	"github.com/oakmart/storefront-backend/internal/address"
	"github.com/oakmart/storefront-backend/internal/auth"
	"github.com/oakmart/storefront-backend/internal/cart"
	"github.com/oakmart/storefront-backend/internal/notifications"
	"github.com/oakmart/storefront-backend/internal/orders"
	"github.com/oakmart/storefront-backend/internal/paymentmethods"
	"github.com/oakmart/storefront-backend/internal/products"
	"github.com/oakmart/storefront-backend/internal/reviews"
	"github.com/oakmart/storefront-backend/internal/uploads"
	"github.com/oakmart/storefront-backend/internal/users"
	"github.com/oakmart/storefront-backend/pkg/config"
	"github.com/oakmart/storefront-backend/pkg/logger"
	"github.com/oakmart/storefront-backend/pkg/metrics"
	"github.com/oakmart/storefront-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth           auth.Service
	Users          users.Service
	Products       products.Service
	Cart           cart.Service
	Orders         orders.Service
	Addresses      address.Service
	PaymentMethods paymentmethods.Service
	Reviews        reviews.Service
	Notifications  notifications.Service
	Uploads        uploads.Service
}

// Deps carries the infrastructure handles the router needs besides services.
type Deps struct {
	Readiness   map[string]controllers.Pinger
	RedisClient *redis.Client
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svcs Services, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	resetPolicy := middleware.NewAuthRateLimitPolicy(
		"reset",
		cfg.AuthRateLimit.ResetWindow,
		cfg.AuthRateLimit.ResetIPLimit,
		cfg.AuthRateLimit.ResetEmailLimit,
	)

	secureCookies := cfg.App.IsProd()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RedisClient, logg)).
			Post("/register", controllers.AuthRegister(svcs.Auth, cfg.JWT, secureCookies, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RedisClient, logg)).
			Post("/login", controllers.AuthLogin(svcs.Auth, cfg.JWT, secureCookies, logg))
		r.With(middleware.AuthRateLimit(resetPolicy, deps.RedisClient, logg)).
			Post("/forgot-password", controllers.AuthForgotPassword(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(resetPolicy, deps.RedisClient, logg)).
			Post("/reset-password", controllers.AuthResetPassword(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(cfg.JWT, secureCookies))
	})

	// Public catalog surface.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(svcs.Products, logg))
		r.Get("/{productId}", controllers.ProductDetail(svcs.Products, logg))
		r.Get("/{productId}/reviews", controllers.ReviewList(svcs.Reviews, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).
			Post("/{productId}/reviews", controllers.ReviewCreate(svcs.Reviews, logg))
	})

	// Guest checkout stays open; a present session attaches the order to it.
	r.With(middleware.OptionalAuth(cfg.JWT, logg)).
		Post("/api/v1/orders", controllers.OrderPlace(svcs.Orders, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.UserProfile(svcs.Users, logg))
			r.Patch("/", controllers.UserUpdateProfile(svcs.Users, logg))
			r.Post("/password", controllers.UserChangePassword(svcs.Users, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderListMine(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(svcs.Addresses, logg))
			r.Post("/", controllers.AddressCreate(svcs.Addresses, logg))
			r.Patch("/{addressId}", controllers.AddressUpdate(svcs.Addresses, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(svcs.Addresses, logg))
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", controllers.PaymentMethodList(svcs.PaymentMethods, logg))
			r.Post("/", controllers.PaymentMethodCreate(svcs.PaymentMethods, logg))
			r.Post("/{methodId}/default", controllers.PaymentMethodSetDefault(svcs.PaymentMethods, logg))
			r.Delete("/{methodId}", controllers.PaymentMethodDelete(svcs.PaymentMethods, logg))
		})

		r.Delete("/reviews/{reviewId}", controllers.ReviewDelete(svcs.Reviews, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(svcs.Notifications, logg))
			r.Delete("/{notificationId}", controllers.NotificationDelete(svcs.Notifications, logg))
		})

		r.Post("/uploads/presign", controllers.UploadPresign(svcs.Uploads, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminProductCreate(svcs.Products, logg))
				r.Patch("/{productId}", controllers.AdminProductUpdate(svcs.Products, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(svcs.Products, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(svcs.Orders, logg))
				r.Post("/{orderId}/deliver", controllers.AdminOrderMarkDelivered(svcs.Orders, logg))
			})
			r.Get("/users", controllers.AdminUserList(svcs.Users, logg))
		})
	})

	return r
}
