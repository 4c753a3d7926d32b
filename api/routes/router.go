package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/orderdesk-backend/api/controllers"
	"github.com/angelmondragon/orderdesk-backend/api/middleware"
	"github.com/angelmondragon/orderdesk-backend/internal/address"
	"github.com/angelmondragon/orderdesk-backend/internal/orders"
	"github.com/angelmondragon/orderdesk-backend/internal/products"
	"github.com/angelmondragon/orderdesk-backend/internal/users"
	"github.com/angelmondragon/orderdesk-backend/pkg/config"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	"github.com/angelmondragon/orderdesk-backend/pkg/redis"
)

// Dependencies lists everything the router hands to controllers and
// middleware. Redis and Metrics are optional.
type Dependencies struct {
	Config  *config.Config
	Logger  *logger.Logger
	Health  map[string]controllers.Pinger
	Redis   *redis.Client
	Metrics http.Handler

	Users     users.Service
	Addresses address.Service
	Products  products.Service
	Orders    orders.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	}
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, deps.Health))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	idempotency := passthrough
	orderLimit := passthrough
	if deps.Redis != nil {
		idempotency = middleware.Idempotency(deps.Redis, logg)
		orderLimit = middleware.RateLimit(middleware.NewRateLimitPolicy(
			"orders",
			cfg.RateLimit.OrdersWindow,
			cfg.RateLimit.OrdersIPLimit,
			cfg.RateLimit.OrdersUserLimit,
		), deps.Redis, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(idempotency)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(deps.Users, logg))
			r.Post("/", controllers.CreateUser(deps.Users, logg))
			r.Route("/{userId}", func(r chi.Router) {
				r.Get("/", controllers.GetUser(deps.Users, logg))
				r.Patch("/", controllers.UpdateUser(deps.Users, logg))
				r.Delete("/", controllers.DeleteUser(deps.Users, logg))
				r.Get("/addresses", controllers.ListUserAddresses(deps.Addresses, logg))
			})
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(deps.Addresses, logg))
			r.Post("/", controllers.CreateAddress(deps.Addresses, logg))
			r.Route("/{addressId}", func(r chi.Router) {
				r.Get("/", controllers.GetAddress(deps.Addresses, logg))
				r.Patch("/", controllers.UpdateAddress(deps.Addresses, logg))
				r.Delete("/", controllers.DeleteAddress(deps.Addresses, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Get("/low-stock", controllers.ListLowStockProducts(deps.Products, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.GetProduct(deps.Products, logg))
				r.Patch("/", controllers.UpdateProduct(deps.Products, logg))
				r.Delete("/", controllers.DeleteProduct(deps.Products, logg))
				r.Post("/stock", controllers.AdjustProductStock(deps.Products, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.With(orderLimit).Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(deps.Orders, logg))
				r.Patch("/", controllers.UpdateOrder(deps.Orders, logg))
				r.Delete("/", controllers.DeleteOrder(deps.Orders, logg))
			})
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }
