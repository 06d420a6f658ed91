package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oscodesolution-devops/gift-ginnie-server/api/controllers"
	"github.com/oscodesolution-devops/gift-ginnie-server/api/middleware"
	addresssvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/address"
	cartsvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/cart"
	checkoutsvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/checkout"
	couponsvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/coupons"
	paymentsvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/payments"
	productsvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/products"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/config"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/logger"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/razorpay"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Gateway  razorpay.Gateway
	Registry *prometheus.Registry

	Products productsvc.Service
	Carts    cartsvc.Service
	Coupons  couponsvc.Service
	Address  addresssvc.Service
	Checkout checkoutsvc.Service
	Payments paymentsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger(deps.Redis)))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/coupons/{code}", controllers.CouponDetail(deps.Coupons, logg))
		r.Post("/payments/webhook", controllers.PaymentWebhook(deps.Payments, deps.Gateway, webhookEventStore(deps.Redis), cfg.Razorpay, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Carts, logg))
				r.Post("/items", controllers.CartAddItem(deps.Carts, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.Carts, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Carts, logg))
				r.Post("/applyCoupon", controllers.CouponApply(deps.Coupons, logg))
				r.Delete("/applyCoupon", controllers.CouponRemove(deps.Coupons, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(deps.Checkout, logg))
				r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
				r.Post("/verifyPayment", controllers.VerifyPayment(deps.Payments, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.Checkout, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.Address, logg))
				r.Post("/", controllers.AddressCreate(deps.Address, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(deps.Address, logg))
			})
		})
	})

	return r
}

// webhookEventStore narrows the redis client to the dedupe surface; a nil
// client stays nil so the webhook controller skips dedupe instead of
// dereferencing a typed nil.
func webhookEventStore(client *redis.Client) redis.EventStore {
	if client == nil {
		return nil
	}
	return client
}

func redisPinger(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
