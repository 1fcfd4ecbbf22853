package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/service"
	"github.com/utafrali/Planto/pkg/health"
	"github.com/utafrali/Planto/pkg/middleware"
)

// ServiceName labels metrics and traces.
const ServiceName = "planto"

// RouterConfig holds the transport options of the router.
type RouterConfig struct {
	CORS              middleware.CORSConfig
	PprofAllowedCIDRs []string

	// CatalogMaxAge is the Cache-Control lifetime of catalog reads.
	CatalogMaxAge time.Duration
}

// Services are the application services the router exposes.
type Services struct {
	Catalog    *service.CatalogService
	Reviews    *service.ReviewService
	Users      *service.UserService
	Storefront *service.StorefrontService
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svc Services,
	tokens middleware.TokenValidator,
	authLimiter *middleware.RateLimiter,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger, "/health", "/metrics"))
	r.Use(middleware.Tracing())
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.OptionalAuth(tokens, logger))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("API is running"))
	})

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	adminOnly := chi.Chain(middleware.Auth(tokens), middleware.RequireRole(domain.RoleAdmin))
	catalogCache := middleware.CacheControl(cfg.CatalogMaxAge)

	// Catalog
	catalogHandler := NewCatalogHandler(svc.Catalog, svc.Reviews, logger)
	r.Route("/api/plants", func(r chi.Router) {
		r.With(catalogCache).Get("/", catalogHandler.ListPlants)
		r.With(catalogCache).Get("/featured", catalogHandler.Featured)
		r.With(catalogCache).Get("/trendy", catalogHandler.Trendy)
		r.With(adminOnly...).Post("/", catalogHandler.CreatePlant)
	})
	r.Route("/api/reviews", func(r chi.Router) {
		r.With(catalogCache).Get("/", catalogHandler.ListReviews)
		r.With(catalogCache).Get("/highlight", catalogHandler.HighlightedReviews)
		r.With(adminOnly...).Post("/", catalogHandler.CreateReview)
	})

	// Auth
	authHandler := NewAuthHandler(svc.Users, logger)
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.RateLimit(authLimiter, logger))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(middleware.Auth(tokens)).Get("/me", authHandler.Me)
		r.With(middleware.Auth(tokens)).Post("/logout", authHandler.Logout)
	})

	// Storefront session state
	storefrontHandler := NewStorefrontHandler(svc.Storefront, logger)
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Get("/", storefrontHandler.GetCart)
		r.Delete("/", storefrontHandler.ClearCart)
		r.Post("/items", storefrontHandler.AddItem)
		r.Put("/items/{key}", storefrontHandler.SetQuantity)
		r.Delete("/items/{key}", storefrontHandler.RemoveItem)
		r.Post("/items/{key}/increment", storefrontHandler.Increment)
		r.Post("/items/{key}/decrement", storefrontHandler.Decrement)
	})
	r.Route("/api/favorites", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Get("/", storefrontHandler.ListFavorites)
		r.Delete("/", storefrontHandler.ClearFavorites)
		r.Post("/toggle", storefrontHandler.ToggleFavorite)
		r.Get("/{id}", storefrontHandler.IsFavorite)
		r.Delete("/{id}", storefrontHandler.RemoveFavorite)
	})
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Get("/", storefrontHandler.ListNotifications)
		r.Delete("/{id}", storefrontHandler.DismissNotification)
	})

	return r
}
