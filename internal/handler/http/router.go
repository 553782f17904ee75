package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tillhouse/pos/internal/auth"
	"github.com/tillhouse/pos/pkg/health"
	"github.com/tillhouse/pos/pkg/middleware"
)

// RouterConfig bundles the handlers and cross-cutting dependencies the
// router needs.
type RouterConfig struct {
	AuthHandler     *AuthHandler
	ProductHandler  *ProductHandler
	OrderHandler    *OrderHandler
	CartHandler     *CartHandler
	SettingsHandler *SettingsHandler
	SyncHandler     *SyncHandler
	HealthHandler   *health.Handler

	JWTManager *auth.JWTManager
	Logger     *slog.Logger

	Environment        string
	CORSOrigins        []string
	SyncAPIKey         string
	AuthRateLimitRPS   int
	AuthRateLimitBurst int
}

// NewRouter builds the chi router with the full middleware chain and all
// API routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORSOrigins
	corsConfig.Environment = cfg.Environment

	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing("pos-api"))
	r.Use(middleware.PrometheusMetrics("pos-api"))

	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	authMiddleware := middleware.Auth(tokenValidator(cfg.JWTManager))
	requestLogger := middleware.RequestLogger(cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints, rate limited per IP.
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, cfg.Logger))
				r.Use(ContentTypeJSON)
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
				r.Post("/refresh", cfg.AuthHandler.Refresh)
			})

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware, requestLogger)
				r.Get("/me", cfg.AuthHandler.Me)
				r.Get("/profile", cfg.AuthHandler.Me)
			})
		})

		// Shop-scoped resources. ShopAccess rejects tokens granted for a
		// different shop than the one in the URL.
		r.Route("/shops/{shopID}", func(r chi.Router) {
			r.Use(authMiddleware, ShopAccess, requestLogger, ContentTypeJSON)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", cfg.ProductHandler.List)
				r.Post("/", cfg.ProductHandler.Create)
				r.Get("/{productID}", cfg.ProductHandler.Get)
				r.Put("/{productID}", cfg.ProductHandler.Update)
				r.Delete("/{productID}", cfg.ProductHandler.Delete)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", cfg.OrderHandler.List)
				r.Post("/", cfg.OrderHandler.Create)
				r.Get("/{orderID}", cfg.OrderHandler.Get)
				r.Patch("/{orderID}", cfg.OrderHandler.Patch)
				r.Put("/{orderID}", cfg.OrderHandler.Patch)
				r.Delete("/{orderID}", cfg.OrderHandler.Delete)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", cfg.SettingsHandler.List)
				r.Put("/", cfg.SettingsHandler.UpdateBatch)
				r.Delete("/", cfg.SettingsHandler.Reset)
				r.Get("/export", cfg.SettingsHandler.Export)
				r.Post("/import", cfg.SettingsHandler.Import)
				r.Get("/{key}", cfg.SettingsHandler.Get)
				r.Put("/{key}", cfg.SettingsHandler.Update)
				r.Delete("/{key}", cfg.SettingsHandler.Delete)
			})

			r.Route("/staff", func(r chi.Router) {
				r.Get("/", cfg.AuthHandler.ListStaff)
				r.With(middleware.RequireRole("owner", "manager")).Post("/", cfg.AuthHandler.CreateStaff)
			})
		})

		// Cart is scoped by the token, not the URL.
		r.Route("/cart", func(r chi.Router) {
			r.Use(authMiddleware, requestLogger, ContentTypeJSON)
			r.Get("/", cfg.CartHandler.Get)
			r.Delete("/", cfg.CartHandler.Clear)
			r.Post("/items", cfg.CartHandler.AddItem)
			r.Put("/items/{productID}", cfg.CartHandler.SetItem)
			r.Delete("/items/{productID}", cfg.CartHandler.RemoveItem)
		})

		// Machine-to-machine sync endpoint guarded by a static API key.
		r.Route("/sync", func(r chi.Router) {
			r.Use(middleware.APIKey(cfg.SyncAPIKey))
			r.Get("/health", cfg.SyncHandler.Health)
		})
	})

	return r
}

// tokenValidator bridges the JWT manager to the auth middleware's claims.
func tokenValidator(m *auth.JWTManager) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := m.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
			ShopID: claims.ShopID,
		}, nil
	}
}
