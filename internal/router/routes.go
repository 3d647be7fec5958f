package router

import (
	"log"

	"github.com/biyonik/pgquery/internal/config"
	"github.com/biyonik/pgquery/internal/controllers"
	"github.com/biyonik/pgquery/internal/middleware"
	"github.com/biyonik/pgquery/pkg/auth"
	"github.com/biyonik/pgquery/pkg/database"
)

// Dependencies, gateway route'larının ihtiyaç duyduğu servislerdir.
type Dependencies struct {
	Config *config.Config
	Client *database.Client
	Logger *log.Logger

	// Health, /health endpoint'inde çalıştırılacak kontroller.
	Health map[string]controllers.HealthCheck

	// RateLimiter nil ise ve rate limit açıksa config'ten oluşturulur.
	RateLimiter *middleware.RateLimiter
}

// Setup, gateway'in tüm route'larını ve middleware zincirini kurar.
//
// Global zincir (dıştan içe):
//
//	PanicRecovery → Logging → CORS
//
// /rest/v1 grubu:
//
//	Auth (token opsiyonel, anon okuyabilir)
//	RateLimit (token subject'i, yoksa IP başına)
//	POST / PATCH → service_role (AUTH_ANON_WRITES=true değilse)
func Setup(deps Dependencies) *Router {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := New()
	r.Use(middleware.PanicRecovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins...))

	health := controllers.NewHealthController(deps.Health)
	r.GET("/health", health.Show)

	tables := controllers.NewTableController(deps.Client)
	rest := r.Group("/rest/v1")

	if cfg.Auth.Enabled {
		rest.Use(middleware.Auth(&auth.JWTConfig{
			Secret:         cfg.JWT.Secret,
			Issuer:         cfg.App.Name,
			ExpirationTime: cfg.JWT.Expiration,
		}, false))
	}

	// Limiter Auth'tan sonra çalışır; doğrulanmış istekler subject'e göre sayılır.
	if cfg.RateLimit.Enabled {
		limiter := deps.RateLimiter
		if limiter == nil {
			limiter = middleware.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSeconds)
		}
		rest.Use(middleware.RateLimitWith(limiter))
	}

	rest.GET("/{table}", tables.List)
	create := rest.POST("/{table}", tables.Create)
	update := rest.PATCH("/{table}", tables.Update)

	if cfg.Auth.Enabled && !cfg.Auth.AnonWrites {
		create.Middleware(middleware.ServiceRole())
		update.Middleware(middleware.ServiceRole())
	}

	logger.Printf("✅ Route'lar yüklendi (auth: %v, rate limit: %v)", cfg.Auth.Enabled, cfg.RateLimit.Enabled)
	return r
}
