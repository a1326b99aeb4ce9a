package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/athebyme/gomarket-storefront/internal/api/handlers"
	"github.com/athebyme/gomarket-storefront/internal/api/middleware"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"

	_ "github.com/athebyme/gomarket-storefront/docs"
)

// RouterConfig параметры HTTP-слоя
type RouterConfig struct {
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	RateLimit          float64 // запросов в секунду с одного IP, 0 отключает ограничение
	RateBurst          int
	SessionTTL         time.Duration
	MetricsEnabled     bool
	MetricsEndpoint    string
}

// SetupRouter настраивает маршрутизатор
func SetupRouter(
	catalogService services.CatalogServiceInterface,
	logger interfaces.LoggerPort,
	cfg RouterConfig,
) *chi.Mux {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Method(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	r.Method(http.MethodHead, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if cfg.MetricsEnabled {
		endpoint := cfg.MetricsEndpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.Method(http.MethodGet, endpoint, promhttp.Handler())
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimiter(cfg.RateLimit, cfg.RateBurst, 10*time.Minute))

		catalogHandler := handlers.NewCatalogHandler(catalogService, logger)

		r.Route("/catalog", func(r chi.Router) {
			// Один запрос страницы, без состояния
			r.Get("/products", catalogHandler.ListProducts)

			// Просмотр и сохраненные фильтры привязаны к сессии
			r.Group(func(r chi.Router) {
				r.Use(middleware.Session(cfg.SessionTTL))

				r.Get("/view", catalogHandler.GetView)
				r.Post("/view/more", catalogHandler.LoadMore)
				r.Get("/filters", catalogHandler.GetFilters)
				r.Delete("/filters", catalogHandler.DeleteFilters)
			})
		})
	})

	return r
}
