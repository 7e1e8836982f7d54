package http

import (
	"context"
	"net/http"

	_ "github.com/DRSN-tech/inventory-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/inventory-backend/internal/cfg"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/DRSN-tech/inventory-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// HealthChecker проверяет доступность БД для /health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Router struct {
	router        *chi.Mux
	logger        logger.Logger
	cfg           *cfg.HTTPConfig
	registry      *metrics.Registry
	serverMetrics *metrics.ServerMetrics
}

func NewRouter(
	router *chi.Mux,
	logger logger.Logger,
	cfg *cfg.HTTPConfig,
	registry *metrics.Registry,
	serverMetrics *metrics.ServerMetrics,
) *Router {
	return &Router{
		router:        router,
		logger:        logger,
		cfg:           cfg,
		registry:      registry,
		serverMetrics: serverMetrics,
	}
}

func (r *Router) Init(saleUC usecase.SaleUC, prUC usecase.ProductUC, reportUC usecase.ReportUC, health HealthChecker, recentLimit int) {
	r.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(r.logger),
		middleware.Recoverer,
		instrument(r.serverMetrics),
	)

	r.router.Get("/health", healthHandler(health, r.logger))
	r.router.Handle("/metrics", r.registry.Handler())
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(r.cfg.SwaggerURL), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		if r.cfg.RequestTimeout > 0 {
			v1.Use(middleware.Timeout(r.cfg.RequestTimeout))
		}

		registerSaleRoutes(v1, NewSaleHandler(saleUC, reportUC, recentLimit, r.logger))
		registerProductRoutes(v1, NewProductHandler(prUC, r.logger))
		registerDashboardRoutes(v1, NewDashboardHandler(reportUC, r.logger))
	})
}

func registerSaleRoutes(router chi.Router, h *SaleHandler) {
	router.Route("/sales", func(s chi.Router) {
		s.Post("/", h.submitSale)
		s.Get("/", h.listRecentSales)
		s.Get("/summary", h.getSalesSummary)
		s.Get("/{id}", h.getSale)
		s.Get("/{id}/receipt", h.getReceipt)
	})
}

func registerProductRoutes(router chi.Router, h *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/", h.createProduct)
		pr.Get("/", h.listProducts)
		pr.Get("/{id}", h.getProduct)
	})
}

func registerDashboardRoutes(router chi.Router, h *DashboardHandler) {
	router.Get("/dashboard/summary", h.getDashboardSummary)
}

// healthHandler
//
//	@Summary	Проверка живости
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	ErrorResponse
//	@Router		/health [get]
func healthHandler(health HealthChecker, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := health.Ping(r.Context()); err != nil {
			log.Errorf(err, "health check failed")
			writeErrorStatus(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}

		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
