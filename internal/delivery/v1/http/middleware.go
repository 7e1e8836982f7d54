package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/DRSN-tech/inventory-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// instrument считает запросы и задержку по шаблону маршрута, а не по сырому пути,
// чтобы /sales/1 и /sales/2 не плодили отдельные серии.
func instrument(m *metrics.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(route, r.Method).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Debugf("%s %s %d %s request_id=%s",
				r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
		})
	}
}
