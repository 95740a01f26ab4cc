package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// Routes holds the handlers mounted outside the JSON API
type Routes struct {
	Metrics   http.Handler
	WebSocket http.Handler
}

// NewRouter builds the HTTP surface: /health, /metrics, /ws and the /api/v1 tree
func NewRouter(h *Handler, routes Routes, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(chimiddleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)
	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics)
	}
	if routes.WebSocket != nil {
		r.Handle("/ws", routes.WebSocket)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Timeout stays off /ws so long-lived subscriptions are not cut
		r.Use(chimiddleware.Timeout(30 * time.Second))

		r.Get("/bankroll", h.GetBankroll)
		r.Get("/bets", h.GetBets)
		r.Get("/report", h.GetReport)
		r.Get("/signals", h.GetSignals)

		r.Route("/strategies", func(r chi.Router) {
			r.Get("/", h.CompareStrategies)
			r.Get("/{strategy}", h.SimulateStrategy)
		})
	})

	return r
}

// RequestLogger logs one line per request with the chi request id
func RequestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"request_id": chimiddleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}).Debug("http request")
		})
	}
}
