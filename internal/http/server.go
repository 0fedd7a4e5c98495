package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"crediflow/internal/advisor"
	"crediflow/internal/core"
	applog "crediflow/internal/log"
	"crediflow/internal/metrics"
	"crediflow/internal/middleware/ratelimit"
	"crediflow/internal/services"
)

// InsightsProvider answers the insights endpoint. advisor.Service
// implements it.
type InsightsProvider interface {
	Insights(ctx context.Context, cards []core.Card, purchases []core.Purchase) advisor.Insights
}

// Config tunes the API server.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	svc      *services.Services
	insights InsightsProvider
	limiter  *ratelimit.Limiter
	security *securityMetrics
	logger   *applog.Logger

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. A nil insights provider answers with the no-API-key fallback.
func NewServer(cfg Config, svc *services.Services, insights InsightsProvider) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if insights == nil {
		insights = advisor.NewService(nil, advisor.Config{})
	}

	s := &Server{
		svc:       svc,
		insights:  insights,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		security:  &securityMetrics{},
		logger:    logger.WithComponent(applog.ComponentHTTP),
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("POST /api/cards", s.handleCreateCard)
	mux.HandleFunc("GET /api/cards/{id}", s.handleGetCard)
	mux.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard)
	mux.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard)

	mux.HandleFunc("GET /api/purchases", s.handleListPurchases)
	mux.HandleFunc("POST /api/purchases", s.handleCreatePurchase)
	mux.HandleFunc("DELETE /api/purchases/{id}", s.handleDeletePurchase)

	mux.HandleFunc("GET /api/invoices", s.handleInvoice)
	mux.HandleFunc("GET /api/invoices/export", s.handleInvoiceExport)
	mux.HandleFunc("GET /api/reports/yearly", s.handleYearlyReport)
	mux.HandleFunc("GET /api/reports/yearly/export", s.handleYearlyReportExport)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/insights", s.handleInsights)
	mux.HandleFunc("DELETE /api/data", s.handleReset)

	var handler http.Handler = mux
	handler = s.withSecurityHeaders(handler)
	handler = s.limiter.Middleware(extractClientIP, ratelimit.WritesOnly, s.onRateLimit)(handler)
	handler = withRequestMetrics(handler)
	handler = applog.AccessLogMiddleware(extractClientIP)(handler)
	handler = applog.RequestIDMiddleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.security.rateLimitHits.Add(1)
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, extractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func withRequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		metrics.IncHTTPRequest(r.Method, rw.statusCode)
	})
}
