package http

import (
	"context"
	"net/http"
	"time"

	applog "crediflow/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.svc.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldError, err)
		checks["storage"] = "failed"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["rate_limiter"] = s.limiter.GetMetrics()
	checks["security"] = map[string]int64{
		"rate_limit_hits":     s.security.rateLimitHits.Load(),
		"suspicious_requests": s.security.suspiciousRequests.Load(),
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleInsights answers with spending advice for the whole ledger. It
// always succeeds once the ledger loads; model failures surface as a
// fallback text.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err, applog.ComponentInsights, applog.OpRead)
		return
	}
	NewResponse().JSON(s.insights.Insights(r.Context(), snap.Cards, snap.Purchases)).Write(w)
}

// handleReset deletes every card and purchase.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ledger.Reset(r.Context()); err != nil {
		writeError(w, r, err, applog.ComponentLedger, applog.OpReset)
		return
	}
	if inv, ok := s.insights.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
	s.logger.InfoContext(r.Context(), "Ledger reset", applog.FieldOperation, applog.OpReset)
	NoContent().Write(w)
}
