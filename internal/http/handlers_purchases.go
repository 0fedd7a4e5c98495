package http

import (
	"net/http"

	applog "crediflow/internal/log"
)

// handleListPurchases lists purchases, optionally restricted with ?card=.
func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.svc.Purchases.List(r.Context(), ParseCardFilter(r.URL.Query()))
	if err != nil {
		writeError(w, r, err, applog.ComponentPurchase, applog.OpList)
		return
	}
	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, newPurchaseResponse(p))
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeError(w, r, err, applog.ComponentPurchase, applog.OpCreate)
		return
	}
	in, err := purchaseFromRequest(parser)
	if err != nil {
		writeError(w, r, err, applog.ComponentPurchase, applog.OpCreate)
		return
	}

	p, err := s.svc.Purchases.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, applog.ComponentPurchase, applog.OpCreate)
		return
	}

	s.logger.InfoContext(r.Context(), "Purchase created",
		applog.NewFields().
			WithPurchase(p.ID, p.CardID, p.Amount, p.Installments, string(p.Category)).
			WithOperation(applog.OpCreate).
			ToSlice()...)
	NewResponse().Status(http.StatusCreated).
		Header("Location", "/api/purchases/"+p.ID).
		JSON(newPurchaseResponse(p)).
		Write(w)
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Purchases.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, applog.ComponentPurchase, applog.OpDelete)
		return
	}
	s.logger.InfoContext(r.Context(), "Purchase deleted",
		applog.FieldPurchaseID, id,
		applog.FieldOperation, applog.OpDelete)
	NoContent().Write(w)
}
