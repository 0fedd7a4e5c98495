package http

import (
	"net/http"

	applog "crediflow/internal/log"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.Cards.List(r.Context())
	if err != nil {
		writeError(w, r, err, applog.ComponentCard, applog.OpList)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, newCardResponse(c))
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Cards.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, applog.ComponentCard, applog.OpRead)
		return
	}
	NewResponse().JSON(newCardResponse(c)).Write(w)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeError(w, r, err, applog.ComponentCard, applog.OpCreate)
		return
	}
	in, err := cardFromRequest(parser)
	if err != nil {
		writeError(w, r, err, applog.ComponentCard, applog.OpCreate)
		return
	}

	c, err := s.svc.Cards.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, applog.ComponentCard, applog.OpCreate)
		return
	}

	s.logger.InfoContext(r.Context(), "Card created",
		applog.FieldCardID, c.ID,
		applog.FieldOperation, applog.OpCreate)
	NewResponse().Status(http.StatusCreated).
		Header("Location", "/api/cards/"+c.ID).
		JSON(newCardResponse(c)).
		Write(w)
}

// handleUpdateCard replaces every editable field of the card.
func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeError(w, r, err, applog.ComponentCard, applog.OpUpdate)
		return
	}
	in, err := cardFromRequest(parser)
	if err != nil {
		writeError(w, r, err, applog.ComponentCard, applog.OpUpdate)
		return
	}
	in.ID = r.PathValue("id")

	c, err := s.svc.Cards.Update(r.Context(), in)
	if err != nil {
		writeError(w, r, err, applog.ComponentCard, applog.OpUpdate)
		return
	}
	NewResponse().JSON(newCardResponse(c)).Write(w)
}

// handleDeleteCard removes the card and every purchase on it.
func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.svc.Cards.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err, applog.ComponentCard, applog.OpDelete)
		return
	}

	s.logger.InfoContext(r.Context(), "Card deleted",
		applog.FieldCardID, id,
		applog.FieldItems, removed,
		applog.FieldOperation, applog.OpDelete)
	NewResponse().JSON(map[string]any{
		"id":               id,
		"purchasesRemoved": removed,
	}).Write(w)
}
