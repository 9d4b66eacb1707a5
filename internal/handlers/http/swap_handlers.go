package http

import (
	"net/http"

	"github.com/google/uuid"
)

func (s *Server) handleSwappableSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.slotService.ListSwappableSlots(r.Context(), userIDFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleMySwaps(w http.ResponseWriter, r *http.Request) {
	lists, err := s.swapService.ListMySwaps(r.Context(), userIDFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleSwapStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.swapService.Stats(r.Context(), userIDFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleOpenSwap(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MySlotID    uuid.UUID `json:"my_slot_id"`
		TheirSlotID uuid.UUID `json:"their_slot_id"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	req, err := s.swapService.OpenSwap(r.Context(), userIDFrom(r), body.MySlotID, body.TheirSlotID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleRespondSwap(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request id"})
		return
	}

	var body struct {
		Accept bool `json:"accept"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	req, message, err := s.swapService.RespondSwap(r.Context(), userIDFrom(r), requestID, body.Accept)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  req.Status,
		"message": message,
	})
}
