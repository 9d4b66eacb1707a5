package http

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/google/uuid"
)

func (s *Server) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title     string    `json:"title"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	slot, err := s.slotService.CreateSlot(r.Context(), userIDFrom(r), body.Title, body.StartTime, body.EndTime)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, slot)
}

func (s *Server) handleMySlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.slotService.ListUserSlots(r.Context(), userIDFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleUserSlots(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid user id"})
		return
	}

	slots, err := s.slotService.ListUserSlots(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleSetSlotStatus(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid slot id"})
		return
	}

	var body struct {
		Status model.SlotStatus `json:"status"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	slot, err := s.slotService.SetStatus(r.Context(), slotID, userIDFrom(r), body.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, slot)
}

func (s *Server) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid slot id"})
		return
	}

	if err := s.slotService.DeleteSlot(r.Context(), slotID, userIDFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "slot removed"})
}
