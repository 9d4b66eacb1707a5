package http

import (
	"encoding/json"
	"net/http"

	"github.com/Freeeeeet/slotswapper/internal/apperr"
	"go.uber.org/zap"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

// writeError переводит категорию ошибки в HTTP-статус. Сообщения
// стабильные - клиент ветвится по ним (повтор на conflict и т.д.)
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	var status int
	switch kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindInvalidState, apperr.KindInvalidInput:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	default:
		// Fatal и неизвестные ошибки наружу не детализируем
		s.logger.Error("Request failed", zap.Error(err), zap.String("kind", kind.String()))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "server error"})
		return
	}

	s.writeJSON(w, status, map[string]string{"message": err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return false
	}
	return true
}
