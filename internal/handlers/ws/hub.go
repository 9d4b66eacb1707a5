package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/Freeeeeet/slotswapper/internal/notify"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TokenVerifier проверяет токен при подключении
type TokenVerifier interface {
	VerifyToken(token string) (uuid.UUID, error)
}

// Hub держит живые websocket-соединения по комнатам-пользователям и
// реализует notify.Notifier. Офлайн-пользователи событие просто не
// получают: ни очередей, ни повторов
type Hub struct {
	clients  map[uuid.UUID]map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
	auth     TokenVerifier
	logger   *zap.Logger
}

func NewHub(auth TokenVerifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:  make(map[uuid.UUID]map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		auth:     auth,
		logger:   logger,
	}
}

var _ notify.Notifier = (*Hub)(nil)

func (h *Hub) Notify(ctx context.Context, userID uuid.UUID, event notify.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("Failed to marshal notification", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients[userID] {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Warn("Websocket write failed, dropping connection",
				zap.Error(err),
				zap.String("user_id", userID.String()),
			)
			conn.Close()
			h.remove(userID, conn)
		}
	}
}

// Handler принимает websocket-подключения. Токен передаётся в query -
// браузерный WebSocket API не умеет выставлять заголовки
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.auth.VerifyToken(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("Websocket upgrade failed", zap.Error(err))
			return
		}

		h.mu.Lock()
		if h.clients[userID] == nil {
			h.clients[userID] = make(map[*websocket.Conn]struct{})
		}
		h.clients[userID][conn] = struct{}{}
		h.mu.Unlock()

		h.logger.Info("Websocket client connected",
			zap.String("user_id", userID.String()),
		)

		// Читаем до закрытия, чтобы вовремя убрать соединение из комнаты
		go func() {
			defer func() {
				h.mu.Lock()
				h.remove(userID, conn)
				h.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}

// remove вызывается под h.mu
func (h *Hub) remove(userID uuid.UUID, conn *websocket.Conn) {
	delete(h.clients[userID], conn)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}
