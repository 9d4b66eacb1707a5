package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/handlers/ws"
	"github.com/Freeeeeet/slotswapper/internal/service"
	"go.uber.org/zap"
)

// Server HTTP-обвязка над сервисами: JSON API плюс websocket-канал
type Server struct {
	authService *service.AuthService
	slotService *service.SlotService
	swapService *service.SwapService
	hub         *ws.Hub
	logger      *zap.Logger
	mux         *http.ServeMux
	server      *http.Server
}

func NewServer(
	addr string,
	authService *service.AuthService,
	slotService *service.SlotService,
	swapService *service.SwapService,
	hub *ws.Hub,
	logger *zap.Logger,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		authService: authService,
		slotService: slotService,
		swapService: swapService,
		hub:         hub,
		logger:      logger,
		mux:         mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      rateLimit(mux),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.Handle("GET /api/auth/me", s.authed(s.handleMe))
	s.mux.Handle("POST /api/auth/telegram", s.authed(s.handleLinkTelegram))

	s.mux.Handle("POST /api/events", s.authed(s.handleCreateSlot))
	s.mux.Handle("GET /api/events", s.authed(s.handleMySlots))
	s.mux.Handle("GET /api/events/user/{id}", s.authed(s.handleUserSlots))
	s.mux.Handle("PUT /api/events/{id}/status", s.authed(s.handleSetSlotStatus))
	s.mux.Handle("DELETE /api/events/{id}", s.authed(s.handleDeleteSlot))

	s.mux.Handle("GET /api/swap/swappable-slots", s.authed(s.handleSwappableSlots))
	s.mux.Handle("GET /api/swap/my-requests", s.authed(s.handleMySwaps))
	s.mux.Handle("GET /api/swap/my-stats", s.authed(s.handleSwapStats))
	s.mux.Handle("POST /api/swap/swap-request", s.authed(s.handleOpenSwap))
	s.mux.Handle("POST /api/swap/swap-response/{id}", s.authed(s.handleRespondSwap))

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ws", s.hub.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Handler отдаёт корневой handler (используется в тестах)
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start начинает слушать HTTP-запросы
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown корректно останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
