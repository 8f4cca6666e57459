package websocket

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/services"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type Config struct {
	BufferSize int
	RateLimit  float64
	RateBurst  int
	ReadLimit  int64
	PongWait   time.Duration
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 64
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 64 << 10
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	return c
}

// Handler authenticates the upgrade request and serves the socket.
// A request without a valid credential is answered 401 and never touches presence.
type Handler struct {
	log      *slog.Logger
	resolver contract.IIdentityResolver
	chat     services.IChatService
	cfg      Config
	upgrader websocket.Upgrader
}

func NewHandler(log *slog.Logger, resolver contract.IIdentityResolver, chat services.IChatService, cfg Config) *Handler {
	return &Handler{
		log:      log,
		resolver: resolver,
		chat:     chat,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers authenticate with a bearer token, not with cookies
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	credential := r.Header.Get("Authorization")
	if credential == "" {
		credential = r.URL.Query().Get("token")
	}

	userID, err := h.resolver.ResolveIdentity(r.Context(), credential)
	if err != nil {
		if errors.Is(err, errors.ErrAuthenticationFailed) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		} else {
			h.log.Error("Identity resolution failed", "error", err)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		h.log.Debug("WebSocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	h.log.Info("WebSocket connected", "user_id", userID, "remote", r.RemoteAddr)
	NewConnection(h.log, conn, userID, h.chat, h.cfg).Serve(r.Context())
}
