package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/relaychat/server/internal/hub"
	"github.com/relaychat/server/internal/token"
)

// WSHandler upgrades HTTP requests to WebSocket connections and registers
// them with the broadcast hub. A valid session cookie is required to connect;
// once connected, the channel itself performs no further checks, so a token
// expiring mid-session does not drop the connection.
type WSHandler struct {
	hub            *hub.Hub
	tokens         *token.Manager
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

// NewWSHandler constructs a WSHandler. Origins lists the allowed values of
// the Origin header; "*" allows any. Requests without an Origin header
// (non-browser clients) are always allowed.
func NewWSHandler(h *hub.Hub, tokens *token.Manager, origins []string, maxMessageSize int64) *WSHandler {
	allowed := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
			continue
		}
		if normalized, ok := normalizeOrigin(origin); ok {
			allowed[normalized] = struct{}{}
		}
	}

	return &WSHandler{
		hub:    h,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowAll {
					return true
				}
				normalized, ok := normalizeOrigin(origin)
				if !ok {
					return false
				}
				_, exists := allowed[normalized]
				if !exists {
					log.Printf("Blocked WebSocket connection from disallowed origin: %q", origin)
				}
				return exists
			},
		},
		maxMessageSize: maxMessageSize,
	}
}

// ServeWS handles the WebSocket upgrade for authenticated clients.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, invalidSession)
		return
	}
	userID, err := h.tokens.Verify(cookie.Value)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, invalidSession)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	participant := hub.NewParticipant(conn, h.hub, userID, r.RemoteAddr, h.maxMessageSize)
	h.hub.RegisterChan() <- participant
}

const invalidSession = "Authentication required"

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
