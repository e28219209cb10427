package ws

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Presence is the connection-lifecycle hook surface. Implemented by
// presence.Directory.
type Presence interface {
	Connect(ctx context.Context, userID int64, connectionID string) error
	Disconnect(ctx context.Context, userID int64, connectionID string) error
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
// A failed token check rejects the request before any presence state is
// written, so no partial registration is ever observable.
func ServeWS(hub *Hub, presence Presence, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := validateToken(tokenStr, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			log.Printf("ws: accept error: %v", err)
			return
		}

		connID := uuid.NewString()
		client := NewClient(hub, conn, connID, userID)
		hub.register <- client

		// Presence failures degrade real-time delivery only; the socket
		// itself stays up.
		if err := presence.Connect(r.Context(), userID, connID); err != nil {
			log.Printf("ws: registering presence for user %d: %v", userID, err)
		}

		go client.WritePump()
		client.ReadPump()

		if err := presence.Disconnect(context.Background(), userID, connID); err != nil {
			log.Printf("ws: deregistering presence for user %d: %v", userID, err)
		}
	}
}

func validateToken(tokenStr, secret string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, jwt.ErrTokenInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(sub, 10, 64)
}
