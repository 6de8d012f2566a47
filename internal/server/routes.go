// Package server exposes the HTTP surface: websocket upgrade with
// connection admission, a health probe and an operational stats
// snapshot.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/registry"
	"github.com/roomcast/roomcast/internal/session"
	"github.com/roomcast/roomcast/internal/signaling"
)

// Routes builds the HTTP mux for the relay.
func Routes(handler *signaling.Handler, rooms *registry.Registry, sessions *session.Store, cfg *config.Config) *http.ServeMux {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/stats", handleStats(rooms, sessions))
	mux.HandleFunc("/ws", serveWs(handler, upgrader))
	return mux
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		// Deployment without an origin allowlist accepts everything.
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, a := range allowed {
			if strings.EqualFold(origin, a) {
				return true
			}
		}
		return false
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Relay server is healthy."))
}

func handleStats(rooms *registry.Registry, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := rooms.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rooms":       len(snap),
			"peers":       sessions.Len(),
			"room_counts": snap,
		})
	}
}

// serveWs admits and upgrades a signaling connection. The auth token
// must be present before the upgrade; its content is validated by the
// external auth service, not here.
func serveWs(handler *signaling.Handler, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authToken(r) == "" {
			slog.Debug("connection refused, missing auth token", "remote", r.RemoteAddr)
			http.Error(w, "missing auth token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}

		client := signaling.NewClient(handler, conn)
		go client.WritePump()
		go client.ReadPump()
	}
}

func authToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
