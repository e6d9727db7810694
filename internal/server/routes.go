package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/skye-hx/watchparty/internal/signaling"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "watchparty"

// Configure the websocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024, // 64 KB
	WriteBufferSize: 64 * 1024, // 64 KB

	// We need to check the origin, but for development, we can allow all.
	// In production, you'd check r.Header.Get("Origin") against your frontend's domain
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Routes builds the coordinator's HTTP surface: room creation, health and
// the websocket upgrade.
func Routes(hub *signaling.Hub) http.Handler {
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Post("/api/new-room", newRoomHandler(hub))
	mux.Get("/api/health", healthHandler)
	mux.Get("/ws", ServeWs(hub))

	return mux
}

// newRoomHandler hands out a fresh room code. The room object itself is
// created on first join: pre-creating an empty room here would be
// destroyed again the moment membership logic saw it empty.
func newRoomHandler(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := hub.GenerateCode()
		writeJSON(w, http.StatusOK, map[string]string{"roomCode": code})
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"name": ServiceName,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ServeWs returns an http.HandlerFunc that upgrades the connection and
// hands it to the hub.
func ServeWs(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("failed to upgrade connection")
			return
		}

		client := &signaling.Client{
			Hub:  hub,
			Conn: conn,
			ID:   signaling.NewClientID(),
			Send: make(chan *signaling.Envelope, 256),
		}

		client.Hub.Register <- client

		// Start the client's read and write pumps in separate goroutines.
		// These handle the connection's whole lifecycle.
		go client.WritePump()
		go client.ReadPump()
	}
}
