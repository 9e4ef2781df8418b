package api

import (
	"net/http"

	"chat-relay/internal/metrics"
	"chat-relay/internal/middleware"
	"chat-relay/internal/store"

	"github.com/gorilla/mux"
)

// NewRouter wires the HTTP surface: the three user endpoints, the
// websocket upgrade and the metrics scrape.
func NewRouter(users store.Users, serveWS http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger)

	r.HandleFunc("/register", RegisterHandler(users)).Methods(http.MethodPost)
	r.HandleFunc("/login", LoginHandler(users)).Methods(http.MethodPost)
	r.HandleFunc("/users", ListUsersHandler(users)).Methods(http.MethodGet)
	r.HandleFunc("/ws", serveWS).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}
