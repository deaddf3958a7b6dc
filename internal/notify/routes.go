package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes wires the event stream endpoint to the router.
func RegisterRoutes(router chi.Router, hub *Hub) {
	router.Get("/v1/events/ws", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	})
}
