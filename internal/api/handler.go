package api

import (
	"log"
	"net/http"

	"github.com/Vasilis92/Spotify-Alarm/internal/apperrors"
)

// Handler is an http.Handler whose body returns an error. Returned
// errors are serialized through the apperrors envelope, so route
// handlers stay free of response-writing boilerplate.
type Handler func(w http.ResponseWriter, r *http.Request) error

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		WriteError(w, r, err)
	}
}

// RecovererMiddleware turns a handler panic into a 500 envelope instead
// of a dropped connection. A panicking alarm edit must not take the
// daemon's API down with it.
func RecovererMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Printf("panic serving %s %s [%s]: %v", r.Method, r.URL.Path, RequestID(r), recovered)
				WriteError(w, r, apperrors.NewInternalError("Internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
