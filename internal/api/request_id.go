package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the correlation header the daemon reads and echoes.
const RequestIDHeader = "X-Request-Id"

type contextKey int

const requestIDKey contextKey = iota

// RequestID returns the correlation id assigned to the request, or ""
// before the middleware has run.
func RequestID(r *http.Request) string {
	if r == nil {
		return ""
	}
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// RequestIDMiddleware assigns every request a correlation id. An inbound
// X-Request-Id is honored, otherwise one is minted; either way the id is
// echoed on the response so alarm clients can match results to calls.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
