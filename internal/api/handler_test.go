package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vasilis92/Spotify-Alarm/internal/apperrors"
)

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_ServeHTTP_AppErrorEnvelope(t *testing.T) {
	handler := Handler(func(w http.ResponseWriter, r *http.Request) error {
		return apperrors.NewNotFoundResource("alarm", "a1")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/alarms/a1", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeErrorBody(t, rec)
	require.Equal(t, apperrors.ErrorCodeNotFound, body.Error.Code)
	require.Contains(t, body.Error.Message, "a1")
}

func TestHandler_ServeHTTP_PlainErrorBecomesInternal(t *testing.T) {
	handler := Handler(func(w http.ResponseWriter, r *http.Request) error {
		return http.ErrBodyNotAllowed
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, apperrors.ErrorCodeInternalError, decodeErrorBody(t, rec).Error.Code)
}

func TestHandler_ServeHTTP_NoErrorWritesNothingExtra(t *testing.T) {
	handler := Handler(func(w http.ResponseWriter, r *http.Request) error {
		return WriteJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())
}

func TestRecovererMiddleware_PanicBecomes500(t *testing.T) {
	wrapped := RecovererMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, apperrors.ErrorCodeInternalError, decodeErrorBody(t, rec).Error.Code)
}

func TestRequestIDMiddleware_MintsAndEchoes(t *testing.T) {
	var seen string
	wrapped := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDMiddleware_HonorsInboundHeader(t *testing.T) {
	var seen string
	wrapped := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-chose-this")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	require.Equal(t, "caller-chose-this", seen)
	require.Equal(t, "caller-chose-this", rec.Header().Get(RequestIDHeader))
}

func TestRequestID_BeforeMiddleware(t *testing.T) {
	require.Empty(t, RequestID(httptest.NewRequest(http.MethodGet, "/", nil)))
	require.Empty(t, RequestID(nil))
}
