package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), 5*time.Second, nil)
	client.SetBaseURL(srv.URL)
	return client
}

func TestClient_ListDevices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/me/player/devices", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"devices":[{"id":"d1","name":"Office","type":"Computer","is_active":true,"volume_percent":55}]}`))
	})

	devices, err := client.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.Equal(t, "d1", devices[0].ID)
	require.Equal(t, "Office", devices[0].Name)
	require.True(t, devices[0].IsActive)
	require.True(t, devices[0].IsDesktop())
}

func TestClient_TransferPlayback_Body(t *testing.T) {
	var got transferRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/me/player", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.TransferPlayback(context.Background(), "d1", true)
	require.NoError(t, err)
	require.Equal(t, []string{"d1"}, got.DeviceIDs)
	require.True(t, got.Play)
}

func TestClient_SetVolume_Query(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/me/player/volume", r.URL.Path)
		require.Equal(t, "70", r.URL.Query().Get("volume_percent"))
		require.Equal(t, "d1", r.URL.Query().Get("device_id"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.SetVolume(context.Background(), 70, "d1"))
}

func TestClient_StartPlayback_ContextURI(t *testing.T) {
	var got PlayBody
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/player/play", r.URL.Path)
		require.Equal(t, "d1", r.URL.Query().Get("device_id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.StartPlayback(context.Background(), "d1", PlayBody{ContextURI: "spotify:playlist:abc"})
	require.NoError(t, err)
	require.Equal(t, "spotify:playlist:abc", got.ContextURI)
	require.Empty(t, got.URIs)
}

func TestClient_StartPlayback_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"status":404,"message":"Device not found"}}`))
	})

	err := client.StartPlayback(context.Background(), "gone", PlayBody{URIs: []string{"spotify:track:x"}})
	require.Error(t, err)
	require.True(t, IsNotFound(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, "Device not found", statusErr.Message)
}

func TestClient_StatusError_UnparseableBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream choked"))
	})

	devices, err := client.ListDevices(context.Background())
	require.Error(t, err)
	require.Nil(t, devices)
	require.False(t, IsNotFound(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestIsNotFound_PlainError(t *testing.T) {
	require.False(t, IsNotFound(context.DeadlineExceeded))
	require.False(t, IsNotFound(nil))
}
