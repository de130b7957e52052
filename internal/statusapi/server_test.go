package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canopy-docs/canopy/internal/config"
)

func TestServer_HandleStatus_ReturnsCurrentSnapshot(t *testing.T) {
	store := NewStore()
	store.SetPhase("file")
	store.Update(2, 8, nil)

	srv := New(config.ServerConfig{Addr: "127.0.0.1:0"}, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "file", got.Phase)
	require.Equal(t, 2, got.Completed)
	require.Equal(t, 8, got.Total)
}

func TestServer_HandleHealth_ReturnsHealthy(t *testing.T) {
	srv := New(config.ServerConfig{Addr: "127.0.0.1:0"}, NewStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthy")
}
