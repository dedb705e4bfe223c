package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welltwin-renderer/internal/dataset"
)

func TestOptimizePath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/dijkstrainput", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]float64
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 29.76, req["lat"])
		assert.Equal(t, -95.37, req["lon"])

		w.Write([]byte(`{"path":[{"x":0.1,"y":0.2,"z":0.3,"cumoil":12},{"x":0.4,"y":0.5,"z":0.6,"cumoil":15}]}`))
	}))
	defer srv.Close()

	path, err := NewClient(srv.URL+"/").OptimizePath(context.Background(), 29.76, -95.37)
	require.NoError(t, err)
	assert.Equal(t, []dataset.SamplePoint{
		{X: 0.1, Y: 0.2, Z: 0.3, Value: 12},
		{X: 0.4, Y: 0.5, Z: 0.6, Value: 15},
	}, path)
}

func TestOptimizePathMissingPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	path, err := NewClient(srv.URL).OptimizePath(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestOptimizePathStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no route", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).OptimizePath(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "no route")
}

func TestDefaultBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("").BaseURL)
}
