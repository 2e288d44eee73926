package openweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadingParsesFirstEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "28.61", r.URL.Query().Get("lat"))
		require.Equal(t, "77.2", r.URL.Query().Get("lon"))
		require.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"list":[{"main":{"aqi":5},"components":{"pm2_5":75.4}},{"main":{"aqi":1},"components":{"pm2_5":2}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second)

	reading, err := client.Reading(context.Background(), 28.61, 77.2)
	require.NoError(t, err)
	require.Equal(t, 75.4, reading.PM25)
	require.Equal(t, 5, reading.SourceIndex)
}

func TestReadingEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"list":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second)

	_, err := client.Reading(context.Background(), 1, 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no entries")
}

func TestReadingUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad-key", time.Second)

	_, err := client.Reading(context.Background(), 1, 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=401")
}

func TestReadingMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second)

	_, err := client.Reading(context.Background(), 1, 2)
	require.Error(t, err)
}
