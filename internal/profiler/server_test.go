package profiler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_PprofEndpoints(t *testing.T) {
	server := New(0, zerolog.Nop())

	require.NoError(t, server.Start(context.Background()), "Start() error")
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, server.Shutdown(shutdownCtx), "Shutdown() error")
	}()

	assert.Contains(t, server.Addr(), "127.0.0.1:")
	baseURL := "http://" + server.Addr()

	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "index", endpoint: "/debug/pprof/"},
		{name: "cmdline", endpoint: "/debug/pprof/cmdline"},
		{name: "goroutine", endpoint: "/debug/pprof/goroutine?debug=1"},
	}

	client := &http.Client{Timeout: 5 * time.Second}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Get(baseURL + tt.endpoint)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestServer_AddrBeforeStart(t *testing.T) {
	assert.Empty(t, New(0, zerolog.Nop()).Addr())
}
