package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userAgentServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestGetHttpClientUserAgent(t *testing.T) {
	srv, seen := userAgentServer(t)

	resp, err := GetHttpClient().Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, DefaultUserAgent, *seen)

	resp, err = GetHttpClient(WithUserAgent("cryptnox-installer/1.2.0")).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "cryptnox-installer/1.2.0", *seen)
}

func TestGetHttpClientTimeout(t *testing.T) {
	assert.Equal(t, 60*time.Second, GetHttpClient().Timeout)
	assert.Equal(t, 5*time.Second, GetHttpClient(WithTimeout(5*time.Second)).Timeout)
	assert.Equal(t, 60*time.Second, GetHttpClient(WithTimeout(0), WithUserAgent("")).Timeout)
}
