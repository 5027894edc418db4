package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost(t *testing.T) {
	t.Parallel()

	var (
		gotPath, gotAuth, gotContentType string
		gotBody                          []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, err := New(server.URL+"/hooks", Config{Headers: map[string]string{"Authorization": "Bearer x"}})
	require.NoError(t, err)

	resp, err := client.Post(context.Background(), "events", RequestOptions{Body: []byte(`[1]`)})
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []byte("ok"), resp.Body)
	assert.Equal(t, "/hooks/events", gotPath)
	assert.Equal(t, "Bearer x", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, []byte(`[1]`), gotBody)
}

func TestNonSuccessStatus(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)
	resp, err := client.Post(context.Background(), "", RequestOptions{Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, DefaultTimeout, client.Timeout)
}

func TestNewRequiresAbsoluteURL(t *testing.T) {
	t.Parallel()
	_, err := New("/relative")
	assert.Error(t, err)
}
