package httpclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-ai/uniproxy/internal/httpclient"
)

func TestSendRequestSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "value", r.Header.Get("X-Custom"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name": "test"}`, string(body))

		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	var resp struct {
		OK bool `json:"ok"`
	}
	err := httpclient.SendRequest(
		context.Background(),
		http.DefaultClient,
		"POST",
		server.URL,
		map[string]string{"X-Custom": "value"},
		map[string]string{"name": "test"},
		&resp,
	)

	require.NoError(t, err)
	assert.True(t, resp.OK)
}

func TestSendRequestNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "down"}}`))
	}))
	defer server.Close()

	err := httpclient.SendRequest(context.Background(), http.DefaultClient, "POST", server.URL, nil, nil, nil)
	require.Error(t, err)

	var upstreamErr *httpclient.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.StatusCode)
	assert.Contains(t, string(upstreamErr.Body), "down")
}

func TestOpenStreamConfirmsBeforeReturning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down"}}`))
	}))
	defer server.Close()

	body, err := httpclient.OpenStream(context.Background(), http.DefaultClient, "POST", server.URL, nil, nil)

	require.Error(t, err)
	assert.Nil(t, body)

	var upstreamErr *httpclient.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusTooManyRequests, upstreamErr.StatusCode)
}

func TestOpenStreamReturnsOpenBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: one\n\ndata: two\n\n")
	}))
	defer server.Close()

	body, err := httpclient.OpenStream(context.Background(), http.DefaultClient, "POST", server.URL, nil, nil)
	require.NoError(t, err)

	var lines []string
	err = httpclient.ScanLines(body, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	require.NoError(t, err)

	// empty separator lines are skipped
	assert.Equal(t, []string{"data: one", "data: two"}, lines)
}

func TestScanLinesStopsOnProcessorError(t *testing.T) {
	stop := errors.New("stop")
	body := io.NopCloser(strings.NewReader("line one\nline two\nline three\n"))

	var seen int
	err := httpclient.ScanLines(body, func(line string) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}
