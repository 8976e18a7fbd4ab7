package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

func TestFetcher_FetchSetsHeadersAndReturnsBody(t *testing.T) {
	t.Parallel()

	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, []string{"test-agent/1.0"}, "https://infocom.vn/", 100, zap.NewNop())
	resp, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "<html>ok</html>", string(resp.Body))
	require.Equal(t, "test-agent/1.0", gotUA)
	require.Equal(t, "https://infocom.vn/", gotReferer)
}

func TestFetcher_FetchNon2xxIsFetchError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, []string{"test-agent/1.0"}, "", 100, zap.NewNop())
	_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
	require.Error(t, err)

	var fe *crawler.FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, http.StatusNotFound, fe.StatusCode)
	require.False(t, crawler.IsFatal(err))
}

func TestFetcher_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(time.Second, []string{"test-agent/1.0"}, "", 1, zap.NewNop())
	_, err := f.Fetch(ctx, crawler.FetchRequest{URL: "http://127.0.0.1:1/never"})
	require.Error(t, err)
}
