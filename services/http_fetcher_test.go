package services

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireFetchError(t *testing.T, err error, kind FetchErrorKind) *FetchError {
	t.Helper()
	var fe *FetchError
	require.True(t, errors.As(err, &fe), "expected *FetchError, got %v", err)
	assert.Equal(t, kind, fe.Kind, fe.Error())
	return fe
}

func TestHTTPFetcherUserAgentOverridesDefaults(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), http.Header{
		"User-Agent": []string{"default-agent"},
		"Accept":     []string{"*/*"},
	})
	data, err := f.Fetch(context.Background(), srv.URL, http.Header{
		"user-agent": []string{"Custom/1.0"},
		"Range":      []string{"bytes=0-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, []string{"Custom/1.0"}, got.Values("User-Agent"))
	assert.Equal(t, "*/*", got.Get("Accept"))
	assert.Empty(t, got.Get("Range"))
}

func TestHTTPFetcherReplacesGoUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.UserAgent()
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), nil)
	h := http.Header{}
	h.Set("User-Agent", "AppleCoreMedia/1.0")
	_, err := f.Fetch(context.Background(), srv.URL, h)
	require.NoError(t, err)
	assert.Equal(t, "AppleCoreMedia/1.0", ua)
}

func TestHTTPFetcherUnexpectedStatus(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusPartialContent, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte("body"))
		}))
		f := NewHTTPFetcher(srv.Client(), nil)
		data, err := f.Fetch(context.Background(), srv.URL, nil)
		srv.Close()

		assert.Nil(t, data)
		fe := requireFetchError(t, err, FetchErrorUnexpectedStatus)
		assert.Equal(t, code, fe.StatusCode)
	}
}

func TestHTTPFetcherEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), nil)
	_, err := f.Fetch(context.Background(), srv.URL, nil)
	requireFetchError(t, err, FetchErrorEmptyBody)
}

func TestHTTPFetcherTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	u := srv.URL
	cl := srv.Client()
	srv.Close()

	f := NewHTTPFetcher(cl, nil)
	_, err := f.Fetch(context.Background(), u, nil)
	fe := requireFetchError(t, err, FetchErrorTransport)
	assert.NotNil(t, fe.Cause())
}

func TestHTTPFetcherCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewHTTPFetcher(srv.Client(), nil)
	_, err := f.Fetch(ctx, srv.URL, nil)
	fe := requireFetchError(t, err, FetchErrorTransport)
	assert.True(t, errors.Is(fe, context.Canceled))
}

func TestHTTPFetcherMalformedResponse(t *testing.T) {
	for name, raw := range map[string]string{
		"status line": "GARBAGE\r\n\r\n",
		"header line": "HTTP/1.1 200 OK\r\nnot a header\r\n\r\n",
	} {
		t.Run(name, func(t *testing.T) {
			u := serveRaw(t, raw)
			f := NewHTTPFetcher(&http.Client{}, nil)
			_, err := f.Fetch(context.Background(), u, nil)
			requireFetchError(t, err, FetchErrorMalformed)
		})
	}
}

// serveRaw answers one request with raw bytes.
func serveRaw(t *testing.T, raw string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		if _, err := http.ReadRequest(bufio.NewReader(c)); err != nil {
			return
		}
		_, _ = c.Write([]byte(raw))
	}()
	return "http://" + ln.Addr().String() + "/x.mp3"
}

func TestFetchErrorMessage(t *testing.T) {
	assert.Equal(t, "Failed to fetch src=http://a/b: unexpected status code=404", newStatusError("http://a/b", 404).Error())
	assert.Equal(t, "Failed to fetch src=http://a/b: empty body", newFetchError(FetchErrorEmptyBody, "http://a/b", nil).Error())
}
