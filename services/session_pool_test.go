package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPoolReusesLoaders(t *testing.T) {
	sp := newSessionPool(newFakeFetcher(nil), "pool-agent", time.Minute, 10)
	defer sp.Close()

	a := sp.Get("a")
	assert.Same(t, a, sp.Get("a"))
	assert.NotSame(t, a, sp.Get("b"))
	assert.Same(t, sp.Get(""), sp.Get(DEFAULT_SESSION))
	assert.Equal(t, "pool-agent", a.UserAgent())
}

func TestSessionPoolExpiresSessions(t *testing.T) {
	sp := newSessionPool(newFakeFetcher(nil), "pool-agent", 20*time.Millisecond, 10)
	defer sp.Close()

	a := sp.Get("a")
	assert.Eventually(t, func() bool {
		return sp.Get("a") != a
	}, time.Second, 10*time.Millisecond)
}

func TestSessionPoolCloseAbortsFetches(t *testing.T) {
	f := newFakeFetcher(map[string][]byte{testURL: []byte("x")})
	f.gate = make(chan struct{})
	sp := newSessionPool(f, "pool-agent", time.Minute, 10)

	r := NewLoadRequest(testURL, &DataRequest{ToEnd: true})
	sp.Get("a").HandleLoadingRequest(r)
	sp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := r.Wait(ctx)
	requireFetchError(t, err, FetchErrorTransport)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionPoolExpiryAbortsFetches(t *testing.T) {
	f := newFakeFetcher(map[string][]byte{testURL: []byte("x")})
	f.gate = make(chan struct{})
	defer close(f.gate)
	sp := newSessionPool(f, "pool-agent", 20*time.Millisecond, 10)
	defer sp.Close()

	a := sp.Get("a")
	r := NewLoadRequest(testURL, &DataRequest{ToEnd: true})
	a.HandleLoadingRequest(r)

	res, err := waitRequest(t, r)
	assert.Nil(t, res)
	requireFetchError(t, err, FetchErrorTransport)
	assert.False(t, a.Cached(testURL))
	assert.Error(t, a.ctx.Err())
}

func TestSessionGrace(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, sessionGrace(20*time.Millisecond))
	assert.Equal(t, time.Minute, sessionGrace(10*time.Minute))
}
