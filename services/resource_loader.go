package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/bytefmt"
	log "github.com/sirupsen/logrus"
)

const (
	CONTENT_TYPE = "audio/mpeg"
)

// Loader is what a playback engine talks to.
type Loader interface {
	ShouldHandle(r *LoadRequest) bool
	HandleLoadingRequest(r *LoadRequest) bool
}

// ResourceLoader answers byte window requests from fully fetched resources.
// Every resource is downloaded once and then kept in memory for the lifetime
// of the loader. Requests that arrive while a download is in flight wait for
// it instead of starting another one.
type ResourceLoader struct {
	f       Fetcher
	ua      string
	mux     sync.Mutex
	cache   map[string]*FetchedBuffer
	pending map[string]*PendingFetch
	ctx     context.Context
	cancel  context.CancelFunc
}

var _ Loader = (*ResourceLoader)(nil)

func NewResourceLoader(ctx context.Context, f Fetcher, userAgent string) *ResourceLoader {
	cctx, cancel := context.WithCancel(ctx)
	return newResourceLoader(cctx, cancel, f, userAgent)
}

// newResourceLoader takes ownership of cancel, Close releases ctx with it.
func newResourceLoader(ctx context.Context, cancel context.CancelFunc, f Fetcher, userAgent string) *ResourceLoader {
	return &ResourceLoader{
		f:       f,
		ua:      userAgent,
		cache:   map[string]*FetchedBuffer{},
		pending: map[string]*PendingFetch{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *ResourceLoader) UserAgent() string {
	return s.ua
}

func (s *ResourceLoader) ShouldHandle(r *LoadRequest) bool {
	if r == nil || r.URL == "" {
		return false
	}
	u, err := url.Parse(r.URL)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == LOADER_SCHEME {
		return true
	}
	return supportedTransport(strings.TrimPrefix(scheme, LOADER_SCHEME+"+"))
}

// HandleLoadingRequest always accepts the request. The outcome is delivered
// through the request itself, see LoadRequest.Wait.
func (s *ResourceLoader) HandleLoadingRequest(r *LoadRequest) bool {
	if r == nil || r.URL == "" || r.Data == nil {
		log.Warn("Ignoring load request without url or data request")
		loadRequestsTotal.WithLabelValues("ignored").Inc()
		return true
	}
	s.mux.Lock()
	if b, ok := s.cache[r.URL]; ok {
		s.mux.Unlock()
		loadRequestsTotal.WithLabelValues("cached").Inc()
		s.respond(r, b)
		return true
	}
	if p, ok := s.pending[r.URL]; ok {
		p.Add(r)
		n := len(p.Waiters())
		s.mux.Unlock()
		log.Debugf("Joining pending fetch src=%v waiters=%v", r.URL, n)
		loadRequestsTotal.WithLabelValues("joined").Inc()
		return true
	}
	p := NewPendingFetch(r.URL)
	p.Add(r)
	s.pending[r.URL] = p
	s.mux.Unlock()
	loadRequestsTotal.WithLabelValues("fetched").Inc()
	go s.fetch(p)
	return true
}

func (s *ResourceLoader) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", s.ua)
	return h
}

func (s *ResourceLoader) fetch(p *PendingFetch) {
	pendingFetches.Inc()
	defer pendingFetches.Dec()
	var data []byte
	u, err := NormalizeURL(p.url)
	if err != nil {
		err = newFetchError(FetchErrorTransport, p.url, err)
	} else {
		data, err = s.f.Fetch(s.ctx, u, s.headers())
	}
	fetchDuration.Observe(time.Since(p.started).Seconds())
	fetchesTotal.WithLabelValues(fetchOutcome(err)).Inc()

	var b *FetchedBuffer
	s.mux.Lock()
	delete(s.pending, p.url)
	if err == nil {
		b = NewFetchedBuffer(data, CONTENT_TYPE)
		s.cache[p.url] = b
	}
	waiters := p.Waiters()
	s.mux.Unlock()

	if err != nil {
		log.WithError(err).Warnf("Failed to load resource src=%v waiters=%v", p.url, len(waiters))
		for _, w := range waiters {
			w.fail(err)
		}
		return
	}
	log.Infof("Resource loaded src=%v size=%v waiters=%v", p.url, bytefmt.ByteSize(uint64(b.Len())), len(waiters))
	for _, w := range waiters {
		s.respond(w, b)
	}
}

func (s *ResourceLoader) respond(r *LoadRequest, b *FetchedBuffer) {
	data, err := b.Slice(r.Data)
	if err != nil {
		log.WithError(err).Warnf("Rejecting load request src=%v", r.URL)
		r.fail(err)
		return
	}
	r.fulfill(&LoadResponse{Info: b.Info(), Data: data})
}

func (s *ResourceLoader) Cached(u string) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	_, ok := s.cache[u]
	return ok
}

func (s *ResourceLoader) Len() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.cache)
}

// Close aborts in-flight fetches. Their waiters fail with a transport error.
func (s *ResourceLoader) Close() {
	s.cancel()
}
