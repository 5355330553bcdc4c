package services

import (
	"context"
	"io"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Fetcher downloads a whole resource. Implementations must not retry.
type Fetcher interface {
	Fetch(ctx context.Context, u string, h http.Header) ([]byte, error)
}

type HTTPFetcher struct {
	cl *http.Client
	h  http.Header
}

// NewHTTPFetcher uses h as default headers. Headers passed to Fetch take
// precedence over them.
func NewHTTPFetcher(cl *http.Client, h http.Header) *HTTPFetcher {
	if h == nil {
		h = http.Header{}
	}
	return &HTTPFetcher{cl: cl, h: h}
}

func (s *HTTPFetcher) headers(h http.Header) http.Header {
	res := s.h.Clone()
	for k, v := range h {
		res[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	// Whole resources only.
	res.Del("Range")
	return res
}

func (s *HTTPFetcher) Fetch(ctx context.Context, u string, h http.Header) ([]byte, error) {
	t := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, newFetchError(FetchErrorTransport, u, errors.Wrap(err, "Failed to build request"))
	}
	req.Header = s.headers(h)
	log.Debugf("Start fetching src=%v user-agent=%v", u, req.Header.Get("User-Agent"))
	r, err := s.cl.Do(req)
	if err != nil {
		if isMalformed(err) {
			return nil, newFetchError(FetchErrorMalformed, u, err)
		}
		return nil, newFetchError(FetchErrorTransport, u, err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, r.Body)
		return nil, newStatusError(u, r.StatusCode)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, newFetchError(FetchErrorTransport, u, errors.Wrap(err, "Failed to read body"))
	}
	if len(data) == 0 {
		return nil, newFetchError(FetchErrorEmptyBody, u, nil)
	}
	log.Debugf("Finish fetching src=%v size=%v time=%v", u, bytefmt.ByteSize(uint64(len(data))), time.Since(t))
	return data, nil
}

// isMalformed reports whether the origin answered something that is not
// HTTP. Broken header lines surface as textproto.ProtocolError, broken
// status lines only as net/http's "malformed HTTP ..." error text.
func isMalformed(err error) bool {
	var pe textproto.ProtocolError
	if errors.As(err, &pe) {
		return true
	}
	return strings.Contains(err.Error(), "malformed HTTP")
}
