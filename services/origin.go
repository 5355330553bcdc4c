package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	LOADER_SCHEME    = "loader"
	LOADER_TRANSPORT = "https"
	S3_SCHEME        = "s3"
)

// NormalizeURL replaces the loader scheme with the transport that actually
// serves the resource: "loader://" becomes "https://" and
// "loader+http://" becomes "http://".
func NormalizeURL(s string) (string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to parse resource url=%v", s)
	}
	if u.Host == "" {
		return "", errors.Errorf("No host in resource url=%v", s)
	}
	scheme := strings.ToLower(u.Scheme)
	switch {
	case scheme == LOADER_SCHEME:
		u.Scheme = LOADER_TRANSPORT
	case strings.HasPrefix(scheme, LOADER_SCHEME+"+"):
		u.Scheme = strings.TrimPrefix(scheme, LOADER_SCHEME+"+")
	default:
		u.Scheme = scheme
	}
	if !supportedTransport(u.Scheme) {
		return "", errors.Errorf("Unsupported scheme=%v url=%v", u.Scheme, s)
	}
	return u.String(), nil
}

func supportedTransport(scheme string) bool {
	switch scheme {
	case "http", "https", S3_SCHEME:
		return true
	}
	return false
}

// Origin picks a Fetcher by the scheme of the normalized url.
type Origin struct {
	hf *HTTPFetcher
	s3 *S3Fetcher
}

func NewOrigin(hf *HTTPFetcher, s3 *S3Fetcher) *Origin {
	return &Origin{hf: hf, s3: s3}
}

func (s *Origin) Fetch(ctx context.Context, u string, h http.Header) ([]byte, error) {
	pu, err := url.Parse(u)
	if err != nil {
		return nil, newFetchError(FetchErrorTransport, u, errors.Wrap(err, "Failed to parse url"))
	}
	if pu.Scheme == S3_SCHEME {
		if s.s3 == nil {
			return nil, newFetchError(FetchErrorTransport, u, errors.New("S3 origin is not configured"))
		}
		return s.s3.Fetch(ctx, u, h)
	}
	if s.hf == nil {
		return nil, newFetchError(FetchErrorTransport, u, errors.New("HTTP origin is not configured"))
	}
	return s.hf.Fetch(ctx, u, h)
}
