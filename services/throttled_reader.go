package services

import (
	"io"

	"github.com/juju/ratelimit"
)

// NewThrottledReader limits r to rate bytes per second.
func NewThrottledReader(r io.Reader, rate uint64) io.Reader {
	if rate == 0 {
		return r
	}
	b := ratelimit.NewBucketWithRate(float64(rate), int64(rate))
	return ratelimit.Reader(r, b)
}
