package services

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// DataRequest is the byte window asked for by the engine. With ToEnd set
// Length is ignored and everything from Offset to the end is returned.
type DataRequest struct {
	Offset int64
	Length int64
	ToEnd  bool
}

type ContentInfo struct {
	ContentType              string
	ContentLength            int64
	ByteRangeAccessSupported bool
}

type LoadResponse struct {
	Info ContentInfo
	Data []byte
}

type loadResult struct {
	res *LoadResponse
	err error
}

// LoadRequest is one unit of work handed to a Loader. It is resolved exactly
// once, either with a LoadResponse or with an error, unless it was cancelled
// before that.
type LoadRequest struct {
	URL  string
	Data *DataRequest
	ch   chan loadResult
	mux  sync.Mutex
	done bool
}

func NewLoadRequest(u string, d *DataRequest) *LoadRequest {
	return &LoadRequest{URL: u, Data: d, ch: make(chan loadResult, 1)}
}

// Wait blocks until the request is resolved. If ctx ends first the request is
// cancelled and ctx.Err() is returned.
func (s *LoadRequest) Wait(ctx context.Context) (*LoadResponse, error) {
	select {
	case r := <-s.ch:
		return r.res, r.err
	case <-ctx.Done():
		s.Cancel()
		return nil, ctx.Err()
	}
}

func (s *LoadRequest) Cancel() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.done = true
}

func (s *LoadRequest) Finished() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.done
}

func (s *LoadRequest) resolve(r loadResult) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.done {
		log.Debugf("Skip resolving abandoned request src=%v", s.URL)
		return false
	}
	s.done = true
	s.ch <- r
	return true
}

func (s *LoadRequest) fulfill(res *LoadResponse) bool {
	return s.resolve(loadResult{res: res})
}

func (s *LoadRequest) fail(err error) bool {
	return s.resolve(loadResult{err: err})
}
