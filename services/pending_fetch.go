package services

import "time"

// PendingFetch collects the requests waiting on one in-flight fetch. It is
// only touched under the owning loader's lock.
type PendingFetch struct {
	url     string
	waiters []*LoadRequest
	started time.Time
}

func NewPendingFetch(u string) *PendingFetch {
	return &PendingFetch{url: u, started: time.Now()}
}

func (s *PendingFetch) Add(r *LoadRequest) {
	s.waiters = append(s.waiters, r)
}

func (s *PendingFetch) Waiters() []*LoadRequest {
	return s.waiters
}
