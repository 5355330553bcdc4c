package services

import "io"

// LeakyBuffer recycles copy buffers. Buffers are allocated when the pool is
// empty and dropped when it is full.
type LeakyBuffer struct {
	c    chan []byte
	size int64
}

func NewLeakyBuffer(size int, bufSize int64) *LeakyBuffer {
	return &LeakyBuffer{c: make(chan []byte, size), size: bufSize}
}

func (s *LeakyBuffer) Get() []byte {
	select {
	case b := <-s.c:
		return b
	default:
		return make([]byte, s.size)
	}
}

func (s *LeakyBuffer) Put(b []byte) {
	if int64(cap(b)) != s.size {
		return
	}
	select {
	case s.c <- b[:s.size]:
	default:
	}
}

// Copy copies r to w through a pooled buffer. w is wrapped so that
// io.ReaderFrom implementations do not bypass the buffer.
func (s *LeakyBuffer) Copy(w io.Writer, r io.Reader) (int64, error) {
	buf := s.Get()
	defer s.Put(buf)
	return io.CopyBuffer(struct{ io.Writer }{w}, r, buf)
}
