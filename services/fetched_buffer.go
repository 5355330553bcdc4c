package services

// FetchedBuffer is the complete body of a resource. It is never written to
// after construction.
type FetchedBuffer struct {
	data        []byte
	contentType string
}

func NewFetchedBuffer(data []byte, contentType string) *FetchedBuffer {
	return &FetchedBuffer{data: data, contentType: contentType}
}

func (s *FetchedBuffer) Len() int64 {
	return int64(len(s.data))
}

func (s *FetchedBuffer) ContentType() string {
	return s.contentType
}

func (s *FetchedBuffer) Info() ContentInfo {
	return ContentInfo{
		ContentType:              s.contentType,
		ContentLength:            s.Len(),
		ByteRangeAccessSupported: false,
	}
}

// Slice returns the window described by d. The result shares memory with
// the buffer and must not be modified.
func (s *FetchedBuffer) Slice(d *DataRequest) ([]byte, error) {
	size := s.Len()
	re := &RangeError{Offset: d.Offset, Length: d.Length, ToEnd: d.ToEnd, Size: size}
	if d.Offset < 0 || d.Offset > size {
		return nil, re
	}
	if d.ToEnd {
		return s.data[d.Offset:size:size], nil
	}
	if d.Length < 0 || d.Length > size-d.Offset {
		return nil, re
	}
	end := d.Offset + d.Length
	return s.data[d.Offset:end:end], nil
}
