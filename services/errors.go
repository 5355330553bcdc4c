package services

import (
	"fmt"

	"github.com/pkg/errors"
)

type FetchErrorKind int

const (
	FetchErrorTransport FetchErrorKind = iota
	FetchErrorEmptyBody
	FetchErrorMalformed
	FetchErrorUnexpectedStatus
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchErrorTransport:
		return "transport"
	case FetchErrorEmptyBody:
		return "empty body"
	case FetchErrorMalformed:
		return "malformed response"
	case FetchErrorUnexpectedStatus:
		return "unexpected status"
	}
	return "unknown"
}

// FetchError is returned by every Fetcher. The loader treats all kinds the
// same way: no buffer is produced and nothing is cached.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("Failed to fetch src=%v: %v", e.URL, e.Kind)
	if e.Kind == FetchErrorUnexpectedStatus {
		msg = fmt.Sprintf("%v code=%v", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Cause() error {
	return e.Err
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(kind FetchErrorKind, u string, err error) *FetchError {
	return &FetchError{Kind: kind, URL: u, Err: err}
}

func newStatusError(u string, code int) *FetchError {
	return &FetchError{Kind: FetchErrorUnexpectedStatus, URL: u, StatusCode: code}
}

var ErrRangeOutOfBounds = errors.New("Requested range is out of bounds")

// RangeError is a request-level failure: the fetch succeeded but the
// requested window does not fit into the buffer.
type RangeError struct {
	Offset int64
	Length int64
	ToEnd  bool
	Size   int64
}

func (e *RangeError) Error() string {
	if e.ToEnd {
		return fmt.Sprintf("%v offset=%v size=%v", ErrRangeOutOfBounds, e.Offset, e.Size)
	}
	return fmt.Sprintf("%v offset=%v length=%v size=%v", ErrRangeOutOfBounds, e.Offset, e.Length, e.Size)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrRangeOutOfBounds
}
