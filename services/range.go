package services

import (
	"strconv"
	"strings"
)

// parseRange turns an HTTP Range header into a DataRequest. Only single
// "bytes=a-b" and "bytes=a-" ranges are honoured. Anything else, invalid
// ranges included, is served whole and partial is false.
//
// The last byte position is taken as is, serveResource clamps it to the
// resource length once that is known.
func parseRange(h string) (d *DataRequest, partial bool) {
	full := &DataRequest{ToEnd: true}
	h = strings.TrimSpace(h)
	if !strings.HasPrefix(h, "bytes=") {
		return full, false
	}
	rs := strings.TrimSpace(strings.TrimPrefix(h, "bytes="))
	if strings.Contains(rs, ",") {
		return full, false
	}
	i := strings.Index(rs, "-")
	if i < 0 {
		return full, false
	}
	start, end := strings.TrimSpace(rs[:i]), strings.TrimSpace(rs[i+1:])
	if start == "" {
		// Suffix ranges need the total length which is unknown before fetching.
		return full, false
	}
	o, err := strconv.ParseInt(start, 10, 64)
	if err != nil || o < 0 {
		return full, false
	}
	if end == "" {
		return &DataRequest{Offset: o, ToEnd: true}, true
	}
	e, err := strconv.ParseInt(end, 10, 64)
	if err != nil || e < o {
		return full, false
	}
	return &DataRequest{Offset: o, Length: e - o + 1}, true
}
