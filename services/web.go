package services

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

type Web struct {
	host string
	port int
	ln   net.Listener
	sp   *SessionPool
	lb   *LeakyBuffer
}

const (
	WEB_HOST_FLAG = "host"
	WEB_PORT_FLAG = "port"
)

func NewWeb(c *cli.Context, sp *SessionPool, lb *LeakyBuffer) *Web {
	return &Web{host: c.String(WEB_HOST_FLAG), port: c.Int(WEB_PORT_FLAG), sp: sp, lb: lb}
}

func RegisterWebFlags(c *cli.App) {
	c.Flags = append(c.Flags, cli.StringFlag{
		Name:  WEB_HOST_FLAG,
		Usage: "listening host",
		Value: "",
	})
	c.Flags = append(c.Flags, cli.IntFlag{
		Name:  WEB_PORT_FLAG,
		Usage: "http listening port",
		Value: 8080,
	})
}

func getSourceURL(r *http.Request) string {
	if u := r.Header.Get("X-Source-Url"); u != "" {
		return u
	}
	return r.URL.Query().Get("url")
}

func getSessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-Id"); id != "" {
		return id
	}
	return r.URL.Query().Get("session")
}

func (s *Web) Serve() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "Failed to web listen to tcp connection")
	}
	s.ln = ln
	log.Infof("Serving Web at %v", addr)
	return http.Serve(ln, s.handler())
}

func (s *Web) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", s.serveResource)
	return mux
}

func (s *Web) serveResource(w http.ResponseWriter, r *http.Request) {
	url := getSourceURL(r)
	if url == "" {
		log.Error("No source url provided")
		http.Error(w, "No source url provided", http.StatusBadRequest)
		return
	}
	d, partial := parseRange(r.Header.Get("Range"))
	var rate uint64
	if r.Header.Get("X-Download-Rate") != "" {
		var err error
		rate, err = bytefmt.ToBytes(r.Header.Get("X-Download-Rate"))
		if err != nil {
			log.WithError(err).Error("Wrong download rate")
			http.Error(w, "Wrong download rate", http.StatusBadRequest)
			return
		}
	}
	l := s.sp.Get(getSessionID(r))
	// The window is loaded up to the end and cut here, so a last byte
	// position past the end is clamped to the resource length.
	lr := NewLoadRequest(url, &DataRequest{Offset: d.Offset, ToEnd: true})
	if !l.ShouldHandle(lr) {
		log.Errorf("Unsupported source url=%v", url)
		http.Error(w, "Unsupported source url", http.StatusBadRequest)
		return
	}
	l.HandleLoadingRequest(lr)
	res, err := lr.Wait(r.Context())
	if err != nil {
		var re *RangeError
		if errors.As(err, &re) {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", re.Size))
			http.Error(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
			return
		}
		if r.Context().Err() != nil {
			log.Debugf("Client went away url=%v", url)
			return
		}
		log.WithError(err).Errorf("Failed to load url=%v", url)
		http.Error(w, "Failed to load resource", http.StatusBadGateway)
		return
	}
	if partial && len(res.Data) == 0 {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", res.Info.ContentLength))
		http.Error(w, "Range starts at the end of resource", http.StatusRequestedRangeNotSatisfiable)
		return
	}
	data := res.Data
	if !d.ToEnd && d.Length < int64(len(data)) {
		data = data[:d.Length]
	}
	h := w.Header()
	h.Set("Content-Type", res.Info.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	if res.Info.ByteRangeAccessSupported {
		h.Set("Accept-Ranges", "bytes")
	} else {
		h.Set("Accept-Ranges", "none")
	}
	if partial {
		end := d.Offset + int64(len(data)) - 1
		h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", d.Offset, end, res.Info.ContentLength))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if r.Method == http.MethodHead {
		return
	}
	var rd io.Reader = bytes.NewReader(data)
	rd = NewThrottledReader(rd, rate)
	if _, err := s.lb.Copy(w, rd); err != nil {
		log.WithError(err).Warnf("Failed to write response url=%v", url)
	}
}

func (s *Web) Close() {
	if s.ln != nil {
		s.ln.Close()
	}
	if s.sp != nil {
		s.sp.Close()
	}
}
