package services

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"github.com/webtor-io/lazymap"
)

const (
	USER_AGENT_FLAG       = "user-agent"
	SESSION_TTL_FLAG      = "session-ttl"
	SESSION_CAPACITY_FLAG = "session-capacity"
	DEFAULT_SESSION       = "default"
)

func RegisterSessionPoolFlags(c *cli.App) {
	c.Flags = append(c.Flags, cli.StringFlag{
		Name:   USER_AGENT_FLAG,
		Usage:  "User-Agent sent to the origin",
		Value:  "resource-loader/0.0.1",
		EnvVar: "USER_AGENT",
	})
	c.Flags = append(c.Flags, cli.DurationFlag{
		Name:   SESSION_TTL_FLAG,
		Usage:  "how long a playback session keeps its loaded resources",
		Value:  10 * time.Minute,
		EnvVar: "SESSION_TTL",
	})
	c.Flags = append(c.Flags, cli.IntFlag{
		Name:   SESSION_CAPACITY_FLAG,
		Usage:  "maximum number of playback sessions kept at once",
		Value:  100,
		EnvVar: "SESSION_CAPACITY",
	})
}

// SessionPool hands every playback session its own ResourceLoader.
// lazymap drops a session ttl after it was created and a loader lives
// for ttl plus sessionGrace, so fetches of dropped sessions get aborted.
type SessionPool struct {
	lazymap.LazyMap
	f      Fetcher
	ua     string
	ttl    time.Duration
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSessionPool(c *cli.Context, f Fetcher) *SessionPool {
	return newSessionPool(f, c.String(USER_AGENT_FLAG), c.Duration(SESSION_TTL_FLAG), c.Int(SESSION_CAPACITY_FLAG))
}

func newSessionPool(f Fetcher, ua string, ttl time.Duration, capacity int) *SessionPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionPool{
		LazyMap: lazymap.New(&lazymap.Config{
			Expire:   ttl,
			Capacity: capacity,
		}),
		f:      f,
		ua:     ua,
		ttl:    ttl,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *SessionPool) Get(id string) *ResourceLoader {
	if id == "" {
		id = DEFAULT_SESSION
	}
	v, _ := s.LazyMap.Get(id, func() (interface{}, error) {
		log.Infof("New playback session id=%v", id)
		return s.newLoader(), nil
	})
	return v.(*ResourceLoader)
}

func sessionGrace(ttl time.Duration) time.Duration {
	g := ttl / 2
	if g > time.Minute {
		g = time.Minute
	}
	return g
}

func (s *SessionPool) newLoader() *ResourceLoader {
	if s.ttl <= 0 {
		return NewResourceLoader(s.ctx, s.f, s.ua)
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.ttl+sessionGrace(s.ttl))
	return newResourceLoader(ctx, cancel, s.f, s.ua)
}

// Close aborts fetches of every session created by the pool.
func (s *SessionPool) Close() {
	s.cancel()
}
