package main

import (
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"
	s "github.com/webtor-io/resource-loader/services"
)

const (
	DEBUG_FLAG = "debug"
)

func configure(app *cli.App) {
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:   DEBUG_FLAG,
			Usage:  "enable debug logging",
			EnvVar: "DEBUG",
		},
	}
	cs.RegisterProbeFlags(app)
	s.RegisterS3ClientFlags(app)
	s.RegisterSessionPoolFlags(app)
	s.RegisterWebFlags(app)
	app.Before = before
	app.Action = run
	configureGet(app)
}

func before(c *cli.Context) error {
	if c.GlobalBool(DEBUG_FLAG) {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

func newOrigin(c *cli.Context) *s.Origin {
	// Setting HTTP Client
	myTransport := &http.Transport{
		Dial: (&net.Dialer{
			Timeout: 5 * time.Minute,
		}).Dial,
	}
	cl := &http.Client{
		Timeout:   5 * time.Minute,
		Transport: myTransport,
	}

	// Setting HTTP Fetcher
	hf := s.NewHTTPFetcher(cl, http.Header{
		"Accept": []string{"*/*"},
	})

	// Setting S3 Fetcher
	s3f := s.NewS3Fetcher(s.NewS3Client(c))

	return s.NewOrigin(hf, s3f)
}

func run(c *cli.Context) error {
	// Setting Origin
	o := newOrigin(c)

	// Setting Session Pool
	sp := s.NewSessionPool(c, o)

	lb := s.NewLeakyBuffer(100, 32*1024)

	// Setting ProbeService
	probe := cs.NewProbe(c)
	defer probe.Close()

	// Setting WebService
	web := s.NewWeb(c, sp, lb)
	defer web.Close()

	// Setting ServeService
	serve := cs.NewServe(probe, web)

	// And SERVE!
	err := serve.Serve()
	if err != nil {
		log.WithError(err).Error("Got server error")
	}
	return nil
}
