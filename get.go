package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	s "github.com/webtor-io/resource-loader/services"
)

const (
	GET_OFFSET_FLAG = "offset"
	GET_LENGTH_FLAG = "length"
)

func configureGet(app *cli.App) {
	app.Commands = append(app.Commands, cli.Command{
		Name:      "get",
		Usage:     "Loads a byte window of a resource and writes it to stdout",
		ArgsUsage: "URL",
		Flags: []cli.Flag{
			cli.Int64Flag{
				Name:  GET_OFFSET_FLAG,
				Usage: "first byte of the window",
				Value: 0,
			},
			cli.Int64Flag{
				Name:  GET_LENGTH_FLAG,
				Usage: "window length, negative means up to the end",
				Value: -1,
			},
		},
		Action: get,
	})
}

func get(c *cli.Context) error {
	u := c.Args().First()
	if u == "" {
		return errors.New("No resource url provided")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	l := s.NewResourceLoader(ctx, newOrigin(c), c.GlobalString(s.USER_AGENT_FLAG))
	defer l.Close()

	d := &s.DataRequest{Offset: c.Int64(GET_OFFSET_FLAG), ToEnd: true}
	if c.Int64(GET_LENGTH_FLAG) >= 0 {
		d.Length = c.Int64(GET_LENGTH_FLAG)
		d.ToEnd = false
	}
	r := s.NewLoadRequest(u, d)
	if !l.ShouldHandle(r) {
		return errors.Errorf("Unsupported resource url=%v", u)
	}
	l.HandleLoadingRequest(r)
	res, err := r.Wait(ctx)
	if err != nil {
		return errors.Wrapf(err, "Failed to load resource url=%v", u)
	}
	log.Infof("Loaded window offset=%v size=%v content-length=%v content-type=%v",
		d.Offset, len(res.Data), res.Info.ContentLength, res.Info.ContentType)
	_, err = os.Stdout.Write(res.Data)
	return err
}
