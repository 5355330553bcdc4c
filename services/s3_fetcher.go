package services

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// S3Fetcher serves s3://bucket/key resources.
type S3Fetcher struct {
	cl *S3Client
}

func NewS3Fetcher(cl *S3Client) *S3Fetcher {
	return &S3Fetcher{cl: cl}
}

func (s *S3Fetcher) Fetch(ctx context.Context, u string, h http.Header) ([]byte, error) {
	t := time.Now()
	pu, err := url.Parse(u)
	if err != nil {
		return nil, newFetchError(FetchErrorTransport, u, errors.Wrap(err, "Failed to parse url"))
	}
	bucket := pu.Host
	key := strings.TrimPrefix(pu.Path, "/")
	if bucket == "" || key == "" {
		return nil, newFetchError(FetchErrorTransport, u, errors.Errorf("Failed to get bucket and key from url=%v", u))
	}
	log.Debugf("Start fetching s3 object key=%v bucket=%v", key, bucket)
	cl, err := s.cl.Get()
	if err != nil {
		return nil, newFetchError(FetchErrorTransport, u, err)
	}
	req, out := cl.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)
	// Runs after the SDK build handlers so the caller's User-Agent wins.
	req.Handlers.Build.PushBack(func(r *request.Request) {
		for k, v := range h {
			if http.CanonicalHeaderKey(k) == "Range" {
				continue
			}
			r.HTTPRequest.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	})
	err = req.Send()
	if err != nil {
		if rf, ok := err.(awserr.RequestFailure); ok {
			return nil, newStatusError(u, rf.StatusCode())
		}
		return nil, newFetchError(FetchErrorTransport, u, err)
	}
	if out.Body == nil {
		return nil, newFetchError(FetchErrorEmptyBody, u, nil)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, newFetchError(FetchErrorTransport, u, errors.Wrap(err, "Failed to read body"))
	}
	if len(data) == 0 {
		return nil, newFetchError(FetchErrorEmptyBody, u, nil)
	}
	log.Debugf("Finish fetching s3 object key=%v bucket=%v size=%v time=%v", key, bucket, bytefmt.ByteSize(uint64(len(data))), time.Since(t))
	return data, nil
}
