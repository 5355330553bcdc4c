package services

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// S3Config addresses the object store behind s3:// resources.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Region          string
}

// S3Client builds its session on first use and keeps the outcome.
type S3Client struct {
	cfg  S3Config
	once sync.Once
	cl   *s3.S3
	err  error
}

const (
	AWS_ACCESS_KEY_ID     = "aws-access-key-id"
	AWS_SECRET_ACCESS_KEY = "aws-secret-access-key"
	AWS_ENDPOINT          = "aws-endpoint"
	AWS_REGION            = "aws-region"
)

func RegisterS3ClientFlags(c *cli.App) {
	c.Flags = append(c.Flags, cli.StringFlag{
		Name:   AWS_ACCESS_KEY_ID,
		Usage:  "AWS Access Key ID",
		Value:  "",
		EnvVar: "AWS_ACCESS_KEY_ID",
	})
	c.Flags = append(c.Flags, cli.StringFlag{
		Name:   AWS_SECRET_ACCESS_KEY,
		Usage:  "AWS Secret Access Key",
		Value:  "",
		EnvVar: "AWS_SECRET_ACCESS_KEY",
	})
	c.Flags = append(c.Flags, cli.StringFlag{
		Name:   AWS_ENDPOINT,
		Usage:  "AWS Endpoint",
		Value:  "",
		EnvVar: "AWS_ENDPOINT",
	})
	c.Flags = append(c.Flags, cli.StringFlag{
		Name:   AWS_REGION,
		Usage:  "AWS Region",
		Value:  "us-east-1",
		EnvVar: "AWS_REGION",
	})
}

func NewS3Client(c *cli.Context) *S3Client {
	return newS3Client(S3Config{
		AccessKeyID:     c.String(AWS_ACCESS_KEY_ID),
		SecretAccessKey: c.String(AWS_SECRET_ACCESS_KEY),
		Endpoint:        c.String(AWS_ENDPOINT),
		Region:          c.String(AWS_REGION),
	})
}

func newS3Client(cfg S3Config) *S3Client {
	return &S3Client{cfg: cfg}
}

func (s *S3Client) Get() (*s3.S3, error) {
	s.once.Do(func() {
		s.cl, s.err = s.connect()
		if s.err != nil {
			log.WithError(s.err).Errorf("Failed to initialize S3 endpoint=%v region=%v", s.cfg.Endpoint, s.cfg.Region)
		}
	})
	return s.cl, s.err
}

func (s *S3Client) connect() (*s3.S3, error) {
	log.Infof("Initializing S3 endpoint=%v region=%v", s.cfg.Endpoint, s.cfg.Region)
	c := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(s.cfg.AccessKeyID, s.cfg.SecretAccessKey, ""),
		Region:           aws.String(s.cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
		MaxRetries:       aws.Int(0),
	}
	if s.cfg.Endpoint != "" {
		c.Endpoint = aws.String(s.cfg.Endpoint)
	}
	sess, err := session.NewSession(c)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create S3 session")
	}
	return s3.New(sess), nil
}
