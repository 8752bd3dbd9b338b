package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxWordlistBytes bounds how much of a wordlist object is read.
const MaxWordlistBytes = 4 << 20

var ErrEmptyWordlist = errors.New("s3: wordlist object has no entries")

// ObjectAPI is the slice of the S3 client this package uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Client struct {
	api    ObjectAPI
	Bucket string
}

// NewClient initializes an S3-compatible client from AWS_ENDPOINT, AWS_REGION,
// AWS_BUCKET and static credentials. A blank AWS_ENDPOINT means AWS itself.
func NewClient(ctx context.Context) (*Client, error) {
	endpoint := os.Getenv("AWS_ENDPOINT")

	creds := credentials.NewStaticCredentialsProvider(
		os.Getenv("AWS_ACCESS_KEY_ID"),
		os.Getenv("AWS_SECRET_ACCESS_KEY"),
		"",
	)

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(os.Getenv("AWS_REGION")),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = os.Getenv("AWS_PATH_STYLE") == "1"
	})

	return NewWithAPI(client, os.Getenv("AWS_BUCKET")), nil
}

func NewWithAPI(api ObjectAPI, bucket string) *Client {
	return &Client{api: api, Bucket: bucket}
}

// LoadWordlist fetches objectKey and parses it as a wordlist: one entry per line,
// '#' comments and blank lines skipped, order kept.
func (c *Client) LoadWordlist(ctx context.Context, objectKey string) ([]string, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: get object %s: %w", objectKey, err)
	}
	defer out.Body.Close()

	words, err := password.ParseWordlist(io.LimitReader(out.Body, MaxWordlistBytes))
	if err != nil {
		return nil, fmt.Errorf("s3: parse wordlist %s: %w", objectKey, err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyWordlist
	}
	return words, nil
}
