package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3API is the subset of the S3 client used by S3Fetcher.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds explicit construction parameters. Credentials come from the
// default AWS chain.
type S3Config struct {
	Region    string
	Endpoint  string // optional; e.g. a MinIO URL
	PathStyle bool
}

// S3Fetcher reads s3://bucket/key URLs.
type S3Fetcher struct {
	Client S3API
}

// NewS3Fetcher builds a client from the default AWS config chain.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Fetcher{Client: client}, nil
}

// Fetch downloads the object. Headers are added to the signed request.
func (f *S3Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	bucket, key, err := ParseS3URL(rawURL)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, StatusCode: http.StatusBadRequest, Err: err}
	}

	var optFns []func(*s3.Options)
	if len(headers) > 0 {
		optFns = append(optFns, func(o *s3.Options) {
			for k, v := range headers {
				o.APIOptions = append(o.APIOptions, smithyhttp.AddHeaderValue(k, v))
			}
		})
	}

	out, err := f.Client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key}, optFns...)
	if err != nil {
		nerr := &NetworkError{URL: rawURL, Err: err}
		var re *awshttp.ResponseError
		if errors.As(err, &re) {
			nerr.StatusCode = re.HTTPStatusCode()
		}
		return nil, nerr
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	return data, nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("not an s3 url: %q", rawURL)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 url needs bucket and key: %q", rawURL)
	}
	return u.Host, key, nil
}
