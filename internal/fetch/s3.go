package fetch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source serves s3://bucket/key URLs with ranged GetObject calls.
type S3Source struct {
	Client S3API
}

func NewS3Source(ctx context.Context, profile string) (*S3Source, error) {
	opts := []func(*config.LoadOptions) error{config.WithRetryMode(aws.RetryModeAdaptive)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	return &S3Source{Client: s3.NewFromConfig(cfg)}, nil
}

func (s *S3Source) Open(ctx context.Context, rawURL string, offset int64) (io.ReadCloser, int64, error) {
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: err}
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if offset > 0 {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-", offset))
	}
	out, err := s.Client.GetObject(ctx, input)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: fmt.Errorf("error getting object: %w", err)}
	}
	if offset == 0 {
		return out.Body, 0, nil
	}
	if out.ContentRange == nil {
		log.Debug().Str("op", "fetch/s3").Msgf("s3://%s/%s returned the whole object for a range request", bucket, key)
		return out.Body, 0, nil
	}
	start, err := contentRangeStart(aws.ToString(out.ContentRange))
	if err != nil || start != offset {
		out.Body.Close()
		return nil, 0, &TransportError{URL: rawURL, Err: fmt.Errorf("unexpected content range %q for offset %d", aws.ToString(out.ContentRange), offset)}
	}
	return out.Body, offset, nil
}

func parseS3URL(rawURL string) (string, string, error) {
	rest, ok := strings.CutPrefix(rawURL, "s3://")
	if !ok {
		return "", "", fmt.Errorf("invalid S3 URL format: %s", rawURL)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid S3 URL format: %s", rawURL)
	}
	return bucket, key, nil
}
