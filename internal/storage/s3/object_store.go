package s3

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	GetTTL          time.Duration
	PutTTL          time.Duration
}

// ObjectStore hands out presigned URLs for uploaded files and texts. The
// service never proxies object bytes.
type ObjectStore struct {
	presign *s3.PresignClient
	bucket  string
	getTTL  time.Duration
	putTTL  time.Duration
}

func NewObjectStore(ctx context.Context, cfg Config) (*ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}
	if cfg.GetTTL <= 0 {
		cfg.GetTTL = 15 * time.Minute
	}
	if cfg.PutTTL <= 0 {
		cfg.PutTTL = 10 * time.Minute
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info("object storage initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region),
		zap.String("endpoint", cfg.Endpoint),
	)

	return &ObjectStore{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		getTTL:  cfg.GetTTL,
		putTTL:  cfg.PutTTL,
	}, nil
}

func (s *ObjectStore) PresignGet(ctx context.Context, req links.ObjectRequest) (string, error) {
	in := &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(req.Key),
		ResponseContentDisposition: aws.String(contentDisposition(req.FileName, req.Inline)),
	}
	if req.ContentType != "" {
		in.ResponseContentType = aws.String(req.ContentType)
	}

	out, err := s.presign.PresignGetObject(ctx, in, s3.WithPresignExpires(s.getTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign get: %w", err)
	}
	return out.URL, nil
}

func (s *ObjectStore) PresignPut(ctx context.Context, key, contentType string) (string, time.Duration, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	out, err := s.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(s.putTTL))
	if err != nil {
		return "", 0, fmt.Errorf("failed to presign put: %w", err)
	}
	return out.URL, s.putTTL, nil
}

func contentDisposition(fileName string, inline bool) string {
	kind := "attachment"
	if inline {
		kind = "inline"
	}

	name := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, fileName)
	if name == "" {
		return kind
	}
	return fmt.Sprintf(`%s; filename="%s"`, kind, name)
}
