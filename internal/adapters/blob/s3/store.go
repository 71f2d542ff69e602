// Package s3 implementa el port de blobs sobre S3 o compatibles (MinIO).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"med-dashboard/internal/ports/blob"
)

type Config struct {
	Bucket string
	Region string

	// Endpoint opcional: si viene, se habilita path-style addressing
	// (MinIO y similares).
	Endpoint string
}

type Store struct {
	client *s3.Client
	bucket string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load AWS config: %w", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Store{
		client: s3.NewFromConfig(awsCfg, opts...),
		bucket: cfg.Bucket,
	}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, opts blob.PutOptions) (blob.Object, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if !opts.Overwrite {
		in.IfNoneMatch = aws.String("*")
	}
	if opts.IfMatch != "" {
		in.IfMatch = aws.String(opts.IfMatch)
	}

	out, err := s.client.PutObject(ctx, in)
	if err != nil {
		if isPreconditionFailed(err) {
			return blob.Object{}, blob.ErrPreconditionFailed
		}
		return blob.Object{}, fmt.Errorf("s3: put %s: %w", key, err)
	}

	return blob.Object{
		Key:  key,
		URL:  s.objectURL(key),
		Size: int64(len(data)),
		ETag: aws.ToString(out.ETag),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, blob.Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, blob.Object{}, blob.ErrNotFound
		}
		return nil, blob.Object{}, fmt.Errorf("s3: get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, blob.Object{}, fmt.Errorf("s3: read %s: %w", key, err)
	}

	obj := blob.Object{
		Key:  key,
		URL:  s.objectURL(key),
		Size: int64(len(data)),
		ETag: aws.ToString(out.ETag),
	}
	if out.LastModified != nil {
		obj.UploadedAt = *out.LastModified
	}
	return data, obj, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]blob.Object, error) {
	out := make([]blob.Object, 0)

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list %s: %w", prefix, err)
		}
		for _, o := range page.Contents {
			obj := blob.Object{
				Key:  aws.ToString(o.Key),
				URL:  s.objectURL(aws.ToString(o.Key)),
				Size: aws.ToInt64(o.Size),
				ETag: aws.ToString(o.ETag),
			}
			if o.LastModified != nil {
				obj.UploadedAt = *o.LastModified
			}
			out = append(out, obj)
		}
	}

	return out, nil
}

func (s *Store) objectURL(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

// isPreconditionFailed detecta el rechazo de If-Match / If-None-Match
// (S3 responde 412 PreconditionFailed).
func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "PreconditionFailed"
}
