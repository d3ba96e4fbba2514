package publisher

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"autonomous_spa_agent/config"
)

// Mirror receives a copy of every published file.
type Mirror interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
}

// S3Mirror uploads to an S3-compatible bucket.
type S3Mirror struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

func NewS3Mirror(cfg config.MirrorConfig) (*S3Mirror, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("mirror endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("mirror access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("mirror bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init mirror client: %w", err)
	}
	return &S3Mirror{client: client, bucket: bucket, region: region}, nil
}

func (m *S3Mirror) ensureBucket(ctx context.Context) error {
	m.initOnce.Do(func() {
		exists, err := m.client.BucketExists(ctx, m.bucket)
		if err != nil {
			m.initErr = err
			return
		}
		if exists {
			return
		}
		m.initErr = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region})
	})
	return m.initErr
}

func (m *S3Mirror) Put(ctx context.Context, key string, content []byte, contentType string) error {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return fmt.Errorf("object key is required")
	}
	if err := m.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}
