package store

import (
	"bytes"
	"context"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vehicleml/vehicleml/internal/config"
	"github.com/vehicleml/vehicleml/internal/mlerr"
)

// S3Client implements ObjectStore using the minio-go SDK for real MinIO/S3
// connectivity. Construct once per process and share; the SDK client pools
// connections internally.
type S3Client struct {
	client *minio.Client
	region string
}

// NewS3Client creates a MinIO/S3 client from config.
func NewS3Client(cfg config.StoreConfig) (*S3Client, error) {
	if cfg.EndpointURL == "" {
		return nil, mlerr.Newf(mlerr.CodeSourceUnavailable, "store endpoint is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, mlerr.Newf(mlerr.CodeSourceUnavailable, "store credentials are required")
	}

	endpoint := cfg.EndpointURL
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.EndpointURL); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, mlerr.New(mlerr.CodeSourceUnavailable, err)
	}
	return &S3Client{client: client, region: cfg.Region}, nil
}

func (s *S3Client) Ping(ctx context.Context) error {
	if _, err := s.client.ListBuckets(ctx); err != nil {
		return mlerr.New(mlerr.CodeSourceUnavailable, err)
	}
	return nil
}

func (s *S3Client) EnsureBucket(ctx context.Context, bucket string) error {
	if bucket == "" {
		return mlerr.Newf(mlerr.CodeStore, "bucket name is required")
	}
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return classify(err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return classify(err)
	}
	return nil
}

func (s *S3Client) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if bucket == "" || key == "" {
		return mlerr.Newf(mlerr.CodeStore, "bucket and key are required")
	}
	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (s *S3Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" || key == "" {
		return nil, mlerr.Newf(mlerr.CodeStore, "bucket and key are required")
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

// classify converts minio-go errors to the shared error kinds. Bucket and
// key misses are store errors; connectivity and auth failures mean the
// service itself is unavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if resp := minio.ToErrorResponse(err); resp.Code != "" {
		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey":
			return mlerr.New(mlerr.CodeStore, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return mlerr.New(mlerr.CodeSourceUnavailable, err)
		}
	}
	return mlerr.New(mlerr.CodeSourceUnavailable, err)
}
