package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"videotube/internal/config"
	"videotube/internal/ids"
)

var ErrUploadTimeout = errors.New("media upload timed out")

type UploadResult struct {
	URL string
	Key string
}

type ObjectStore struct {
	client  *minio.Client
	cfg     config.StorageConfig
	timeout time.Duration
}

func NewObjectStore(cfg config.StorageConfig, uploadTimeout time.Duration) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client:  client,
		cfg:     cfg,
		timeout: uploadTimeout,
	}, nil
}

// EnsureBucket creates the media bucket and opens it for anonymous reads so
// returned URLs are directly fetchable.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	bucket := s.cfg.BucketMedia
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
	if err := s.client.SetBucketPolicy(ctx, bucket, policy); err != nil {
		return fmt.Errorf("set bucket policy %s: %w", bucket, err)
	}
	return nil
}

// Upload puts the file at localPath under prefix. It gives up after the
// configured timeout; the local file is left for the caller to remove.
func (s *ObjectStore) Upload(ctx context.Context, localPath, prefix, ext, contentType string) (UploadResult, error) {
	if localPath == "" {
		return UploadResult{}, errors.New("empty file path")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	key := ObjectKey(prefix, ext, time.Now())
	_, err := s.client.FPutObject(ctx, s.cfg.BucketMedia, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return UploadResult{}, fmt.Errorf("%w: %s", ErrUploadTimeout, key)
		}
		return UploadResult{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return UploadResult{
		URL: PublicURL(s.baseURL(), s.cfg.BucketMedia, key),
		Key: key,
	}, nil
}

func (s *ObjectStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.BucketMedia, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.BucketMedia)
	return err
}

func (s *ObjectStore) baseURL() string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL
	}
	if strings.HasPrefix(s.cfg.Endpoint, "http://") || strings.HasPrefix(s.cfg.Endpoint, "https://") {
		return s.cfg.Endpoint
	}
	if s.cfg.UseSSL {
		return "https://" + s.cfg.Endpoint
	}
	return "http://" + s.cfg.Endpoint
}

// ObjectKey lays objects out as <prefix>/yyyy/mm/dd/<id>.<ext>.
func ObjectKey(prefix, ext string, now time.Time) string {
	name := ids.New()
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return path.Join(prefix, now.UTC().Format("2006/01/02"), name)
}

func PublicURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(base, "/"), bucket, key)
}
