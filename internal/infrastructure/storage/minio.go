package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
	"github.com/hszk-dev/vidvault/internal/infrastructure/metrics"
)

// minioClient defines the subset of MinIO operations the gateway uses.
// *minio.Client satisfies it directly.
type minioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

var _ minioClient = (*minio.Client)(nil)

// ClientConfig holds configuration for the MinIO client.
type ClientConfig struct {
	Endpoint       string
	PublicEndpoint string // Optional: external-facing endpoint for presigned URLs
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	PresignExpiry  time.Duration
}

// Client wraps a MinIO client and implements repository.StorageGateway.
type Client struct {
	client          minioClient
	presignedClient minioClient // Separate client for presigned URLs (may use public endpoint)
	bucket          string
	presignExpiry   time.Duration
}

var _ repository.StorageGateway = (*Client)(nil)

// NewClient creates a new MinIO client.
// It verifies the bucket exists during initialization to fail fast on misconfiguration.
// If PublicEndpoint is set, a separate client is created for presigned URL generation.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	var presigned minioClient = client
	if cfg.PublicEndpoint != "" {
		presignedClient, err := minio.New(cfg.PublicEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create presigned minio client: %w", err)
		}
		presigned = presignedClient
	}

	return newClientWithMinioClient(ctx, client, presigned, cfg.Bucket, cfg.PresignExpiry)
}

// newClientWithMinioClient creates a Client with a given minioClient implementation.
// This is used for dependency injection in tests.
func newClientWithMinioClient(ctx context.Context, client, presignedClient minioClient, bucket string, presignExpiry time.Duration) (*Client, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", repository.ErrBucketNotFound, bucket)
	}

	return &Client{
		client:          client,
		presignedClient: presignedClient,
		bucket:          bucket,
		presignExpiry:   presignExpiry,
	}, nil
}

// Upload stores an object under directory/filename and returns its descriptor.
// The object is stat'ed after the put so ModifiedAt matches later listings.
func (c *Client) Upload(ctx context.Context, obj repository.UploadObject) (rf *model.RemoteFile, err error) {
	defer func() { observe(metrics.StorageOpUpload, err) }()

	key := objectKey(obj.Directory, obj.FileName)
	if _, err := c.client.PutObject(ctx, c.bucket, key, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
	}); err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	info, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat uploaded object: %w", err)
	}

	f := toRemoteFile(info)
	return &f, nil
}

// List returns every object directly inside directory.
func (c *Client) List(ctx context.Context, directory string) (files []model.RemoteFile, err error) {
	defer func() { observe(metrics.StorageOpList, err) }()

	prefix := dirKey(directory)
	if prefix != "" {
		prefix += "/"
	}

	objects := c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})

	files = []model.RemoteFile{}
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		// Non-recursive listings report sub-directories as keys ending in "/".
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		files = append(files, toRemoteFile(obj))
	}
	return files, nil
}

// ResolveURL returns a presigned GET URL for the object encoded in fileID.
// Uses presignedClient which may be configured with a public endpoint.
func (c *Client) ResolveURL(ctx context.Context, fileID string) (u string, err error) {
	defer func() { observe(metrics.StorageOpResolveURL, err) }()

	key, err := DecodeFileID(fileID)
	if err != nil {
		return "", err
	}

	if _, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return "", repository.ErrObjectNotFound
		}
		return "", fmt.Errorf("failed to stat object: %w", err)
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-type", model.MimeTypeFor(key))
	presignedURL, err := c.presignedClient.PresignedGetObject(ctx, c.bucket, key, c.presignExpiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return presignedURL.String(), nil
}

// Delete removes the object stored at p ("/videos/clip.mp4").
func (c *Client) Delete(ctx context.Context, p string) (err error) {
	defer func() { observe(metrics.StorageOpDelete, err) }()

	key := dirKey(p)
	if key == "" {
		return repository.ErrObjectNotFound
	}

	// RemoveObject succeeds for missing keys, so check first.
	if _, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return repository.ErrObjectNotFound
		}
		return fmt.Errorf("failed to stat object: %w", err)
	}

	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Ping verifies the MinIO connection is alive by checking bucket access.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to ping minio: %w", err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// EncodeFileID turns an object key into a URL-path-safe file id.
func EncodeFileID(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeFileID reverses EncodeFileID.
func DecodeFileID(id string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: %q", repository.ErrInvalidFileID, id)
	}
	return string(raw), nil
}

// dirKey normalizes a slash-rooted remote path into a bucket key without the
// leading slash. "/" and "" both map to the bucket root.
func dirKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// objectKey builds the key for filename inside directory. Only the base name
// of filename is kept.
func objectKey(directory, filename string) string {
	return path.Join(dirKey(directory), path.Base("/"+filename))
}

func toRemoteFile(info minio.ObjectInfo) model.RemoteFile {
	return model.RemoteFile{
		FileID:     EncodeFileID(info.Key),
		Path:       "/" + info.Key,
		Name:       path.Base(info.Key),
		Size:       info.Size,
		ModifiedAt: info.LastModified,
	}
}

func isNotFound(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func observe(op string, err error) {
	status := metrics.StorageStatusSuccess
	if err != nil {
		status = metrics.StorageStatusError
	}
	metrics.StorageOperationsTotal.WithLabelValues(op, status).Inc()
}
