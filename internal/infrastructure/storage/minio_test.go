package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/hszk-dev/vidvault/internal/domain/repository"
)

// mockMinioClient implements minioClient interface for testing.
type mockMinioClient struct {
	bucketExistsFunc       func(ctx context.Context, bucketName string) (bool, error)
	presignedGetObjectFunc func(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	putObjectFunc          func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	removeObjectFunc       func(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	statObjectFunc         func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	listObjectsFunc        func(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

func (m *mockMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	if m.bucketExistsFunc != nil {
		return m.bucketExistsFunc(ctx, bucketName)
	}
	return true, nil
}

func (m *mockMinioClient) PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
	if m.presignedGetObjectFunc != nil {
		return m.presignedGetObjectFunc(ctx, bucketName, objectName, expiry, reqParams)
	}
	return nil, nil
}

func (m *mockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, bucketName, objectName, reader, objectSize, opts)
	}
	return minio.UploadInfo{}, nil
}

func (m *mockMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	if m.removeObjectFunc != nil {
		return m.removeObjectFunc(ctx, bucketName, objectName, opts)
	}
	return nil
}

func (m *mockMinioClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if m.statObjectFunc != nil {
		return m.statObjectFunc(ctx, bucketName, objectName, opts)
	}
	return minio.ObjectInfo{Key: objectName}, nil
}

func (m *mockMinioClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	if m.listObjectsFunc != nil {
		return m.listObjectsFunc(ctx, bucketName, opts)
	}
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

func objectsChan(objs ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(objs))
	for _, o := range objs {
		ch <- o
	}
	close(ch)
	return ch
}

var errNoSuchKey = minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}

func TestNewClientWithMinioClient(t *testing.T) {
	tests := []struct {
		name       string
		bucket     string
		mockClient *mockMinioClient
		wantErr    error
	}{
		{
			name:   "successful initialization",
			bucket: "test-bucket",
			mockClient: &mockMinioClient{
				bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
					return true, nil
				},
			},
			wantErr: nil,
		},
		{
			name:   "bucket does not exist",
			bucket: "non-existent-bucket",
			mockClient: &mockMinioClient{
				bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
					return false, nil
				},
			},
			wantErr: repository.ErrBucketNotFound,
		},
		{
			name:   "bucket check error",
			bucket: "test-bucket",
			mockClient: &mockMinioClient{
				bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
					return false, errors.New("connection refused")
				},
			},
			wantErr: errors.New("failed to check bucket existence"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newClientWithMinioClient(context.Background(), tt.mockClient, tt.mockClient, tt.bucket, time.Hour)

			if tt.wantErr != nil {
				if err == nil {
					t.Errorf("newClientWithMinioClient() expected error, got nil")
					return
				}
				if !errors.Is(err, tt.wantErr) && !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Errorf("newClientWithMinioClient() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("newClientWithMinioClient() unexpected error = %v", err)
				return
			}

			if client.Bucket() != tt.bucket {
				t.Errorf("client.Bucket() = %v, want %v", client.Bucket(), tt.bucket)
			}
		})
	}
}

func TestClient_Upload(t *testing.T) {
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		obj         repository.UploadObject
		mockClient  *mockMinioClient
		wantKey     string
		wantErr     bool
		errContains string
	}{
		{
			name: "successful upload",
			obj: repository.UploadObject{
				Directory:   "/videos",
				FileName:    "clip.mp4",
				ContentType: "video/mp4",
				Size:        4,
				Body:        bytes.NewReader([]byte("data")),
			},
			mockClient: &mockMinioClient{
				putObjectFunc: func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
					if objectName != "videos/clip.mp4" {
						t.Errorf("objectName = %v, want %v", objectName, "videos/clip.mp4")
					}
					if objectSize != 4 {
						t.Errorf("objectSize = %v, want %v", objectSize, 4)
					}
					if opts.ContentType != "video/mp4" {
						t.Errorf("ContentType = %v, want %v", opts.ContentType, "video/mp4")
					}
					return minio.UploadInfo{Key: objectName}, nil
				},
				statObjectFunc: func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
					return minio.ObjectInfo{Key: objectName, Size: 4, LastModified: modified}, nil
				},
			},
			wantKey: "videos/clip.mp4",
		},
		{
			name: "file name path components are stripped",
			obj: repository.UploadObject{
				Directory: "/videos/../movies/",
				FileName:  "../../etc/clip.mp4",
				Body:      bytes.NewReader(nil),
			},
			mockClient: &mockMinioClient{
				putObjectFunc: func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
					if objectName != "movies/clip.mp4" {
						t.Errorf("objectName = %v, want %v", objectName, "movies/clip.mp4")
					}
					return minio.UploadInfo{}, nil
				},
			},
			wantKey: "movies/clip.mp4",
		},
		{
			name: "root directory",
			obj: repository.UploadObject{
				Directory: "/",
				FileName:  "clip.mp4",
				Body:      bytes.NewReader(nil),
			},
			mockClient: &mockMinioClient{},
			wantKey:    "clip.mp4",
		},
		{
			name: "put error",
			obj: repository.UploadObject{
				Directory: "/videos",
				FileName:  "clip.mp4",
				Body:      bytes.NewReader(nil),
			},
			mockClient: &mockMinioClient{
				putObjectFunc: func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
					return minio.UploadInfo{}, errors.New("network error")
				},
			},
			wantErr:     true,
			errContains: "failed to upload object",
		},
		{
			name: "stat after put error",
			obj: repository.UploadObject{
				Directory: "/videos",
				FileName:  "clip.mp4",
				Body:      bytes.NewReader(nil),
			},
			mockClient: &mockMinioClient{
				statObjectFunc: func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
					return minio.ObjectInfo{}, errors.New("timeout")
				},
			},
			wantErr:     true,
			errContains: "failed to stat uploaded object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{client: tt.mockClient, presignedClient: tt.mockClient, bucket: "videos"}

			got, err := client.Upload(context.Background(), tt.obj)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Upload() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Upload() error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("Upload() unexpected error = %v", err)
			}

			if got.Path != "/"+tt.wantKey {
				t.Errorf("Path = %v, want %v", got.Path, "/"+tt.wantKey)
			}
			if got.FileID != EncodeFileID(tt.wantKey) {
				t.Errorf("FileID = %v, want %v", got.FileID, EncodeFileID(tt.wantKey))
			}
			if got.Name != "clip.mp4" {
				t.Errorf("Name = %v, want %v", got.Name, "clip.mp4")
			}
		})
	}
}

func TestClient_Upload_UsesStatModificationTime(t *testing.T) {
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock := &mockMinioClient{
		statObjectFunc: func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
			return minio.ObjectInfo{Key: objectName, Size: 42, LastModified: modified}, nil
		},
	}
	client := &Client{client: mock, presignedClient: mock, bucket: "videos"}

	got, err := client.Upload(context.Background(), repository.UploadObject{
		Directory: "/videos",
		FileName:  "clip.mp4",
		Body:      bytes.NewReader(nil),
	})
	if err != nil {
		t.Fatalf("Upload() unexpected error = %v", err)
	}

	if !got.ModifiedAt.Equal(modified) {
		t.Errorf("ModifiedAt = %v, want %v", got.ModifiedAt, modified)
	}
	if got.Size != 42 {
		t.Errorf("Size = %v, want %v", got.Size, 42)
	}
}

func TestClient_List(t *testing.T) {
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		directory  string
		wantPrefix string
		objects    []minio.ObjectInfo
		wantNames  []string
		wantErr    bool
	}{
		{
			name:       "files in directory",
			directory:  "/videos",
			wantPrefix: "videos/",
			objects: []minio.ObjectInfo{
				{Key: "videos/a.mp4", Size: 10, LastModified: modified},
				{Key: "videos/notes.txt", Size: 1, LastModified: modified},
			},
			wantNames: []string{"a.mp4", "notes.txt"},
		},
		{
			name:       "sub-directories skipped",
			directory:  "videos/",
			wantPrefix: "videos/",
			objects: []minio.ObjectInfo{
				{Key: "videos/archive/"},
				{Key: "videos/b.mkv", LastModified: modified},
			},
			wantNames: []string{"b.mkv"},
		},
		{
			name:       "bucket root",
			directory:  "/",
			wantPrefix: "",
			objects:    []minio.ObjectInfo{{Key: "c.webm"}},
			wantNames:  []string{"c.webm"},
		},
		{
			name:       "empty directory",
			directory:  "/empty",
			wantPrefix: "empty/",
			wantNames:  []string{},
		},
		{
			name:       "listing error",
			directory:  "/videos",
			wantPrefix: "videos/",
			objects:    []minio.ObjectInfo{{Err: errors.New("access denied")}},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockMinioClient{
				listObjectsFunc: func(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
					if opts.Prefix != tt.wantPrefix {
						t.Errorf("Prefix = %q, want %q", opts.Prefix, tt.wantPrefix)
					}
					if opts.Recursive {
						t.Error("expected non-recursive listing")
					}
					return objectsChan(tt.objects...)
				},
			}
			client := &Client{client: mock, presignedClient: mock, bucket: "videos"}

			got, err := client.List(context.Background(), tt.directory)

			if tt.wantErr {
				if err == nil {
					t.Fatal("List() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("List() unexpected error = %v", err)
			}

			if len(got) != len(tt.wantNames) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantNames))
			}
			for i, name := range tt.wantNames {
				if got[i].Name != name {
					t.Errorf("got[%d].Name = %v, want %v", i, got[i].Name, name)
				}
				if !strings.HasPrefix(got[i].Path, "/") {
					t.Errorf("got[%d].Path = %v, want leading slash", i, got[i].Path)
				}
			}
		})
	}
}

func TestClient_ResolveURL(t *testing.T) {
	key := "videos/clip.mkv"

	tests := []struct {
		name       string
		fileID     string
		mockClient *mockMinioClient
		wantURL    string
		wantErr    error
	}{
		{
			name:   "successful resolution",
			fileID: EncodeFileID(key),
			mockClient: &mockMinioClient{
				presignedGetObjectFunc: func(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
					if objectName != key {
						t.Errorf("objectName = %v, want %v", objectName, key)
					}
					if expiry != 2*time.Hour {
						t.Errorf("expiry = %v, want %v", expiry, 2*time.Hour)
					}
					if got := reqParams.Get("response-content-type"); got != "video/x-matroska" {
						t.Errorf("response-content-type = %v, want %v", got, "video/x-matroska")
					}
					u, _ := url.Parse("http://localhost:9000/videos/videos/clip.mkv?X-Amz-Signature=xyz789")
					return u, nil
				},
			},
			wantURL: "http://localhost:9000/videos/videos/clip.mkv?X-Amz-Signature=xyz789",
		},
		{
			name:       "invalid file id",
			fileID:     "!!not-base64!!",
			mockClient: &mockMinioClient{},
			wantErr:    repository.ErrInvalidFileID,
		},
		{
			name:   "object not found",
			fileID: EncodeFileID(key),
			mockClient: &mockMinioClient{
				statObjectFunc: func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
					return minio.ObjectInfo{}, errNoSuchKey
				},
			},
			wantErr: repository.ErrObjectNotFound,
		},
		{
			name:   "presign error",
			fileID: EncodeFileID(key),
			mockClient: &mockMinioClient{
				presignedGetObjectFunc: func(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
					return nil, errors.New("signing error")
				},
			},
			wantErr: errors.New("failed to generate presigned download URL"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{
				client:          tt.mockClient,
				presignedClient: tt.mockClient,
				bucket:          "videos",
				presignExpiry:   2 * time.Hour,
			}

			got, err := client.ResolveURL(context.Background(), tt.fileID)

			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("ResolveURL() expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) && !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Errorf("ResolveURL() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveURL() unexpected error = %v", err)
			}
			if got != tt.wantURL {
				t.Errorf("ResolveURL() = %v, want %v", got, tt.wantURL)
			}
		})
	}
}

func TestClient_ResolveURL_UsesPresignedClient(t *testing.T) {
	internal := &mockMinioClient{
		presignedGetObjectFunc: func(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
			t.Error("internal client used for presigning")
			return nil, errors.New("unexpected")
		},
	}
	public := &mockMinioClient{
		presignedGetObjectFunc: func(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
			u, _ := url.Parse("https://media.example.com/videos/clip.mp4")
			return u, nil
		},
	}
	client := &Client{client: internal, presignedClient: public, bucket: "videos"}

	got, err := client.ResolveURL(context.Background(), EncodeFileID("clip.mp4"))
	if err != nil {
		t.Fatalf("ResolveURL() unexpected error = %v", err)
	}
	if got != "https://media.example.com/videos/clip.mp4" {
		t.Errorf("ResolveURL() = %v, want public endpoint URL", got)
	}
}

func TestClient_Delete(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		mockClient  *mockMinioClient
		wantRemoved string
		wantErr     error
	}{
		{
			name:        "successful delete",
			path:        "/videos/clip.mp4",
			mockClient:  &mockMinioClient{},
			wantRemoved: "videos/clip.mp4",
		},
		{
			name: "object not found",
			path: "/videos/missing.mp4",
			mockClient: &mockMinioClient{
				statObjectFunc: func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
					return minio.ObjectInfo{}, errNoSuchKey
				},
			},
			wantErr: repository.ErrObjectNotFound,
		},
		{
			name:       "root path",
			path:       "/",
			mockClient: &mockMinioClient{},
			wantErr:    repository.ErrObjectNotFound,
		},
		{
			name: "remove error",
			path: "/videos/clip.mp4",
			mockClient: &mockMinioClient{
				removeObjectFunc: func(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
					return errors.New("permission denied")
				},
			},
			wantErr: errors.New("failed to delete object"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var removed string
			if tt.mockClient.removeObjectFunc == nil {
				tt.mockClient.removeObjectFunc = func(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
					removed = objectName
					return nil
				}
			}
			client := &Client{client: tt.mockClient, presignedClient: tt.mockClient, bucket: "videos"}

			err := client.Delete(context.Background(), tt.path)

			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("Delete() expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) && !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Errorf("Delete() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Delete() unexpected error = %v", err)
			}
			if removed != tt.wantRemoved {
				t.Errorf("removed = %v, want %v", removed, tt.wantRemoved)
			}
		})
	}
}

func TestFileIDRoundTrip(t *testing.T) {
	keys := []string{"videos/clip.mp4", "a b/c+d.mkv", "clip.mp4"}

	for _, key := range keys {
		id := EncodeFileID(key)
		if strings.ContainsAny(id, "/+=") {
			t.Errorf("EncodeFileID(%q) = %q, not path safe", key, id)
		}
		got, err := DecodeFileID(id)
		if err != nil {
			t.Fatalf("DecodeFileID(%q) error = %v", id, err)
		}
		if got != key {
			t.Errorf("DecodeFileID(EncodeFileID(%q)) = %q", key, got)
		}
	}

	if _, err := DecodeFileID(""); !errors.Is(err, repository.ErrInvalidFileID) {
		t.Errorf("DecodeFileID(\"\") error = %v, want %v", err, repository.ErrInvalidFileID)
	}
}

func TestClient_Ping(t *testing.T) {
	mock := &mockMinioClient{
		bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
			return false, errors.New("connection refused")
		},
	}
	client := &Client{client: mock, presignedClient: mock, bucket: "videos"}

	if err := client.Ping(context.Background()); err == nil {
		t.Error("Ping() expected error, got nil")
	}
}
