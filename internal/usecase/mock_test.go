package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
)

// mockStorageGateway provides a configurable mock for StorageGateway.
type mockStorageGateway struct {
	uploadFn     func(ctx context.Context, obj repository.UploadObject) (*model.RemoteFile, error)
	listFn       func(ctx context.Context, directory string) ([]model.RemoteFile, error)
	resolveURLFn func(ctx context.Context, fileID string) (string, error)
	deleteFn     func(ctx context.Context, path string) error
}

func (m *mockStorageGateway) Upload(ctx context.Context, obj repository.UploadObject) (*model.RemoteFile, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, obj)
	}
	// Drain the body so staging behaves as with a real gateway.
	n, _ := io.Copy(io.Discard, obj.Body)
	return &model.RemoteFile{
		FileID:     "ZmlsZS1pZA",
		Path:       obj.Directory + "/" + obj.FileName,
		Name:       obj.FileName,
		Size:       n,
		ModifiedAt: time.Unix(1700000000, 0),
	}, nil
}

func (m *mockStorageGateway) List(ctx context.Context, directory string) ([]model.RemoteFile, error) {
	if m.listFn != nil {
		return m.listFn(ctx, directory)
	}
	return []model.RemoteFile{}, nil
}

func (m *mockStorageGateway) ResolveURL(ctx context.Context, fileID string) (string, error) {
	if m.resolveURLFn != nil {
		return m.resolveURLFn(ctx, fileID)
	}
	return "http://example.com/download/" + fileID, nil
}

func (m *mockStorageGateway) Delete(ctx context.Context, path string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, path)
	}
	return nil
}

// mockEventPublisher records published events.
type mockEventPublisher struct {
	mu        sync.Mutex
	events    []repository.VideoEvent
	publishFn func(ctx context.Context, event repository.VideoEvent) error
}

func (m *mockEventPublisher) PublishVideoEvent(ctx context.Context, event repository.VideoEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

func (m *mockEventPublisher) Close() error {
	return nil
}

func (m *mockEventPublisher) published() []repository.VideoEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.VideoEvent(nil), m.events...)
}
