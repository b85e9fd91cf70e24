package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
)

var (
	// ErrFileNameRequired is returned when an upload carries no file name.
	ErrFileNameRequired = errors.New("file name is required")

	// ErrIDRequired is returned when a video id is empty.
	ErrIDRequired = errors.New("video id is required")

	// ErrPathRequired is returned when a delete request carries no path.
	ErrPathRequired = errors.New("video path is required")
)

// UploadInput contains the input parameters for uploading a video.
type UploadInput struct {
	// Directory is the remote directory; empty selects the default.
	Directory   string
	FileName    string
	ContentType string
	// Size is the body length when the caller knows it. Zero or negative
	// bodies are staged to disk first to measure them.
	Size int64
	Body io.Reader
}

// ListInput contains the input parameters for listing videos.
type ListInput struct {
	// Directory is the remote directory; empty selects the default.
	Directory string
	Page      int
	Limit     int
}

// ListOutput contains one page of videos.
type ListOutput struct {
	Videos     []model.VideoRecord `json:"videos"`
	Pagination model.Pagination    `json:"pagination"`
}

// DeleteInput identifies the video to delete. ID keys the playback URL cache,
// Path locates the remote file.
type DeleteInput struct {
	ID   string
	Path string
}

// VideoService defines the interface for video business logic operations.
type VideoService interface {
	// Upload stores a video and returns its derived record.
	Upload(ctx context.Context, input UploadInput) (*model.VideoRecord, error)

	// List returns one page of the videos in a directory.
	List(ctx context.Context, input ListInput) (*ListOutput, error)

	// ResolveURL returns a playback URL for the remote file id.
	ResolveURL(ctx context.Context, id string) (string, error)

	// Delete removes a video.
	Delete(ctx context.Context, input DeleteInput) error
}

// VideoServiceConfig holds configuration for VideoService.
type VideoServiceConfig struct {
	// DefaultDirectory is used when a request names no directory.
	DefaultDirectory string
	// TempDir holds upload bodies while they are sent to storage.
	TempDir string
}

// DefaultVideoServiceConfig returns the default configuration.
func DefaultVideoServiceConfig() VideoServiceConfig {
	return VideoServiceConfig{
		DefaultDirectory: "/videos",
		TempDir:          os.TempDir(),
	}
}

type videoService struct {
	storage repository.StorageGateway
	events  repository.EventPublisher

	defaultDirectory string
	tempDir          string
}

// NewVideoService creates a new VideoService instance.
func NewVideoService(
	storage repository.StorageGateway,
	events repository.EventPublisher,
	cfg VideoServiceConfig,
) VideoService {
	return &videoService{
		storage:          storage,
		events:           events,
		defaultDirectory: cfg.DefaultDirectory,
		tempDir:          cfg.TempDir,
	}
}

// Upload sends the body to storage. A body of unknown size is staged in a temp
// file first, and the staging file is removed on every path.
func (s *videoService) Upload(ctx context.Context, input UploadInput) (*model.VideoRecord, error) {
	name := filepath.Base(input.FileName)
	if input.FileName == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, ErrFileNameRequired
	}

	body, size := input.Body, input.Size
	if size <= 0 {
		staged, n, err := s.stage(name, input.Body)
		if err != nil {
			return nil, err
		}
		defer s.discard(staged)
		body, size = staged, n
	}

	file, err := s.storage.Upload(ctx, repository.UploadObject{
		Directory:   s.directory(input.Directory),
		FileName:    name,
		ContentType: input.ContentType,
		Size:        size,
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}

	record := model.Derive(*file)
	slog.Info("video uploaded",
		"video_id", record.ID,
		"path", record.Path,
		"size", model.FormatFileSize(record.Size),
	)

	s.publish(ctx, repository.EventVideoUploaded, record.ID, record.Path)
	return &record, nil
}

// List fetches the directory listing, keeps the videos and returns the requested page.
func (s *videoService) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	page, err := model.NewPage(input.Page, input.Limit)
	if err != nil {
		return nil, err
	}

	files, err := s.storage.List(ctx, s.directory(input.Directory))
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	videos, pagination := model.Paginate(model.DeriveAll(files), page)
	return &ListOutput{
		Videos:     videos,
		Pagination: pagination,
	}, nil
}

// ResolveURL asks storage for a playback URL.
func (s *videoService) ResolveURL(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	return s.storage.ResolveURL(ctx, id)
}

// Delete removes the remote file at input.Path.
func (s *videoService) Delete(ctx context.Context, input DeleteInput) error {
	if input.Path == "" {
		return ErrPathRequired
	}

	if err := s.storage.Delete(ctx, input.Path); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	s.publish(ctx, repository.EventVideoDeleted, input.ID, input.Path)
	return nil
}

func (s *videoService) directory(dir string) string {
	if dir == "" {
		return s.defaultDirectory
	}
	return dir
}

// maxStagingExt bounds the extension carried into staging file names.
const maxStagingExt = 16

// stage copies body into a new file under tempDir and rewinds it.
// Format: upload-{uuid}{ext}. The client's name never reaches the file system
// beyond its extension, so long names stay under NAME_MAX.
func (s *videoService) stage(name string, body io.Reader) (*os.File, int64, error) {
	ext := filepath.Ext(name)
	if len(ext) > maxStagingExt {
		ext = ""
	}
	p := filepath.Join(s.tempDir, "upload-"+uuid.NewString()+ext)
	f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, 0, fmt.Errorf("create staging file: %w", err)
	}

	size, err := io.Copy(f, body)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		s.discard(f)
		return nil, 0, fmt.Errorf("stage upload: %w", err)
	}
	return f, size, nil
}

func (s *videoService) discard(f *os.File) {
	_ = f.Close() // Best-effort; removal below is what matters
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove staging file",
			"file", f.Name(),
			"error", err,
		)
	}
}

// publish broadcasts a lifecycle event. A broker failure never fails the request.
func (s *videoService) publish(ctx context.Context, typ repository.EventType, videoID, path string) {
	event := repository.VideoEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		VideoID:    videoID,
		Path:       path,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishVideoEvent(ctx, event); err != nil {
		slog.Warn("failed to publish video event",
			"event_type", typ,
			"video_id", videoID,
			"error", err,
		)
	}
}
