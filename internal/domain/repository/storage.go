package repository

import (
	"context"
	"io"

	"github.com/hszk-dev/vidvault/internal/domain/model"
)

// UploadObject describes a file to be stored by a StorageGateway.
type UploadObject struct {
	// Directory is the remote directory, e.g. "/videos".
	Directory string
	// FileName is the base name the object is stored under.
	FileName    string
	ContentType string
	// Size is the exact byte length of Body.
	Size int64
	Body io.Reader
}

// StorageGateway defines every interaction with the remote file-storage provider.
// Implementations normalize provider responses into model.RemoteFile so callers
// never see provider-specific shapes.
type StorageGateway interface {
	// Upload stores an object and returns its descriptor.
	Upload(ctx context.Context, obj UploadObject) (*model.RemoteFile, error)

	// List returns every file directly inside directory, videos or not.
	List(ctx context.Context, directory string) ([]model.RemoteFile, error)

	// ResolveURL returns a playback URL for the file identified by fileID.
	// Returns ErrObjectNotFound if the file does not exist.
	ResolveURL(ctx context.Context, fileID string) (string, error)

	// Delete removes the file stored at path.
	// Returns ErrObjectNotFound if nothing is stored there.
	Delete(ctx context.Context, path string) error
}
