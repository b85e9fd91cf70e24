package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"
)

// DefaultMimeType is reported for files whose extension is unknown.
const DefaultMimeType = "video/mp4"

var mimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
}

// RemoteFile is the canonical description of a file held by the storage provider.
// Storage gateways normalize their provider responses into this shape.
type RemoteFile struct {
	FileID     string
	Path       string
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// VideoRecord is the client-facing view of a stored video.
// It is derived on demand and never persisted.
type VideoRecord struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	UploadedAt   int64  `json:"uploadedAt"`
	Path         string `json:"path"`
	RemoteFileID string `json:"remoteFileId"`
	MimeType     string `json:"mimeType"`
}

// GenerateVideoID returns the first 16 hex characters of md5("<name>-<modifiedUnix>").
// The id is a display handle, not a security token: files sharing a name and
// modification second share an id.
func GenerateVideoID(name string, modifiedUnix int64) string {
	sum := md5.Sum([]byte(name + "-" + strconv.FormatInt(modifiedUnix, 10)))
	return hex.EncodeToString(sum[:])[:16]
}

func extension(name string) string {
	return strings.ToLower(path.Ext(name))
}

// MimeTypeFor guesses a MIME type from the file extension, case-insensitively.
func MimeTypeFor(name string) string {
	if mt, ok := mimeTypes[extension(name)]; ok {
		return mt
	}
	return DefaultMimeType
}

// IsVideoFile reports whether name carries one of the supported video extensions.
func IsVideoFile(name string) bool {
	_, ok := mimeTypes[extension(name)]
	return ok
}

// Derive builds the client-facing record for a remote file.
func Derive(f RemoteFile) VideoRecord {
	modified := f.ModifiedAt.Unix()
	return VideoRecord{
		ID:           GenerateVideoID(f.Name, modified),
		Filename:     f.Name,
		Size:         f.Size,
		UploadedAt:   modified * 1000,
		Path:         f.Path,
		RemoteFileID: f.FileID,
		MimeType:     MimeTypeFor(f.Name),
	}
}

// FilterVideos drops every file without a video extension, preserving order.
func FilterVideos(files []RemoteFile) []RemoteFile {
	videos := make([]RemoteFile, 0, len(files))
	for _, f := range files {
		if IsVideoFile(f.Name) {
			videos = append(videos, f)
		}
	}
	return videos
}

// DeriveAll filters and derives a provider listing.
func DeriveAll(files []RemoteFile) []VideoRecord {
	videos := FilterVideos(files)
	records := make([]VideoRecord, 0, len(videos))
	for _, f := range videos {
		records = append(records, Derive(f))
	}
	return records
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatFileSize renders a byte count with binary units and at most two decimals.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return fmt.Sprintf("%s %s", strconv.FormatFloat(v, 'f', -1, 64), sizeUnits[i])
}
