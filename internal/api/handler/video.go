package handler

import (
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
	"github.com/hszk-dev/vidvault/internal/usecase"
)

const (
	// multipartMemory is the part of a multipart form kept in memory; the
	// rest spills to temp files removed after the request.
	multipartMemory = 32 << 20

	uploadField    = "video"
	directoryField = "directory"
)

// Request/Response types

type UploadResponse struct {
	Video   model.VideoRecord `json:"video"`
	Message string            `json:"message"`
}

type VideoURLResponse struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc            usecase.VideoService
	maxUploadBytes int64
}

// NewVideoHandler creates a new VideoHandler. Upload bodies larger than
// maxUploadBytes are rejected with 413.
func NewVideoHandler(svc usecase.VideoService, maxUploadBytes int64) *VideoHandler {
	return &VideoHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Upload handles POST /upload
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Upload exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		Error(w, http.StatusBadRequest, CodeInvalidRequest, "Request must be multipart/form-data")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		Error(w, http.StatusBadRequest, CodeInvalidRequest, "No video file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !isVideoUpload(contentType, header.Filename) {
		Error(w, http.StatusBadRequest, CodeInvalidFileType, "File must be a video")
		return
	}

	// The part is already spooled by ParseMultipartForm, so its size is known.
	record, err := h.svc.Upload(r.Context(), usecase.UploadInput{
		Directory:   formField(r.MultipartForm, directoryField),
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, UploadResponse{
		Video:   *record,
		Message: "Video uploaded successfully",
	})
}

// formField returns the first value of a multipart form field. The URL query
// is not consulted.
func formField(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// List handles GET /videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), model.DefaultPage)
	if err != nil {
		Error(w, http.StatusBadRequest, CodeInvalidRequest, "page must be an integer")
		return
	}
	limit, err := intParam(q.Get("limit"), model.DefaultLimit)
	if err != nil {
		Error(w, http.StatusBadRequest, CodeInvalidRequest, "limit must be an integer")
		return
	}

	out, err := h.svc.List(r.Context(), usecase.ListInput{
		Directory: q.Get(directoryField),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, out)
}

// Get handles GET /videos/{id}. The default is a redirect to the playback
// URL; format=json returns it in the body.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.svc.ResolveURL(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		JSON(w, http.StatusOK, VideoURLResponse{URL: u, ID: id})
		return
	}
	http.Redirect(w, r, u, http.StatusTemporaryRedirect)
}

// Delete handles DELETE /videos/{id}?path=...
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := r.URL.Query().Get("path")
	if p == "" {
		Error(w, http.StatusBadRequest, CodeInvalidRequest, "Video path is required")
		return
	}

	if err := h.svc.Delete(r.Context(), usecase.DeleteInput{ID: id, Path: p}); err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, DeleteResponse{
		ID:      id,
		Message: "Video deleted successfully",
	})
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrObjectNotFound), errors.Is(err, repository.ErrInvalidFileID):
		Error(w, http.StatusNotFound, CodeVideoNotFound, "Video not found")
	case errors.Is(err, usecase.ErrIDRequired),
		errors.Is(err, usecase.ErrPathRequired),
		errors.Is(err, usecase.ErrFileNameRequired),
		errors.Is(err, model.ErrInvalidPage),
		errors.Is(err, model.ErrInvalidLimit):
		Error(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	default:
		// Storage failures keep their message so callers can see what the provider said.
		slog.Error("video request failed", "error", err)
		Error(w, http.StatusInternalServerError, CodeUpstreamError, err.Error())
	}
}

// isVideoUpload accepts a video/* content type. Clients that send no useful
// type fall back to the file extension.
func isVideoUpload(contentType, filename string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType != "application/octet-stream" {
		return strings.HasPrefix(mediaType, "video/")
	}
	return model.IsVideoFile(filename)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
