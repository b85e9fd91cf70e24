package handler

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in ErrorResponse.Error.
const (
	CodeInvalidRequest  = "invalid_request"
	CodeInvalidFileType = "invalid_file_type"
	CodePayloadTooLarge = "payload_too_large"
	CodeVideoNotFound   = "video_not_found"
	CodeUpstreamError   = "upstream_error"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
