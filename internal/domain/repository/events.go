package repository

import (
	"context"
	"time"
)

// EventType names a video lifecycle event.
type EventType string

const (
	EventVideoUploaded EventType = "video.uploaded"
	EventVideoDeleted  EventType = "video.deleted"
)

// VideoEvent is published after a successful upload or delete.
type VideoEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	VideoID    string    `json:"video_id"`
	Path       string    `json:"path"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher defines the interface for broadcasting video events.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type EventPublisher interface {
	PublishVideoEvent(ctx context.Context, event VideoEvent) error

	// Close gracefully closes the connection to the broker.
	Close() error
}
