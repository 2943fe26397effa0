package dto

import (
	"time"

	"github.com/google/uuid"
)

type MQPostEnrichmentMsg struct {
	PostID        uuid.UUID `json:"post_id"`
	Content       string    `json:"content"`
	ImageData     []byte    `json:"image_data,omitempty"`
	ImageMimeType string    `json:"image_mime_type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
