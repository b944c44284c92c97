package models

import (
	"time"

	"github.com/google/uuid"
)

// StudyShort is one topic-scoped slice of a source video. Immutable once created.
type StudyShort struct {
	ID              uuid.UUID `json:"id"`
	PlaylistID      uuid.UUID `json:"playlist_id"`
	VideoID         uuid.UUID `json:"video_id"`
	Title           string    `json:"title"`
	Topic           string    `json:"topic"`
	Content         string    `json:"content"`
	StartTime       int       `json:"start_time"` // seconds
	EndTime         int       `json:"end_time"`   // seconds
	DurationSeconds int       `json:"duration_seconds"`
	OrderIndex      int       `json:"order_index"` // position within the source video
	CreatedAt       time.Time `json:"created_at"`
}
