package models

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID              uuid.UUID `json:"id"`
	PlaylistID      uuid.UUID `json:"playlist_id"`
	Title           string    `json:"title"`
	YouTubeVideoID  string    `json:"youtube_video_id"`
	YouTubeURL      string    `json:"youtube_url"`
	DurationSeconds int       `json:"duration_seconds"`
	OrderIndex      int       `json:"order_index"`
	Status          string    `json:"status"` // pending | processing | completed | failed
	TotalShorts     int       `json:"total_shorts"`
	ProcessedShorts int       `json:"processed_shorts"`
	CreatedAt       time.Time `json:"created_at"`
}
