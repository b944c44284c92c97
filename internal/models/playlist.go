package models

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle statuses shared by playlists and videos.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Playlist struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Title             string     `json:"title"`
	YouTubeURL        string     `json:"youtube_url"`
	YouTubePlaylistID string     `json:"youtube_playlist_id"`
	Subject           *string    `json:"subject"`
	Language          string     `json:"language"` // "hinglish" | "english" | "hindi"
	Status            string     `json:"status"`   // pending | processing | completed | failed
	TotalVideos       int        `json:"total_videos"`
	ProcessedVideos   int        `json:"processed_videos"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at"`
}

type ProcessPlaylistRequest struct {
	YouTubeURL string `json:"youtube_url"`
	Language   string `json:"language"`
	Subject    string `json:"subject,omitempty"`
}
