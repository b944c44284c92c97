package models

import (
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Type         string     `json:"type"` // "playlist-processing"
	ReferenceID  uuid.UUID  `json:"reference_id"`
	Status       string     `json:"status"` // pending | processing | completed | failed
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// WebSocket message types

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type PlaylistProgressEvent struct {
	PlaylistID      uuid.UUID `json:"playlist_id"`
	Status          string    `json:"status"`
	TotalVideos     int       `json:"total_videos"`
	ProcessedVideos int       `json:"processed_videos"`
}

type VideoProgressEvent struct {
	PlaylistID uuid.UUID `json:"playlist_id"`
	VideoID    uuid.UUID `json:"video_id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Shorts     int       `json:"shorts"`
}

type ErrorEvent struct {
	PlaylistID   uuid.UUID `json:"playlist_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API error envelope

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
