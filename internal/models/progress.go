package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress tracks one user's position inside one playlist. Created lazily
// on the first progress update or bookmark.
type UserProgress struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"user_id"`
	PlaylistID       uuid.UUID   `json:"playlist_id"`
	CurrentShortID   *uuid.UUID  `json:"current_short_id"`
	CompletedShorts  []uuid.UUID `json:"completed_shorts"`
	BookmarkedShorts []uuid.UUID `json:"bookmarked_shorts"`
	TotalTimeSpent   int         `json:"total_time_spent"` // seconds
	LastStudiedAt    *time.Time  `json:"last_studied_at"`
}

type UpdateProgressRequest struct {
	ShortID   uuid.UUID `json:"short_id"`
	TimeSpent int       `json:"time_spent"`
	Completed bool      `json:"completed"`
}

type UserStats struct {
	TotalShorts  int     `json:"total_shorts"`
	HoursStudied float64 `json:"hours_studied"`
	Streak       int     `json:"streak"`
}
