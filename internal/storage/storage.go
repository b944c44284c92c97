package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"stwipe-backend/internal/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence surface consumed by the handlers and the pipeline.
// Backed by Postgres in production and by MemoryStore in tests (and when
// STORAGE_BACKEND=memory).
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByExternalUID(ctx context.Context, uid string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	// Playlists
	CreatePlaylist(ctx context.Context, p *models.Playlist) error
	GetPlaylist(ctx context.Context, id uuid.UUID) (*models.Playlist, error)
	ListPlaylistsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Playlist, error)
	UpdatePlaylistTitle(ctx context.Context, id uuid.UUID, title string) error
	UpdatePlaylistStatus(ctx context.Context, id uuid.UUID, status string) error
	SetPlaylistTotalVideos(ctx context.Context, id uuid.UUID, total int) error
	IncrementProcessedVideos(ctx context.Context, id uuid.UUID) error
	MarkPlaylistCompleted(ctx context.Context, id uuid.UUID, at time.Time) error

	// Videos
	CreateVideo(ctx context.Context, v *models.Video) error
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	ListVideosByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.Video, error)
	UpdateVideoStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkVideoCompleted(ctx context.Context, id uuid.UUID, totalShorts int) error

	// Study shorts
	CreateStudyShort(ctx context.Context, s *models.StudyShort) error
	GetStudyShort(ctx context.Context, id uuid.UUID) (*models.StudyShort, error)
	ListShortsByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.StudyShort, error)
	ListShortsByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.StudyShort, error)

	// User progress
	GetProgress(ctx context.Context, userID, playlistID uuid.UUID) (*models.UserProgress, error)
	CreateProgress(ctx context.Context, p *models.UserProgress) error
	SaveProgress(ctx context.Context, p *models.UserProgress) error
	GetUserStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)

	// Jobs
	CreateJob(ctx context.Context, j *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, errMsg *string) error
}
