// Package pipeline turns a YouTube playlist into persisted study shorts:
// fetch sources, extract audio, transcribe, filter filler content, segment,
// persist. Every stage is an interface so the worker wires real services and
// tests wire fakes.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stwipe-backend/internal/models"
)

// VideoSource is one entry of a fetched playlist, in playlist order.
type VideoSource struct {
	YouTubeID       string
	Title           string
	URL             string
	DurationSeconds int
}

// PlaylistInfo is what the Fetcher returns for a playlist URL.
type PlaylistInfo struct {
	Title   string
	Sources []VideoSource
}

// Transcript is raw transcribed text plus the measured audio duration.
type Transcript struct {
	Text            string
	DurationSeconds int
}

// Segment is one topical chunk of cleaned transcript text. Times are
// synthetic fixed-width bounds, not aligned to speech timing.
type Segment struct {
	Topic     string
	Content   string
	StartTime int
	EndTime   int
}

// Fetcher resolves a playlist URL into ordered video sources.
type Fetcher interface {
	FetchPlaylist(ctx context.Context, playlistURL string) (*PlaylistInfo, error)
}

// Extractor produces a local audio file for a video source. cleanup removes
// the file and is safe to call more than once.
type Extractor interface {
	Extract(ctx context.Context, src VideoSource) (audioPath string, cleanup func(), err error)
}

// Transcriber converts a local audio file into text. The language hint may be
// empty, in which case the service auto-detects.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*Transcript, error)
}

// Captioner fetches existing captions for a video. Optional fast path: when
// it succeeds the audio download and transcription are skipped entirely.
type Captioner interface {
	Captions(ctx context.Context, youtubeVideoID string) (string, error)
}

// Filter removes disfluencies and off-topic chatter. It never fails; the
// worst case is returning its input unchanged.
type Filter interface {
	Filter(ctx context.Context, text, language string) string
}

// Segmenter splits cleaned text into ordered topical segments.
type Segmenter interface {
	Segment(text, videoTitle string) []Segment
}

// Publisher pushes progress events to connected clients. Optional.
type Publisher interface {
	PublishProgress(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

// Store is the slice of persistence the pipeline needs.
type Store interface {
	GetPlaylist(ctx context.Context, id uuid.UUID) (*models.Playlist, error)
	UpdatePlaylistStatus(ctx context.Context, id uuid.UUID, status string) error
	SetPlaylistTotalVideos(ctx context.Context, id uuid.UUID, total int) error
	IncrementProcessedVideos(ctx context.Context, id uuid.UUID) error
	MarkPlaylistCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateVideo(ctx context.Context, v *models.Video) error
	UpdateVideoStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkVideoCompleted(ctx context.Context, id uuid.UUID, totalShorts int) error
	CreateStudyShort(ctx context.Context, s *models.StudyShort) error
}

// VideoResult records the outcome for one video: either Shorts or Err is set.
// A failed video never aborts the rest of the playlist.
type VideoResult struct {
	Video  *models.Video
	Shorts []*models.StudyShort
	Err    error
}

// Config holds the pipeline tunables.
type Config struct {
	SegmentCount   int // chunks per video
	SegmentSeconds int // synthetic width of each chunk
}

func (c Config) withDefaults() Config {
	if c.SegmentCount <= 0 {
		c.SegmentCount = 3
	}
	if c.SegmentSeconds <= 0 {
		c.SegmentSeconds = 180
	}
	return c
}
