package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
	"github.com/sirupsen/logrus"

	"stwipe-backend/internal/pipeline"
)

// 100MB cap on a single downloaded audio stream
const maxAudioBytes = 100 * 1024 * 1024

// YouTubeService resolves playlists, fetches captions, and downloads
// audio-only streams. It implements pipeline.Fetcher, pipeline.Extractor and
// pipeline.Captioner.
type YouTubeService struct {
	ytClient      *yt.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	tempDir       string
	log           *logrus.Entry
}

func NewYouTubeService(tempDir string, log *logrus.Entry) *YouTubeService {
	return &YouTubeService{
		ytClient:      &yt.Client{},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		tempDir:       tempDir,
		log:           log,
	}
}

// FetchPlaylist resolves a playlist URL into its ordered video entries.
func (s *YouTubeService) FetchPlaylist(ctx context.Context, playlistURL string) (*pipeline.PlaylistInfo, error) {
	playlist, err := s.ytClient.GetPlaylistContext(ctx, playlistURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist metadata: %w", err)
	}

	info := &pipeline.PlaylistInfo{
		Title:   playlist.Title,
		Sources: make([]pipeline.VideoSource, 0, len(playlist.Videos)),
	}
	for _, entry := range playlist.Videos {
		info.Sources = append(info.Sources, pipeline.VideoSource{
			YouTubeID:       entry.ID,
			Title:           entry.Title,
			URL:             fmt.Sprintf("https://www.youtube.com/watch?v=%s", entry.ID),
			DurationSeconds: int(entry.Duration.Seconds()),
		})
	}

	if len(info.Sources) == 0 {
		return nil, fmt.Errorf("playlist %q has no videos", playlist.Title)
	}
	return info, nil
}

// Captions fetches the existing caption track for a video, preferring English
// and Hindi tracks before falling back to whatever is available.
func (s *YouTubeService) Captions(ctx context.Context, videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB", "hi"})
	if err != nil {
		// Any available language
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return "", fmt.Errorf("no captions available: %w", err)
		}
	}

	if len(transcript.Entries) == 0 {
		return "", fmt.Errorf("caption track is empty")
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", fmt.Errorf("caption text resolved to empty content")
	}
	return cleaned, nil
}

// Extract downloads the best available audio-only stream to a temp file. The
// returned cleanup removes the file and is safe to call multiple times.
func (s *YouTubeService) Extract(ctx context.Context, src pipeline.VideoSource) (string, func(), error) {
	video, err := s.ytClient.GetVideoContext(ctx, src.URL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", nil, fmt.Errorf("no audio formats available for %s", src.YouTubeID)
	}

	best := formats[0]
	for _, f := range formats {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	stream, _, err := s.ytClient.GetStreamContext(ctx, video, &best)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	defer stream.Close()

	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	f, err := os.CreateTemp(s.tempDir, "audio-*.m4a")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp audio file: %w", err)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
				s.log.WithError(err).WithField("path", f.Name()).Warn("failed to remove temp audio file")
			}
		})
	}

	n, err := io.Copy(f, io.LimitReader(stream, maxAudioBytes+1))
	closeErr := f.Close()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to download audio stream: %w", err)
	}
	if closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to flush audio file: %w", closeErr)
	}
	if n > maxAudioBytes {
		cleanup()
		return "", nil, fmt.Errorf("audio stream exceeds %d MB limit", maxAudioBytes/(1024*1024))
	}

	return f.Name(), cleanup, nil
}
