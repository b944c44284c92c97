package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stwipe-backend/internal/models"
	"stwipe-backend/internal/storage"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeExtractor struct {
	failFor map[string]error // keyed by YouTubeID
	calls   []string
}

func (f *fakeExtractor) Extract(ctx context.Context, src VideoSource) (string, func(), error) {
	f.calls = append(f.calls, src.YouTubeID)
	if err, ok := f.failFor[src.YouTubeID]; ok {
		return "", nil, err
	}
	return "/tmp/fake-" + src.YouTubeID + ".m4a", func() {}, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string) (*Transcript, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Transcript{Text: f.text}, nil
}

type fakeCaptioner struct {
	captions map[string]string
}

func (f *fakeCaptioner) Captions(ctx context.Context, youtubeVideoID string) (string, error) {
	if text, ok := f.captions[youtubeVideoID]; ok {
		return text, nil
	}
	return "", errors.New("no captions")
}

type passthroughFilter struct{}

func (passthroughFilter) Filter(ctx context.Context, text, language string) string { return text }

type fixedSegmenter struct {
	perVideo int
}

func (f fixedSegmenter) Segment(text, videoTitle string) []Segment {
	segments := make([]Segment, f.perVideo)
	for i := range segments {
		segments[i] = Segment{
			Topic:     fmt.Sprintf("%s - Concept %d", videoTitle, i+1),
			Content:   text,
			StartTime: i * 180,
			EndTime:   (i + 1) * 180,
		}
	}
	return segments
}

type recordingPublisher struct {
	messages []models.WSMessage
}

func (r *recordingPublisher) PublishProgress(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	r.messages = append(r.messages, msg)
}

func setupPlaylist(t *testing.T, store storage.Store) *models.Playlist {
	t.Helper()
	ctx := context.Background()

	user := &models.User{ExternalUID: "ext-1", Email: "student@example.com", Name: "Student"}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}

	playlist := &models.Playlist{
		UserID:            user.ID,
		Title:             "Physics 101",
		YouTubeURL:        "https://www.youtube.com/playlist?list=PLabc",
		YouTubePlaylistID: "PLabc",
		Language:          "hinglish",
		Status:            models.StatusPending,
	}
	if err := store.CreatePlaylist(ctx, playlist); err != nil {
		t.Fatal(err)
	}
	return playlist
}

func sources(n int) []VideoSource {
	out := make([]VideoSource, n)
	for i := range out {
		out[i] = VideoSource{
			YouTubeID:       fmt.Sprintf("vid%d", i),
			Title:           fmt.Sprintf("Lecture %d", i+1),
			URL:             fmt.Sprintf("https://www.youtube.com/watch?v=vid%d", i),
			DurationSeconds: 600,
		}
	}
	return out
}

func TestRunProcessesAllVideos(t *testing.T) {
	store := storage.NewMemoryStore()
	playlist := setupPlaylist(t, store)
	publisher := &recordingPublisher{}

	p := NewProcessor(
		store,
		&fakeExtractor{},
		&fakeTranscriber{text: "force equals mass times acceleration"},
		nil,
		passthroughFilter{},
		fixedSegmenter{perVideo: 3},
		publisher,
		testLog(),
		Config{},
	)

	results, err := p.Run(context.Background(), playlist.ID, sources(2), "hinglish")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	final, _ := store.GetPlaylist(context.Background(), playlist.ID)
	if final.Status != models.StatusCompleted {
		t.Errorf("playlist status = %q, want completed", final.Status)
	}
	if final.TotalVideos != 2 || final.ProcessedVideos != 2 {
		t.Errorf("counters = %d/%d, want 2/2", final.ProcessedVideos, final.TotalVideos)
	}
	if final.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	videos, _ := store.ListVideosByPlaylist(context.Background(), playlist.ID)
	for i, v := range videos {
		if v.OrderIndex != i {
			t.Errorf("video %d order index = %d", i, v.OrderIndex)
		}
		if v.Status != models.StatusCompleted {
			t.Errorf("video %d status = %q, want completed", i, v.Status)
		}
		if v.TotalShorts != 3 {
			t.Errorf("video %d total shorts = %d, want 3", i, v.TotalShorts)
		}
	}

	shorts, _ := store.ListShortsByPlaylist(context.Background(), playlist.ID)
	if len(shorts) != 6 {
		t.Fatalf("got %d shorts, want 6", len(shorts))
	}
	if shorts[0].Title != "Lecture 1 - Part 1" {
		t.Errorf("first short title = %q", shorts[0].Title)
	}
	if shorts[0].DurationSeconds != 180 {
		t.Errorf("first short duration = %d, want 180", shorts[0].DurationSeconds)
	}
}

func TestRunIsolatesVideoFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	playlist := setupPlaylist(t, store)

	extractor := &fakeExtractor{failFor: map[string]error{
		"vid0": errors.New("video unavailable"),
	}}

	p := NewProcessor(
		store,
		extractor,
		&fakeTranscriber{text: "some transcript"},
		nil,
		passthroughFilter{},
		fixedSegmenter{perVideo: 2},
		nil,
		testLog(),
		Config{},
	)

	results, err := p.Run(context.Background(), playlist.ID, sources(2), "hinglish")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if results[0].Err == nil {
		t.Error("expected error for first video")
	}
	if results[1].Err != nil {
		t.Errorf("unexpected error for second video: %v", results[1].Err)
	}

	videos, _ := store.ListVideosByPlaylist(context.Background(), playlist.ID)
	if videos[0].Status != models.StatusFailed {
		t.Errorf("failed video status = %q, want failed", videos[0].Status)
	}
	if videos[1].Status != models.StatusCompleted {
		t.Errorf("second video status = %q, want completed", videos[1].Status)
	}

	// Both attempts count, the playlist still completes
	final, _ := store.GetPlaylist(context.Background(), playlist.ID)
	if final.ProcessedVideos != 2 {
		t.Errorf("processed videos = %d, want 2", final.ProcessedVideos)
	}
	if final.Status != models.StatusCompleted {
		t.Errorf("playlist status = %q, want completed", final.Status)
	}

	// The failed video has no shorts
	failedShorts, _ := store.ListShortsByVideo(context.Background(), videos[0].ID)
	if len(failedShorts) != 0 {
		t.Errorf("failed video has %d shorts, want 0", len(failedShorts))
	}
}

func TestRunCaptionsFastPath(t *testing.T) {
	store := storage.NewMemoryStore()
	playlist := setupPlaylist(t, store)

	extractor := &fakeExtractor{}
	captioner := &fakeCaptioner{captions: map[string]string{
		"vid0": "captions already exist for this video",
	}}

	p := NewProcessor(
		store,
		extractor,
		&fakeTranscriber{err: errors.New("should not be called")},
		captioner,
		passthroughFilter{},
		fixedSegmenter{perVideo: 1},
		nil,
		testLog(),
		Config{},
	)

	results, err := p.Run(context.Background(), playlist.ID, sources(1), "english")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("video failed: %v", results[0].Err)
	}
	if len(extractor.calls) != 0 {
		t.Errorf("extractor called %d times, want 0 when captions exist", len(extractor.calls))
	}

	shorts, _ := store.ListShortsByPlaylist(context.Background(), playlist.ID)
	if len(shorts) != 1 {
		t.Fatalf("got %d shorts, want 1", len(shorts))
	}
	if !strings.Contains(shorts[0].Content, "captions already exist") {
		t.Errorf("short content %q not built from captions", shorts[0].Content)
	}
}

func TestRunCaptionMissFallsBackToAudio(t *testing.T) {
	store := storage.NewMemoryStore()
	playlist := setupPlaylist(t, store)

	extractor := &fakeExtractor{}
	captioner := &fakeCaptioner{} // no captions for any video

	p := NewProcessor(
		store,
		extractor,
		&fakeTranscriber{text: "transcribed from audio"},
		captioner,
		passthroughFilter{},
		fixedSegmenter{perVideo: 1},
		nil,
		testLog(),
		Config{},
	)

	results, err := p.Run(context.Background(), playlist.ID, sources(1), "english")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("video failed: %v", results[0].Err)
	}
	if len(extractor.calls) != 1 {
		t.Errorf("extractor called %d times, want 1", len(extractor.calls))
	}
}

func TestRunUnknownPlaylist(t *testing.T) {
	store := storage.NewMemoryStore()

	p := NewProcessor(
		store,
		&fakeExtractor{},
		&fakeTranscriber{text: "x"},
		nil,
		passthroughFilter{},
		fixedSegmenter{perVideo: 1},
		nil,
		testLog(),
		Config{},
	)

	_, err := p.Run(context.Background(), uuid.New(), sources(1), "english")
	if err == nil {
		t.Fatal("expected error for unknown playlist")
	}
}

// failingVideoStore forces CreateVideo to fail to exercise bootstrap failure.
type failingVideoStore struct {
	*storage.MemoryStore
}

func (f *failingVideoStore) CreateVideo(ctx context.Context, v *models.Video) error {
	return errors.New("disk full")
}

func TestRunBootstrapFailureMarksPlaylistFailed(t *testing.T) {
	mem := storage.NewMemoryStore()
	playlist := setupPlaylist(t, mem)
	store := &failingVideoStore{MemoryStore: mem}

	p := NewProcessor(
		store,
		&fakeExtractor{},
		&fakeTranscriber{text: "x"},
		nil,
		passthroughFilter{},
		fixedSegmenter{perVideo: 1},
		nil,
		testLog(),
		Config{},
	)

	_, err := p.Run(context.Background(), playlist.ID, sources(1), "english")
	if err == nil {
		t.Fatal("expected bootstrap error")
	}

	final, _ := mem.GetPlaylist(context.Background(), playlist.ID)
	if final.Status != models.StatusFailed {
		t.Errorf("playlist status = %q, want failed", final.Status)
	}
}

func TestRunPublishesProgressEvents(t *testing.T) {
	store := storage.NewMemoryStore()
	playlist := setupPlaylist(t, store)
	publisher := &recordingPublisher{}

	p := NewProcessor(
		store,
		&fakeExtractor{},
		&fakeTranscriber{text: "some transcript"},
		nil,
		passthroughFilter{},
		fixedSegmenter{perVideo: 1},
		publisher,
		testLog(),
		Config{},
	)

	if _, err := p.Run(context.Background(), playlist.ID, sources(2), "hinglish"); err != nil {
		t.Fatal(err)
	}

	var playlistEvents, videoEvents int
	for _, msg := range publisher.messages {
		switch msg.Type {
		case "playlist_progress":
			playlistEvents++
		case "video_progress":
			videoEvents++
		}
	}
	if playlistEvents != 2 {
		t.Errorf("got %d playlist events, want 2 (processing + completed)", playlistEvents)
	}
	if videoEvents != 2 {
		t.Errorf("got %d video events, want 2", videoEvents)
	}
}
