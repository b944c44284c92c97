package worker

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stwipe-backend/internal/models"
	"stwipe-backend/internal/pipeline"
	"stwipe-backend/internal/storage"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeFetcher struct {
	info *pipeline.PlaylistInfo
	err  error
}

func (f *fakeFetcher) FetchPlaylist(ctx context.Context, playlistURL string) (*pipeline.PlaylistInfo, error) {
	return f.info, f.err
}

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, src pipeline.VideoSource) (string, func(), error) {
	return "/tmp/audio.m4a", func() {}, nil
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, audioPath, language string) (*pipeline.Transcript, error) {
	return &pipeline.Transcript{Text: "velocity is the rate of change of position"}, nil
}

type stubFilter struct{}

func (stubFilter) Filter(ctx context.Context, text, language string) string { return text }

type stubSegmenter struct{}

func (stubSegmenter) Segment(text, videoTitle string) []pipeline.Segment {
	return []pipeline.Segment{{Topic: videoTitle + " - Concept 1", Content: text, StartTime: 0, EndTime: 180}}
}

func newTestPool(store storage.Store, fetcher pipeline.Fetcher) *Pool {
	processor := pipeline.NewProcessor(
		store,
		stubExtractor{},
		stubTranscriber{},
		nil,
		stubFilter{},
		stubSegmenter{},
		nil,
		testLog(),
		pipeline.Config{},
	)
	return NewPool(nil, store, fetcher, processor, nil, testLog(), 1)
}

func seedPlaylistJob(t *testing.T, store storage.Store) (*models.Playlist, *models.Job) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{ExternalUID: "ext-1", Email: "s@example.com", Name: "S"}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	playlist := &models.Playlist{
		UserID:   user.ID,
		Title:    "YouTube Playlist",
		Language: "english",
		Status:   models.StatusPending,
	}
	if err := store.CreatePlaylist(ctx, playlist); err != nil {
		t.Fatal(err)
	}
	job := &models.Job{
		ID:          uuid.New(),
		UserID:      user.ID,
		Type:        "playlist-processing",
		ReferenceID: playlist.ID,
		Status:      models.StatusPending,
	}
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	return playlist, job
}

func TestProcessPlaylistJob(t *testing.T) {
	store := storage.NewMemoryStore()
	playlist, job := seedPlaylistJob(t, store)

	fetcher := &fakeFetcher{info: &pipeline.PlaylistInfo{
		Title: "Kinematics Basics",
		Sources: []pipeline.VideoSource{
			{YouTubeID: "v1", Title: "Velocity", URL: "https://www.youtube.com/watch?v=v1", DurationSeconds: 300},
		},
	}}
	pool := newTestPool(store, fetcher)

	if err := pool.processPlaylistJob(context.Background(), job); err != nil {
		t.Fatalf("processPlaylistJob failed: %v", err)
	}

	final, _ := store.GetPlaylist(context.Background(), playlist.ID)
	if final.Title != "Kinematics Basics" {
		t.Errorf("title = %q, placeholder was not replaced", final.Title)
	}
	if final.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", final.Status)
	}

	shorts, _ := store.ListShortsByPlaylist(context.Background(), playlist.ID)
	if len(shorts) != 1 {
		t.Errorf("got %d shorts, want 1", len(shorts))
	}
}

func TestProcessPlaylistJobFetchFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	playlist, job := seedPlaylistJob(t, store)

	fetcher := &fakeFetcher{err: errors.New("playlist is private")}
	pool := newTestPool(store, fetcher)

	err := pool.processPlaylistJob(context.Background(), job)
	if err == nil {
		t.Fatal("expected fetch error")
	}

	final, _ := store.GetPlaylist(context.Background(), playlist.ID)
	if final.Status != models.StatusFailed {
		t.Errorf("status = %q, want failed", final.Status)
	}
}

func TestProcessPlaylistJobUnknownPlaylist(t *testing.T) {
	store := storage.NewMemoryStore()
	pool := newTestPool(store, &fakeFetcher{})

	job := &models.Job{ID: uuid.New(), ReferenceID: uuid.New(), Type: "playlist-processing"}
	if err := pool.processPlaylistJob(context.Background(), job); err == nil {
		t.Fatal("expected error for unknown playlist")
	}
}
