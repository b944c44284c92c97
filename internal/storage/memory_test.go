package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"stwipe-backend/internal/models"
)

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	u := &models.User{ExternalUID: "ext-1", Email: "a@example.com", Name: "A"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if u.ID == uuid.Nil {
		t.Fatal("ID not assigned")
	}

	got, err := store.GetUserByExternalUID(ctx, "ext-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Errorf("lookup returned wrong user")
	}

	got.Email = "b@example.com"
	if err := store.UpdateUser(ctx, got); err != nil {
		t.Fatal(err)
	}
	updated, _ := store.GetUser(ctx, u.ID)
	if updated.Email != "b@example.com" {
		t.Errorf("email = %q after update", updated.Email)
	}

	if _, err := store.GetUserByExternalUID(ctx, "nope"); err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestIncrementProcessedVideosCapped(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := &models.Playlist{UserID: uuid.New(), Title: "T", Language: "english"}
	if err := store.CreatePlaylist(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := store.SetPlaylistTotalVideos(ctx, p.ID, 2); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if err := store.IncrementProcessedVideos(ctx, p.ID); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := store.GetPlaylist(ctx, p.ID)
	if got.ProcessedVideos != 2 {
		t.Errorf("processed = %d, want capped at 2", got.ProcessedVideos)
	}
}

func TestProgressDefensiveCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	userID, playlistID := uuid.New(), uuid.New()
	p := &models.UserProgress{
		UserID:          userID,
		PlaylistID:      playlistID,
		CompletedShorts: []uuid.UUID{uuid.New()},
	}
	if err := store.CreateProgress(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetProgress(ctx, userID, playlistID)
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the returned slice must not leak into the store
	got.CompletedShorts = append(got.CompletedShorts, uuid.New())
	again, _ := store.GetProgress(ctx, userID, playlistID)
	if len(again.CompletedShorts) != 1 {
		t.Errorf("store leaked caller mutation, len = %d", len(again.CompletedShorts))
	}
}

func TestSaveProgressUnknownRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.SaveProgress(ctx, &models.UserProgress{UserID: uuid.New(), PlaylistID: uuid.New()})
	if err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestShortsListedInCreationOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	playlistID := uuid.New()

	for i := 0; i < 5; i++ {
		s := &models.StudyShort{PlaylistID: playlistID, VideoID: uuid.New(), Title: "S", OrderIndex: i}
		if err := store.CreateStudyShort(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	shorts, err := store.ListShortsByPlaylist(ctx, playlistID)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range shorts {
		if s.OrderIndex != i {
			t.Errorf("position %d holds order index %d", i, s.OrderIndex)
		}
	}
}

func TestGetUserStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()

	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)

	// Two playlists studied on consecutive days, 5400s total
	for i, studiedAt := range []time.Time{now, yesterday} {
		p := &models.UserProgress{
			UserID:          userID,
			PlaylistID:      uuid.New(),
			CompletedShorts: []uuid.UUID{uuid.New(), uuid.New()},
			TotalTimeSpent:  2700,
			LastStudiedAt:   &studiedAt,
		}
		if err := store.CreateProgress(ctx, p); err != nil {
			t.Fatalf("progress %d: %v", i, err)
		}
	}

	stats, err := store.GetUserStats(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalShorts != 4 {
		t.Errorf("total shorts = %d, want 4", stats.TotalShorts)
	}
	if stats.HoursStudied != 1.5 {
		t.Errorf("hours studied = %v, want 1.5", stats.HoursStudied)
	}
	if stats.Streak != 2 {
		t.Errorf("streak = %d, want 2", stats.Streak)
	}
}

func TestCountStreak(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.AddDate(0, 0, offset) }

	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{"no study days", nil, 0},
		{"today only", []time.Time{day(0)}, 1},
		{"today and yesterday", []time.Time{day(0), day(-1)}, 2},
		{"yesterday only still counts", []time.Time{day(-1)}, 1},
		{"gap breaks the streak", []time.Time{day(0), day(-1), day(-3)}, 2},
		{"streak expired two days ago", []time.Time{day(-2), day(-3)}, 0},
		{"long run", []time.Time{day(0), day(-1), day(-2), day(-3), day(-4)}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountStreak(tt.days, now); got != tt.want {
				t.Errorf("CountStreak = %d, want %d", got, tt.want)
			}
		})
	}
}
