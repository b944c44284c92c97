package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stwipe-backend/internal/models"
)

// MemoryStore keeps everything in maps behind one RWMutex. It backs local
// development without Postgres and every storage-facing test.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	lists    map[uuid.UUID]*models.Playlist
	videos   map[uuid.UUID]*models.Video
	shorts   map[uuid.UUID]*models.StudyShort
	progress map[uuid.UUID]*models.UserProgress
	jobs     map[uuid.UUID]*models.Job
	seq      int // creation order tiebreaker for shorts
	order    map[uuid.UUID]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]*models.User),
		lists:    make(map[uuid.UUID]*models.Playlist),
		videos:   make(map[uuid.UUID]*models.Video),
		shorts:   make(map[uuid.UUID]*models.StudyShort),
		progress: make(map[uuid.UUID]*models.UserProgress),
		jobs:     make(map[uuid.UUID]*models.Job),
		order:    make(map[uuid.UUID]int),
	}
}

// User operations

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByExternalUID(ctx context.Context, uid string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ExternalUID == uid {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Email = u.Email
	existing.Name = u.Name
	return nil
}

// Playlist operations

func (m *MemoryStore) CreatePlaylist(ctx context.Context, p *models.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	p.CreatedAt = time.Now()
	cp := *p
	m.lists[p.ID] = &cp
	return nil
}

func (m *MemoryStore) GetPlaylist(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.lists[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) ListPlaylistsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Playlist
	for _, p := range m.lists {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdatePlaylistTitle(ctx context.Context, id uuid.UUID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.lists[id]
	if !ok {
		return ErrNotFound
	}
	p.Title = title
	return nil
}

func (m *MemoryStore) UpdatePlaylistStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.lists[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *MemoryStore) SetPlaylistTotalVideos(ctx context.Context, id uuid.UUID, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.lists[id]
	if !ok {
		return ErrNotFound
	}
	p.TotalVideos = total
	return nil
}

func (m *MemoryStore) IncrementProcessedVideos(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.lists[id]
	if !ok {
		return ErrNotFound
	}
	if p.ProcessedVideos < p.TotalVideos {
		p.ProcessedVideos++
	}
	return nil
}

func (m *MemoryStore) MarkPlaylistCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.lists[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = models.StatusCompleted
	p.CompletedAt = &at
	return nil
}

// Video operations

func (m *MemoryStore) CreateVideo(ctx context.Context, v *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = uuid.New()
	if v.Status == "" {
		v.Status = models.StatusPending
	}
	v.CreatedAt = time.Now()
	cp := *v
	m.videos[v.ID] = &cp
	return nil
}

func (m *MemoryStore) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) ListVideosByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Video
	for _, v := range m.videos {
		if v.PlaylistID == playlistID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (m *MemoryStore) UpdateVideoStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return ErrNotFound
	}
	v.Status = status
	return nil
}

func (m *MemoryStore) MarkVideoCompleted(ctx context.Context, id uuid.UUID, totalShorts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return ErrNotFound
	}
	v.Status = models.StatusCompleted
	v.TotalShorts = totalShorts
	v.ProcessedShorts = totalShorts
	return nil
}

// Study short operations

func (m *MemoryStore) CreateStudyShort(ctx context.Context, s *models.StudyShort) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.seq++
	m.order[s.ID] = m.seq
	cp := *s
	m.shorts[s.ID] = &cp
	return nil
}

func (m *MemoryStore) GetStudyShort(ctx context.Context, id uuid.UUID) (*models.StudyShort, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shorts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ListShortsByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.StudyShort, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.StudyShort
	for _, s := range m.shorts {
		if s.PlaylistID == playlistID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out, nil
}

func (m *MemoryStore) ListShortsByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.StudyShort, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.StudyShort
	for _, s := range m.shorts {
		if s.VideoID == videoID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

// Progress operations

func (m *MemoryStore) GetProgress(ctx context.Context, userID, playlistID uuid.UUID) (*models.UserProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.progress {
		if p.UserID == userID && p.PlaylistID == playlistID {
			cp := *p
			cp.CompletedShorts = append([]uuid.UUID(nil), p.CompletedShorts...)
			cp.BookmarkedShorts = append([]uuid.UUID(nil), p.BookmarkedShorts...)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateProgress(ctx context.Context, p *models.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	cp := *p
	cp.CompletedShorts = append([]uuid.UUID(nil), p.CompletedShorts...)
	cp.BookmarkedShorts = append([]uuid.UUID(nil), p.BookmarkedShorts...)
	m.progress[p.ID] = &cp
	return nil
}

func (m *MemoryStore) SaveProgress(ctx context.Context, p *models.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.progress {
		if existing.UserID == p.UserID && existing.PlaylistID == p.PlaylistID {
			cp := *p
			cp.ID = id
			cp.CompletedShorts = append([]uuid.UUID(nil), p.CompletedShorts...)
			cp.BookmarkedShorts = append([]uuid.UUID(nil), p.BookmarkedShorts...)
			m.progress[id] = &cp
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) GetUserStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.UserStats{}
	totalSeconds := 0
	var days []time.Time
	seen := make(map[string]bool)

	for _, p := range m.progress {
		if p.UserID != userID {
			continue
		}
		stats.TotalShorts += len(p.CompletedShorts)
		totalSeconds += p.TotalTimeSpent
		if p.LastStudiedAt != nil {
			key := p.LastStudiedAt.Format("2006-01-02")
			if !seen[key] {
				seen[key] = true
				days = append(days, *p.LastStudiedAt)
			}
		}
	}

	stats.HoursStudied = float64(int(float64(totalSeconds)/3600*10+0.5)) / 10
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	stats.Streak = CountStreak(days, time.Now())
	return stats, nil
}

// Job operations

func (m *MemoryStore) CreateJob(ctx context.Context, j *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = models.StatusPending
	}
	j.CreatedAt = time.Now()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *MemoryStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *MemoryStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, errMsg *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.Status = status
	j.ErrorMessage = errMsg
	if status == models.StatusCompleted || status == models.StatusFailed {
		now := time.Now()
		j.CompletedAt = &now
	}
	return nil
}
