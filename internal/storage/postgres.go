package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stwipe-backend/internal/models"
)

// PostgresStore implements Store over a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// User operations

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = uuid.New()
	query := `INSERT INTO users (id, external_uid, email, name)
		VALUES ($1, $2, $3, $4) RETURNING created_at`
	return s.pool.QueryRow(ctx, query, u.ID, u.ExternalUID, u.Email, u.Name).Scan(&u.CreatedAt)
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	query := `SELECT id, external_uid, email, name, created_at FROM users WHERE id = $1`
	err := s.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.ExternalUID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByExternalUID(ctx context.Context, uid string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT id, external_uid, email, name, created_at FROM users WHERE external_uid = $1`
	err := s.pool.QueryRow(ctx, query, uid).Scan(&u.ID, &u.ExternalUID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *models.User) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET email = $1, name = $2 WHERE id = $3`,
		u.Email, u.Name, u.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Playlist operations

func (s *PostgresStore) CreatePlaylist(ctx context.Context, p *models.Playlist) error {
	p.ID = uuid.New()
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	query := `INSERT INTO playlists (id, user_id, title, youtube_url, youtube_playlist_id, subject, language, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`
	return s.pool.QueryRow(ctx, query,
		p.ID, p.UserID, p.Title, p.YouTubeURL, p.YouTubePlaylistID, p.Subject, p.Language, p.Status,
	).Scan(&p.CreatedAt)
}

const playlistColumns = `id, user_id, title, youtube_url, youtube_playlist_id, subject, language,
	status, total_videos, processed_videos, created_at, completed_at`

func scanPlaylist(row pgx.Row) (*models.Playlist, error) {
	p := &models.Playlist{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.YouTubeURL, &p.YouTubePlaylistID, &p.Subject, &p.Language,
		&p.Status, &p.TotalVideos, &p.ProcessedVideos, &p.CreatedAt, &p.CompletedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (s *PostgresStore) GetPlaylist(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM playlists WHERE id = $1`, playlistColumns)
	return scanPlaylist(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) ListPlaylistsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Playlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM playlists WHERE user_id = $1 ORDER BY created_at DESC`, playlistColumns)
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

func (s *PostgresStore) UpdatePlaylistTitle(ctx context.Context, id uuid.UUID, title string) error {
	_, err := s.pool.Exec(ctx, `UPDATE playlists SET title = $1 WHERE id = $2`, title, id)
	return err
}

func (s *PostgresStore) UpdatePlaylistStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE playlists SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetPlaylistTotalVideos(ctx context.Context, id uuid.UUID, total int) error {
	_, err := s.pool.Exec(ctx, `UPDATE playlists SET total_videos = $1 WHERE id = $2`, total, id)
	return err
}

func (s *PostgresStore) IncrementProcessedVideos(ctx context.Context, id uuid.UUID) error {
	// LEAST keeps processed_videos from ever passing total_videos
	_, err := s.pool.Exec(ctx, `
		UPDATE playlists
		SET processed_videos = LEAST(processed_videos + 1, total_videos)
		WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) MarkPlaylistCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE playlists SET status = $1, completed_at = $2 WHERE id = $3`,
		models.StatusCompleted, at, id)
	return err
}

// Video operations

func (s *PostgresStore) CreateVideo(ctx context.Context, v *models.Video) error {
	v.ID = uuid.New()
	if v.Status == "" {
		v.Status = models.StatusPending
	}
	query := `INSERT INTO videos (id, playlist_id, title, youtube_video_id, youtube_url, duration_seconds, order_index, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`
	return s.pool.QueryRow(ctx, query,
		v.ID, v.PlaylistID, v.Title, v.YouTubeVideoID, v.YouTubeURL, v.DurationSeconds, v.OrderIndex, v.Status,
	).Scan(&v.CreatedAt)
}

const videoColumns = `id, playlist_id, title, youtube_video_id, youtube_url, duration_seconds,
	order_index, status, total_shorts, processed_shorts, created_at`

func scanVideo(row pgx.Row) (*models.Video, error) {
	v := &models.Video{}
	err := row.Scan(
		&v.ID, &v.PlaylistID, &v.Title, &v.YouTubeVideoID, &v.YouTubeURL, &v.DurationSeconds,
		&v.OrderIndex, &v.Status, &v.TotalShorts, &v.ProcessedShorts, &v.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

func (s *PostgresStore) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE id = $1`, videoColumns)
	return scanVideo(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) ListVideosByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE playlist_id = $1 ORDER BY order_index`, videoColumns)
	rows, err := s.pool.Query(ctx, query, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *PostgresStore) UpdateVideoStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE videos SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkVideoCompleted(ctx context.Context, id uuid.UUID, totalShorts int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE videos
		SET status = $1, total_shorts = $2, processed_shorts = $2
		WHERE id = $3`, models.StatusCompleted, totalShorts, id)
	return err
}

// Study short operations

func (s *PostgresStore) CreateStudyShort(ctx context.Context, sh *models.StudyShort) error {
	sh.ID = uuid.New()
	query := `INSERT INTO study_shorts (id, playlist_id, video_id, title, topic, content, start_time, end_time, duration_seconds, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`
	return s.pool.QueryRow(ctx, query,
		sh.ID, sh.PlaylistID, sh.VideoID, sh.Title, sh.Topic, sh.Content,
		sh.StartTime, sh.EndTime, sh.DurationSeconds, sh.OrderIndex,
	).Scan(&sh.CreatedAt)
}

const shortColumns = `id, playlist_id, video_id, title, topic, content, start_time, end_time,
	duration_seconds, order_index, created_at`

func scanShort(row pgx.Row) (*models.StudyShort, error) {
	sh := &models.StudyShort{}
	err := row.Scan(
		&sh.ID, &sh.PlaylistID, &sh.VideoID, &sh.Title, &sh.Topic, &sh.Content,
		&sh.StartTime, &sh.EndTime, &sh.DurationSeconds, &sh.OrderIndex, &sh.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return sh, nil
}

func (s *PostgresStore) GetStudyShort(ctx context.Context, id uuid.UUID) (*models.StudyShort, error) {
	query := fmt.Sprintf(`SELECT %s FROM study_shorts WHERE id = $1`, shortColumns)
	return scanShort(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) listShorts(ctx context.Context, query string, arg interface{}) ([]*models.StudyShort, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shorts []*models.StudyShort
	for rows.Next() {
		sh, err := scanShort(rows)
		if err != nil {
			return nil, err
		}
		shorts = append(shorts, sh)
	}
	return shorts, rows.Err()
}

func (s *PostgresStore) ListShortsByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.StudyShort, error) {
	query := fmt.Sprintf(`SELECT %s FROM study_shorts WHERE playlist_id = $1 ORDER BY created_at, order_index`, shortColumns)
	return s.listShorts(ctx, query, playlistID)
}

func (s *PostgresStore) ListShortsByVideo(ctx context.Context, videoID uuid.UUID) ([]*models.StudyShort, error) {
	query := fmt.Sprintf(`SELECT %s FROM study_shorts WHERE video_id = $1 ORDER BY order_index`, shortColumns)
	return s.listShorts(ctx, query, videoID)
}

// Progress operations

func (s *PostgresStore) GetProgress(ctx context.Context, userID, playlistID uuid.UUID) (*models.UserProgress, error) {
	p := &models.UserProgress{}
	var completed, bookmarked []byte
	query := `SELECT id, user_id, playlist_id, current_short_id, completed_shorts, bookmarked_shorts, total_time_spent, last_studied_at
		FROM user_progress WHERE user_id = $1 AND playlist_id = $2`

	err := s.pool.QueryRow(ctx, query, userID, playlistID).Scan(
		&p.ID, &p.UserID, &p.PlaylistID, &p.CurrentShortID,
		&completed, &bookmarked, &p.TotalTimeSpent, &p.LastStudiedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}

	json.Unmarshal(completed, &p.CompletedShorts)
	json.Unmarshal(bookmarked, &p.BookmarkedShorts)
	return p, nil
}

func (s *PostgresStore) CreateProgress(ctx context.Context, p *models.UserProgress) error {
	p.ID = uuid.New()
	completed, _ := json.Marshal(emptyIfNil(p.CompletedShorts))
	bookmarked, _ := json.Marshal(emptyIfNil(p.BookmarkedShorts))

	query := `INSERT INTO user_progress (id, user_id, playlist_id, current_short_id, completed_shorts, bookmarked_shorts, total_time_spent, last_studied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.UserID, p.PlaylistID, p.CurrentShortID, completed, bookmarked, p.TotalTimeSpent, p.LastStudiedAt)
	return err
}

func (s *PostgresStore) SaveProgress(ctx context.Context, p *models.UserProgress) error {
	completed, _ := json.Marshal(emptyIfNil(p.CompletedShorts))
	bookmarked, _ := json.Marshal(emptyIfNil(p.BookmarkedShorts))

	tag, err := s.pool.Exec(ctx, `
		UPDATE user_progress
		SET current_short_id = $1, completed_shorts = $2, bookmarked_shorts = $3,
			total_time_spent = $4, last_studied_at = $5
		WHERE user_id = $6 AND playlist_id = $7`,
		p.CurrentShortID, completed, bookmarked, p.TotalTimeSpent, p.LastStudiedAt,
		p.UserID, p.PlaylistID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func emptyIfNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func (s *PostgresStore) GetUserStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	stats := &models.UserStats{}
	var totalSeconds int

	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(jsonb_array_length(completed_shorts)), 0),
			   COALESCE(SUM(total_time_spent), 0)
		FROM user_progress WHERE user_id = $1`, userID,
	).Scan(&stats.TotalShorts, &totalSeconds)
	if err != nil {
		return nil, err
	}
	stats.HoursStudied = float64(totalSeconds) / 3600
	stats.HoursStudied = float64(int(stats.HoursStudied*10+0.5)) / 10

	// Consecutive study days ending today
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT last_studied_at::date
		FROM user_progress
		WHERE user_id = $1 AND last_studied_at IS NOT NULL
		ORDER BY 1 DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	stats.Streak = CountStreak(days, time.Now())
	return stats, rows.Err()
}

// CountStreak counts consecutive study days ending today or yesterday.
// days must be distinct dates sorted newest first.
func CountStreak(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}

	today := now.Truncate(24 * time.Hour)
	cursor := today
	if !sameDay(days[0], today) {
		cursor = today.AddDate(0, 0, -1)
		if !sameDay(days[0], cursor) {
			return 0
		}
	}

	streak := 0
	for _, d := range days {
		if !sameDay(d, cursor) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Job operations

func (s *PostgresStore) CreateJob(ctx context.Context, j *models.Job) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = models.StatusPending
	}
	query := `INSERT INTO jobs (id, user_id, type, reference_id, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	return s.pool.QueryRow(ctx, query, j.ID, j.UserID, j.Type, j.ReferenceID, j.Status).Scan(&j.CreatedAt)
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j := &models.Job{}
	query := `SELECT id, user_id, type, reference_id, status, error_message, created_at, completed_at
		FROM jobs WHERE id = $1`
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.UserID, &j.Type, &j.ReferenceID, &j.Status, &j.ErrorMessage, &j.CreatedAt, &j.CompletedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return j, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, errMsg *string) error {
	query := `UPDATE jobs SET status = $1, error_message = $2,
		completed_at = CASE WHEN $1 IN ('completed', 'failed') THEN NOW() ELSE completed_at END
		WHERE id = $3`
	_, err := s.pool.Exec(ctx, query, status, errMsg, id)
	return err
}
