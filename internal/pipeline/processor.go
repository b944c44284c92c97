package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stwipe-backend/internal/models"
)

// Processor drives the per-video stages for one playlist run. All
// collaborators are injected; none are package globals.
type Processor struct {
	store       Store
	extractor   Extractor
	transcriber Transcriber
	captions    Captioner // optional
	filter      Filter
	segmenter   Segmenter
	publisher   Publisher // optional
	log         *logrus.Entry
	cfg         Config
}

func NewProcessor(
	store Store,
	extractor Extractor,
	transcriber Transcriber,
	captions Captioner,
	filter Filter,
	segmenter Segmenter,
	publisher Publisher,
	log *logrus.Entry,
	cfg Config,
) *Processor {
	return &Processor{
		store:       store,
		extractor:   extractor,
		transcriber: transcriber,
		captions:    captions,
		filter:      filter,
		segmenter:   segmenter,
		publisher:   publisher,
		log:         log,
		cfg:         cfg.withDefaults(),
	}
}

// Run processes every source of a playlist in order. The returned error is
// non-nil only for bootstrap failures (missing playlist, record creation);
// those mark the playlist failed. Per-video failures are recorded in the
// returned results and on the Video rows, and never abort the run.
func (p *Processor) Run(ctx context.Context, playlistID uuid.UUID, sources []VideoSource, language string) ([]VideoResult, error) {
	playlist, err := p.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("playlist %s lookup: %w", playlistID, err)
	}

	if err := p.bootstrap(ctx, playlist, len(sources)); err != nil {
		p.failPlaylist(ctx, playlist)
		return nil, err
	}

	// All video rows exist before any processing starts so partial progress
	// is observable from the status endpoint.
	videos := make([]*models.Video, 0, len(sources))
	for i, src := range sources {
		v := &models.Video{
			PlaylistID:      playlist.ID,
			Title:           src.Title,
			YouTubeVideoID:  src.YouTubeID,
			YouTubeURL:      src.URL,
			DurationSeconds: src.DurationSeconds,
			OrderIndex:      i,
			Status:          models.StatusPending,
		}
		if err := p.store.CreateVideo(ctx, v); err != nil {
			p.failPlaylist(ctx, playlist)
			return nil, fmt.Errorf("create video record %d: %w", i, err)
		}
		videos = append(videos, v)
	}

	results := make([]VideoResult, 0, len(videos))
	for i, video := range videos {
		shorts, err := p.processVideo(ctx, playlist, video, sources[i], language)

		result := VideoResult{Video: video}
		if err != nil {
			p.log.WithFields(logrus.Fields{
				"playlist_id": playlist.ID,
				"video_id":    video.ID,
				"title":       video.Title,
			}).WithError(err).Warn("video processing failed, continuing with next video")

			if serr := p.store.UpdateVideoStatus(ctx, video.ID, models.StatusFailed); serr != nil {
				p.log.WithError(serr).Error("failed to mark video failed")
			}
			result.Err = err
		} else {
			result.Shorts = shorts
		}
		results = append(results, result)

		// Every attempted video counts, success or failure.
		if err := p.store.IncrementProcessedVideos(ctx, playlist.ID); err != nil {
			p.log.WithError(err).Error("failed to increment processed videos")
		}

		p.publishVideoEvent(ctx, playlist, video, result)
	}

	if err := p.store.MarkPlaylistCompleted(ctx, playlist.ID, time.Now()); err != nil {
		return results, fmt.Errorf("finalize playlist %s: %w", playlist.ID, err)
	}

	p.publishPlaylistEvent(ctx, playlist, models.StatusCompleted, len(videos))
	p.log.WithFields(logrus.Fields{
		"playlist_id": playlist.ID,
		"videos":      len(videos),
	}).Info("playlist processed")

	return results, nil
}

func (p *Processor) bootstrap(ctx context.Context, playlist *models.Playlist, total int) error {
	if err := p.store.UpdatePlaylistStatus(ctx, playlist.ID, models.StatusProcessing); err != nil {
		return fmt.Errorf("mark playlist processing: %w", err)
	}
	if err := p.store.SetPlaylistTotalVideos(ctx, playlist.ID, total); err != nil {
		return fmt.Errorf("set total videos: %w", err)
	}
	playlist.TotalVideos = total
	p.publishPlaylistEvent(ctx, playlist, models.StatusProcessing, 0)
	return nil
}

// processVideo runs the extract → transcribe → filter → segment stages for
// one video and persists the resulting shorts.
func (p *Processor) processVideo(ctx context.Context, playlist *models.Playlist, video *models.Video, src VideoSource, language string) ([]*models.StudyShort, error) {
	if err := p.store.UpdateVideoStatus(ctx, video.ID, models.StatusProcessing); err != nil {
		return nil, fmt.Errorf("mark video processing: %w", err)
	}

	transcript, err := p.transcript(ctx, src, language)
	if err != nil {
		return nil, err
	}

	cleaned := p.filter.Filter(ctx, transcript.Text, language)
	segments := p.segmenter.Segment(cleaned, video.Title)

	shorts := make([]*models.StudyShort, 0, len(segments))
	for j, seg := range segments {
		short := &models.StudyShort{
			PlaylistID:      playlist.ID,
			VideoID:         video.ID,
			Title:           fmt.Sprintf("%s - Part %d", video.Title, j+1),
			Topic:           seg.Topic,
			Content:         seg.Content,
			StartTime:       seg.StartTime,
			EndTime:         seg.EndTime,
			DurationSeconds: seg.EndTime - seg.StartTime,
			OrderIndex:      j,
		}
		if err := p.store.CreateStudyShort(ctx, short); err != nil {
			return nil, fmt.Errorf("persist short %d: %w", j, err)
		}
		shorts = append(shorts, short)
	}

	if err := p.store.MarkVideoCompleted(ctx, video.ID, len(shorts)); err != nil {
		return nil, fmt.Errorf("mark video completed: %w", err)
	}
	return shorts, nil
}

// transcript prefers existing captions over the audio path. Caption failure
// is not an error, just a miss.
func (p *Processor) transcript(ctx context.Context, src VideoSource, language string) (*Transcript, error) {
	if p.captions != nil {
		if text, err := p.captions.Captions(ctx, src.YouTubeID); err == nil && strings.TrimSpace(text) != "" {
			p.log.WithField("youtube_video_id", src.YouTubeID).Debug("using existing captions")
			return &Transcript{Text: text, DurationSeconds: src.DurationSeconds}, nil
		}
	}

	audioPath, cleanup, err := p.extractor.Extract(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	defer cleanup()

	transcript, err := p.transcriber.Transcribe(ctx, audioPath, language)
	if err != nil {
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}
	if transcript.DurationSeconds == 0 {
		transcript.DurationSeconds = src.DurationSeconds
	}
	return transcript, nil
}

func (p *Processor) failPlaylist(ctx context.Context, playlist *models.Playlist) {
	if err := p.store.UpdatePlaylistStatus(ctx, playlist.ID, models.StatusFailed); err != nil {
		p.log.WithError(err).Error("failed to mark playlist failed")
	}
	p.publishPlaylistEvent(ctx, playlist, models.StatusFailed, 0)
}

func (p *Processor) publishVideoEvent(ctx context.Context, playlist *models.Playlist, video *models.Video, result VideoResult) {
	if p.publisher == nil {
		return
	}
	status := models.StatusCompleted
	if result.Err != nil {
		status = models.StatusFailed
	}
	p.publisher.PublishProgress(ctx, playlist.UserID, models.WSMessage{
		Type: "video_progress",
		Payload: models.VideoProgressEvent{
			PlaylistID: playlist.ID,
			VideoID:    video.ID,
			Title:      video.Title,
			Status:     status,
			Shorts:     len(result.Shorts),
		},
	})
}

func (p *Processor) publishPlaylistEvent(ctx context.Context, playlist *models.Playlist, status string, processed int) {
	if p.publisher == nil {
		return
	}
	p.publisher.PublishProgress(ctx, playlist.UserID, models.WSMessage{
		Type: "playlist_progress",
		Payload: models.PlaylistProgressEvent{
			PlaylistID:      playlist.ID,
			Status:          status,
			TotalVideos:     playlist.TotalVideos,
			ProcessedVideos: processed,
		},
	})
}
