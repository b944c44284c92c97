package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"stwipe-backend/internal/models"
	"stwipe-backend/internal/pipeline"
	"stwipe-backend/internal/storage"
)

const (
	PlaylistQueue = "queue:playlist-processing"

	popTimeout = 30 * time.Second
	lockTTL    = 30 * time.Minute
)

// Pool runs N workers that pop playlist-processing jobs off Redis and drive
// the pipeline. A SetNX lock per job keeps replicas from double-processing.
// Failures are terminal: a failed run is not re-queued.
type Pool struct {
	redis       *redis.Client
	store       storage.Store
	fetcher     pipeline.Fetcher
	processor   *pipeline.Processor
	publisher   pipeline.Publisher
	log         *logrus.Entry
	workerCount int
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

func NewPool(
	redisClient *redis.Client,
	store storage.Store,
	fetcher pipeline.Fetcher,
	processor *pipeline.Processor,
	publisher pipeline.Publisher,
	log *logrus.Entry,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		store:       store,
		fetcher:     fetcher,
		processor:   processor,
		publisher:   publisher,
		log:         log,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.WithField("workers", p.workerCount).Info("worker pool started")
}

func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

// Enqueue persists the job and pushes it onto the processing queue.
func Enqueue(ctx context.Context, store storage.Store, redisClient *redis.Client, job *models.Job) error {
	if err := store.CreateJob(ctx, job); err != nil {
		return fmt.Errorf("persist job: %w", err)
	}
	jobBytes, _ := json.Marshal(job)
	if err := redisClient.LPush(ctx, PlaylistQueue, string(jobBytes)).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log := p.log.WithField("worker", id)

	for {
		select {
		case <-p.stopChan:
			log.Debug("worker shutting down")
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, popTimeout, PlaylistQueue).Result()
		if err != nil {
			continue // timeout or transient error, poll again
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.WithError(err).Error("failed to parse job payload")
			continue
		}

		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil || !locked {
			continue // another worker has this job
		}

		log.WithFields(logrus.Fields{
			"job_id":      job.ID,
			"playlist_id": job.ReferenceID,
		}).Info("processing playlist job")

		p.store.UpdateJobStatus(ctx, job.ID, models.StatusProcessing, nil)

		if err := p.processPlaylistJob(ctx, &job); err != nil {
			p.handleFailure(ctx, &job, err)
		} else {
			p.store.UpdateJobStatus(ctx, job.ID, models.StatusCompleted, nil)
			log.WithField("job_id", job.ID).Info("playlist job completed")
		}

		p.redis.Del(ctx, lockKey)
	}
}

// processPlaylistJob fetches the playlist's video sources and hands them to
// the pipeline. Fetch errors are bootstrap failures: the playlist is marked
// failed and the job carries the cause.
func (p *Pool) processPlaylistJob(ctx context.Context, job *models.Job) error {
	playlist, err := p.store.GetPlaylist(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("playlist %s lookup: %w", job.ReferenceID, err)
	}

	info, err := p.fetcher.FetchPlaylist(ctx, playlist.YouTubeURL)
	if err != nil {
		if serr := p.store.UpdatePlaylistStatus(ctx, playlist.ID, models.StatusFailed); serr != nil {
			p.log.WithError(serr).Error("failed to mark playlist failed")
		}
		return fmt.Errorf("fetch playlist: %w", err)
	}

	// The submit handler stores a placeholder title until the real one is known.
	if info.Title != "" && info.Title != playlist.Title {
		if err := p.store.UpdatePlaylistTitle(ctx, playlist.ID, info.Title); err != nil {
			p.log.WithError(err).Warn("failed to update playlist title")
		}
	}

	_, err = p.processor.Run(ctx, playlist.ID, info.Sources, playlist.Language)
	return err
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	errMsg := err.Error()
	p.log.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"playlist_id": job.ReferenceID,
	}).WithError(err).Error("playlist job failed")

	p.store.UpdateJobStatus(ctx, job.ID, models.StatusFailed, &errMsg)

	if p.publisher != nil {
		p.publisher.PublishProgress(ctx, job.UserID, models.WSMessage{
			Type: "error",
			Payload: models.ErrorEvent{
				PlaylistID:   job.ReferenceID,
				ErrorCode:    "PROCESSING_FAILED",
				ErrorMessage: errMsg,
			},
		})
	}
}
