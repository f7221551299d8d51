package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// AssetStorage persists video files and returns their public locations.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// AssetUpdater persists ingestion status updates for published videos.
type AssetUpdater interface {
	MarkAssetReady(ctx context.Context, videoID, location string, size int64) error
	MarkAssetFailed(ctx context.Context, videoID string) error
}

// AssetIngestorConfig controls the concurrency characteristics of the ingestor.
type AssetIngestorConfig struct {
	QueueSize int
	Workers   int
}

// AssetIngestor asynchronously streams received video files into asset
// storage and records the outcome on the video record. The publishing request
// returns as soon as the job is queued.
type AssetIngestor struct {
	storage AssetStorage
	updater AssetUpdater
	logger  *slog.Logger

	jobs   chan ingestJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type ingestJob struct {
	video     models.Video
	localPath string
}

var errIngestorClosed = errors.New("asset ingestor closed")

// NewAssetIngestor constructs a background worker pool that persists assets.
func NewAssetIngestor(storage AssetStorage, updater AssetUpdater, cfg AssetIngestorConfig, logger *slog.Logger) *AssetIngestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	ing := &AssetIngestor{
		storage: storage,
		updater: updater,
		logger:  logger,
		jobs:    make(chan ingestJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules asset persistence for the supplied video. The local file
// is owned by the ingestor from this point and removed once handled.
func (i *AssetIngestor) Enqueue(ctx context.Context, video models.Video, localPath string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	default:
	}

	job := ingestJob{video: video, localPath: localPath}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	case i.jobs <- job:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (i *AssetIngestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
		close(i.jobs)
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *AssetIngestor) worker() {
	defer i.wg.Done()

	for {
		select {
		case <-i.ctx.Done():
			return
		case job, ok := <-i.jobs:
			if !ok {
				return
			}
			i.handleJob(job)
		}
	}
}

func (i *AssetIngestor) handleJob(job ingestJob) {
	ctx, span := logging.StartSpan(logging.WithLogger(context.Background(), i.logger), "ingest_asset")
	defer span.End()

	logger := logging.FromContext(ctx).With("videoId", job.video.ID)

	defer func() {
		if err := os.Remove(job.localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("remove ingested upload", "error", err)
		}
	}()

	if i.storage == nil || i.updater == nil {
		logger.Error("asset ingestor missing dependencies", "hasStorage", i.storage != nil, "hasUpdater", i.updater != nil)
		return
	}

	uploadCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	location, size, err := i.persist(uploadCtx, job)
	if err != nil {
		logger.Error("asset ingestion failed", "error", err)
		i.recordFailure(job.video.ID)
		return
	}

	if err := i.recordSuccess(job.video.ID, location, size); err != nil {
		logger.Error("mark asset ready", "error", err)
		i.recordFailure(job.video.ID)
	}
}

func (i *AssetIngestor) persist(ctx context.Context, job ingestJob) (string, int64, error) {
	file, err := os.Open(job.localPath)
	if err != nil {
		return "", 0, fmt.Errorf("open uploaded file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat uploaded file: %w", err)
	}

	key := path.Join("videos", job.video.ID+path.Ext(job.localPath))
	location, err := i.storage.Save(ctx, key, file)
	if err != nil {
		return "", 0, fmt.Errorf("save video asset: %w", err)
	}
	if strings.TrimSpace(location) == "" {
		return "", 0, errors.New("storage returned no location")
	}

	return location, info.Size(), nil
}

func (i *AssetIngestor) recordFailure(videoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.updater.MarkAssetFailed(ctx, videoID); err != nil {
		i.logger.Error("record asset failure", "videoId", videoID, "error", err)
	}
}

func (i *AssetIngestor) recordSuccess(videoID, location string, size int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return i.updater.MarkAssetReady(ctx, videoID, location, size)
}
