package videos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/uploads"
)

// ErrMissingTitle indicates a publish request without a title.
var ErrMissingTitle = errors.New("video title is required")

// VideoCreator persists new video records.
type VideoCreator interface {
	Create(ctx context.Context, video models.Video) error
}

// Uploader performs the synchronous thumbnail upload.
type Uploader interface {
	Upload(ctx context.Context, in uploads.Input) (uploads.Result, error)
}

// Publisher creates video records and hands their asset files to the
// background ingestor. The thumbnail is uploaded synchronously so the record
// is immediately presentable; the video file follows asynchronously.
type Publisher struct {
	videos   VideoCreator
	uploader Uploader
	ingestor *AssetIngestor
}

// NewPublisher constructs a video publisher.
func NewPublisher(videos VideoCreator, uploader Uploader, ingestor *AssetIngestor) *Publisher {
	if videos == nil || ingestor == nil {
		panic("videos: publisher dependencies must not be nil")
	}
	return &Publisher{videos: videos, uploader: uploader, ingestor: ingestor}
}

// Publish records a new pending video and enqueues its asset for ingestion.
func (p *Publisher) Publish(ctx context.Context, ownerID, title, description string, file uploads.SingleFile, thumbnail *uploads.SingleFile) (models.Video, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Video{}, ErrMissingTitle
	}

	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(description),
		AssetStatus: models.AssetStatusPending,
	}

	if thumbnail != nil && p.uploader != nil {
		result, err := p.uploader.Upload(ctx, *thumbnail)
		if err != nil {
			return models.Video{}, fmt.Errorf("upload thumbnail: %w", err)
		}
		video.Thumbnail = result.URL
	}

	if err := p.videos.Create(ctx, video); err != nil {
		return models.Video{}, err
	}

	if err := p.ingestor.Enqueue(ctx, video, file.Path); err != nil {
		logging.FromContext(ctx).Error("enqueue video asset", "videoId", video.ID, "error", err)
		return models.Video{}, fmt.Errorf("enqueue video asset: %w", err)
	}

	return video, nil
}
