package videos

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/uploads"
)

type fakeVideoCreator struct {
	mu      sync.Mutex
	created []models.Video
	err     error
}

func (f *fakeVideoCreator) Create(_ context.Context, video models.Video) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.created = append(f.created, video)
	f.mu.Unlock()
	return nil
}

type fakeUploader struct {
	result uploads.Result
	err    error
}

func (f fakeUploader) Upload(_ context.Context, _ uploads.Input) (uploads.Result, error) {
	return f.result, f.err
}

func testPublisher(t *testing.T, creator *fakeVideoCreator, uploader Uploader) (*Publisher, *fakeUpdater) {
	t.Helper()

	updater := newFakeUpdater()
	ing := NewAssetIngestor(&fakeAssetStorage{}, updater, AssetIngestorConfig{Workers: 1, QueueSize: 4}, nil)
	t.Cleanup(func() { _ = ing.Shutdown(context.Background()) })

	return NewPublisher(creator, uploader, ing), updater
}

func TestPublisherCreatesPendingVideo(t *testing.T) {
	creator := &fakeVideoCreator{}
	publisher, updater := testPublisher(t, creator, fakeUploader{result: uploads.Result{URL: "https://cdn.example.com/thumb.png"}})

	thumb := uploads.SingleFile{Field: "thumbnail", Path: tempAsset(t, "thumb.png", "png")}
	video, err := publisher.Publish(context.Background(), "owner-1", "  My Clip ", " a description ",
		uploads.SingleFile{Field: "videoFile", Path: tempAsset(t, "clip.mp4", "bytes")}, &thumb)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if video.ID == "" || video.OwnerID != "owner-1" {
		t.Fatalf("unexpected video %+v", video)
	}
	if video.Title != "My Clip" || video.Description != "a description" {
		t.Fatalf("expected trimmed fields got %+v", video)
	}
	if video.AssetStatus != models.AssetStatusPending {
		t.Fatalf("expected pending status got %q", video.AssetStatus)
	}
	if video.Thumbnail != "https://cdn.example.com/thumb.png" {
		t.Fatalf("unexpected thumbnail %q", video.Thumbnail)
	}

	if len(creator.created) != 1 {
		t.Fatalf("expected one created record got %d", len(creator.created))
	}

	// The asset file makes it through the background pipeline.
	updater.wait(t)
	updater.mu.Lock()
	_, ready := updater.ready[video.ID]
	updater.mu.Unlock()
	if !ready {
		t.Fatal("expected asset to be marked ready")
	}
}

func TestPublisherRequiresTitle(t *testing.T) {
	publisher, _ := testPublisher(t, &fakeVideoCreator{}, fakeUploader{})

	_, err := publisher.Publish(context.Background(), "owner-1", "   ", "",
		uploads.SingleFile{Field: "videoFile", Path: "unused"}, nil)
	if !errors.Is(err, ErrMissingTitle) {
		t.Fatalf("expected ErrMissingTitle got %v", err)
	}
}

func TestPublisherThumbnailUploadFailure(t *testing.T) {
	boom := errors.New("storage down")
	publisher, _ := testPublisher(t, &fakeVideoCreator{}, fakeUploader{err: boom})

	thumb := uploads.SingleFile{Field: "thumbnail", Path: "unused"}
	_, err := publisher.Publish(context.Background(), "owner-1", "Clip", "",
		uploads.SingleFile{Field: "videoFile", Path: "unused"}, &thumb)
	if !errors.Is(err, boom) {
		t.Fatalf("expected upload error got %v", err)
	}
}

func TestPublisherCreateFailure(t *testing.T) {
	boom := errors.New("insert failed")
	publisher, _ := testPublisher(t, &fakeVideoCreator{err: boom}, nil)

	_, err := publisher.Publish(context.Background(), "owner-1", "Clip", "",
		uploads.SingleFile{Field: "videoFile", Path: "unused"}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected create error got %v", err)
	}
}
