package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/uploads"
	"github.com/clipstream/backend/internal/videos"
)

type fakePublisher struct {
	ownerID   string
	title     string
	thumbnail *uploads.SingleFile
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, ownerID, title, description string, file uploads.SingleFile, thumbnail *uploads.SingleFile) (models.Video, error) {
	f.ownerID = ownerID
	f.title = title
	f.thumbnail = thumbnail
	if f.err != nil {
		return models.Video{}, f.err
	}
	return models.Video{ID: "vid-1", OwnerID: ownerID, Title: title, AssetStatus: models.AssetStatusPending}, nil
}

type fakeFeed struct {
	videos []models.Video
}

func (f fakeFeed) ListFeed(_ context.Context, userID string) ([]models.Video, error) {
	return f.videos, nil
}

type fakeRecorder struct {
	appended [][2]string
}

func (f *fakeRecorder) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	f.appended = append(f.appended, [2]string{userID, videoID})
	return nil
}

func TestVideoHandlerPublish(t *testing.T) {
	publisher := &fakePublisher{}
	handler := VideoHandler{Publisher: publisher, UploadDir: t.TempDir()}

	body, contentType := multipartBody(t,
		map[string]string{"title": "My Clip", "description": "a clip"},
		map[string]string{"videoFile": "clip.mp4", "thumbnail": "thumb.png"},
	)
	req := authedRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", rec.Code, rec.Body.String())
	}
	if publisher.ownerID != "user-1" || publisher.title != "My Clip" {
		t.Fatalf("unexpected delegation owner=%q title=%q", publisher.ownerID, publisher.title)
	}
	if publisher.thumbnail == nil {
		t.Fatal("expected thumbnail to be forwarded")
	}

	var payload struct {
		Video models.Video `json:"video"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Video.AssetStatus != models.AssetStatusPending {
		t.Fatalf("expected pending video got %+v", payload.Video)
	}
}

func TestVideoHandlerPublishWithoutThumbnail(t *testing.T) {
	publisher := &fakePublisher{}
	handler := VideoHandler{Publisher: publisher, UploadDir: t.TempDir()}

	body, contentType := multipartBody(t,
		map[string]string{"title": "My Clip"},
		map[string]string{"videoFile": "clip.mp4"},
	)
	req := authedRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", rec.Code, rec.Body.String())
	}
	if publisher.thumbnail != nil {
		t.Fatal("expected no thumbnail")
	}
}

func TestVideoHandlerPublishRequiresTitleAndFile(t *testing.T) {
	handler := VideoHandler{Publisher: &fakePublisher{}, UploadDir: t.TempDir()}

	body, contentType := multipartBody(t, nil, map[string]string{"videoFile": "clip.mp4"})
	req := authedRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Publish(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title got %d", rec.Code)
	}

	body, contentType = multipartBody(t, map[string]string{"title": "My Clip"}, nil)
	req = authedRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	handler.Publish(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing video file got %d", rec.Code)
	}
}

func TestVideoHandlerPublishMissingTitleFromService(t *testing.T) {
	handler := VideoHandler{Publisher: &fakePublisher{err: videos.ErrMissingTitle}, UploadDir: t.TempDir()}

	body, contentType := multipartBody(t,
		map[string]string{"title": "x"},
		map[string]string{"videoFile": "clip.mp4"},
	)
	req := authedRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestVideoHandlerRecordWatch(t *testing.T) {
	recorder := &fakeRecorder{}
	handler := VideoHandler{History: recorder}

	body := bytes.NewBufferString(`{"videoId":"vid-9"}`)
	req := authedRequest(http.MethodPost, "/api/v1/videos/watch", body)
	rec := httptest.NewRecorder()

	handler.RecordWatch(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(recorder.appended) != 1 || recorder.appended[0] != [2]string{"user-1", "vid-9"} {
		t.Fatalf("unexpected appends %+v", recorder.appended)
	}
}

func TestVideoHandlerRecordWatchValidation(t *testing.T) {
	handler := VideoHandler{History: &fakeRecorder{}}

	body := bytes.NewBufferString(`{}`)
	req := authedRequest(http.MethodPost, "/api/v1/videos/watch", body)
	rec := httptest.NewRecorder()

	handler.RecordWatch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestVideoHandlerListFeed(t *testing.T) {
	handler := VideoHandler{Feed: fakeFeed{videos: []models.Video{
		{ID: "vid-1", AssetStatus: models.AssetStatusReady},
	}}}

	req := authedRequest(http.MethodGet, "/api/v1/videos/feed", nil)
	rec := httptest.NewRecorder()

	handler.ListFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Videos []models.Video `json:"videos"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Videos) != 1 || payload.Videos[0].ID != "vid-1" {
		t.Fatalf("unexpected feed %+v", payload.Videos)
	}
}
