package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type fakeSubscriptionStore struct {
	created []models.Subscription
	deleted [][2]string
	err     error
}

func (f *fakeSubscriptionStore) Create(_ context.Context, sub models.Subscription) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, sub)
	return nil
}

func (f *fakeSubscriptionStore) Delete(_ context.Context, subscriberID, channelID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, [2]string{subscriberID, channelID})
	return nil
}

func TestSubscriptionHandlerSubscribe(t *testing.T) {
	store := &fakeSubscriptionStore{}
	handler := SubscriptionHandler{Subscriptions: store}

	body := bytes.NewBufferString(`{"channelId":"chan-1"}`)
	req := authedRequest(http.MethodPost, "/api/v1/subscriptions", body)
	rec := httptest.NewRecorder()

	handler.Subscribe(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one edge got %d", len(store.created))
	}
	edge := store.created[0]
	if edge.SubscriberID != "user-1" || edge.ChannelID != "chan-1" || edge.ID == "" {
		t.Fatalf("unexpected edge %+v", edge)
	}
}

func TestSubscriptionHandlerSelfSubscribe(t *testing.T) {
	handler := SubscriptionHandler{Subscriptions: &fakeSubscriptionStore{}}

	body := bytes.NewBufferString(`{"channelId":"user-1"}`)
	req := authedRequest(http.MethodPost, "/api/v1/subscriptions", body)
	rec := httptest.NewRecorder()

	handler.Subscribe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self subscribe got %d", rec.Code)
	}
}

func TestSubscriptionHandlerSubscribeMissingChannel(t *testing.T) {
	handler := SubscriptionHandler{Subscriptions: &fakeSubscriptionStore{}}

	body := bytes.NewBufferString(`{}`)
	req := authedRequest(http.MethodPost, "/api/v1/subscriptions", body)
	rec := httptest.NewRecorder()

	handler.Subscribe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestSubscriptionHandlerUnsubscribe(t *testing.T) {
	store := &fakeSubscriptionStore{}
	handler := SubscriptionHandler{Subscriptions: store}

	body := bytes.NewBufferString(`{"channelId":"chan-1"}`)
	req := authedRequest(http.MethodDelete, "/api/v1/subscriptions", body)
	rec := httptest.NewRecorder()

	handler.Unsubscribe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.deleted) != 1 || store.deleted[0] != [2]string{"user-1", "chan-1"} {
		t.Fatalf("unexpected deletions %+v", store.deleted)
	}
}

func TestSubscriptionHandlerUnsubscribeUnknownEdge(t *testing.T) {
	handler := SubscriptionHandler{Subscriptions: &fakeSubscriptionStore{err: repositories.ErrNotFound}}

	body := bytes.NewBufferString(`{"channelId":"chan-1"}`)
	req := authedRequest(http.MethodDelete, "/api/v1/subscriptions", body)
	rec := httptest.NewRecorder()

	handler.Unsubscribe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestSubscriptionHandlerDispatch(t *testing.T) {
	handler := SubscriptionHandler{Subscriptions: &fakeSubscriptionStore{}}

	req := authedRequest(http.MethodGet, "/api/v1/subscriptions", nil)
	rec := httptest.NewRecorder()

	handler.handle(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
}
