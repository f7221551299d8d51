package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

type fakeStore struct{}

func (fakeStore) Save(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://cdn.example.com/" + name, nil
}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		Tokens: config.TokenConfig{
			AccessSecret:  "access-secret",
			AccessTTL:     time.Minute,
			RefreshSecret: "refresh-secret",
			RefreshTTL:    time.Hour,
		},
		Ingest: config.IngestConfig{Workers: 1, QueueSize: 1},
	}

	deps, ingestor := buildDependencies(fakePool{}, cfg, fakeStore{}, nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = ingestor.Shutdown(ctx)
	}()

	if deps.Sessions == nil {
		t.Fatal("expected session service to be configured")
	}
	if deps.Uploads == nil {
		t.Fatal("expected upload service to be configured")
	}
	if deps.Profiles == nil {
		t.Fatal("expected channel profile engine to be configured")
	}
	if deps.History == nil || deps.HistoryRecorder == nil {
		t.Fatal("expected watch history collaborators to be configured")
	}
	if deps.Subscriptions == nil {
		t.Fatal("expected subscription store to be configured")
	}
	if deps.Publisher == nil || deps.Feed == nil {
		t.Fatal("expected video collaborators to be configured")
	}
	if deps.Verifier == nil {
		t.Fatal("expected access verifier to be configured")
	}
	if deps.Limiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
	if ingestor == nil {
		t.Fatal("expected asset ingestor to be returned")
	}
}
