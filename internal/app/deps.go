package app

import (
	"log/slog"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/channels"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/history"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/uploads"
	"github.com/clipstream/backend/internal/videos"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned ingestor must be shut down on exit so queued video
// assets drain.
func buildDependencies(pool db.Pool, cfg config.Config, store uploads.AssetStorage, logger *slog.Logger) (handlers.Dependencies, *videos.AssetIngestor) {
	users := repositories.NewPostgresUserRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	videoRepo := repositories.NewPostgresVideoRepository(pool)

	issuer := auth.NewTokenIssuer(cfg.Tokens.AccessSecret, cfg.Tokens.RefreshSecret, cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL)
	hasher := auth.NewHasher(cfg.HashCost)
	sessions := auth.NewManager(users, issuer, hasher)

	uploader := uploads.NewService(store)
	ingestor := videos.NewAssetIngestor(store, videoRepo, videos.AssetIngestorConfig{
		QueueSize: cfg.Ingest.QueueSize,
		Workers:   cfg.Ingest.Workers,
	}, logger)
	publisher := videos.NewPublisher(videoRepo, uploader, ingestor)

	snapshots := videos.NewCachingResolver(videoRepo, time.Minute)

	return handlers.Dependencies{
		Sessions:        sessions,
		Uploads:         uploader,
		Profiles:        channels.NewEngine(users, subscriptions),
		History:         history.NewDenormalizer(users, snapshots),
		HistoryRecorder: users,
		Subscriptions:   subscriptions,
		Publisher:       publisher,
		Feed:            videoRepo,
		Verifier:        issuer,
		Limiter:         middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		Pool:            pool,
		UploadDir:       cfg.UploadDir,
	}, ingestor
}
