package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/repos"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

// IngestService accepts batches of collected accounts and posts from the
// platform collectors. Accounts are upserted so repeated deliveries refresh
// profile counters; posts dedupe on their platform id.
type IngestService interface {
	IngestBatch(ctx context.Context, accounts []*types.Account, posts []*types.Post) (int, int, error)
}

type ingestService struct {
	db          *gorm.DB
	log         *logger.Logger
	accountRepo repos.AccountRepo
	postRepo    repos.PostRepo
}

func NewIngestService(db *gorm.DB, log *logger.Logger, accountRepo repos.AccountRepo, postRepo repos.PostRepo) IngestService {
	serviceLog := log.With("service", "IngestService")
	return &ingestService{
		db:          db,
		log:         serviceLog,
		accountRepo: accountRepo,
		postRepo:    postRepo,
	}
}

func (is *ingestService) IngestBatch(ctx context.Context, accounts []*types.Account, posts []*types.Post) (int, int, error) {
	for _, a := range accounts {
		if a.ID == "" || a.Platform == "" {
			return 0, 0, fmt.Errorf("account missing id or platform")
		}
		if a.FirstSeen.IsZero() {
			a.FirstSeen = time.Now().UTC()
		}
	}
	for _, p := range posts {
		if p.ID == "" || p.AccountID == "" || p.Platform == "" {
			return 0, 0, fmt.Errorf("post missing id, account_id or platform")
		}
		if p.PostType == "" {
			p.PostType = types.PostTypeOriginal
		}
		if p.CollectedAt.IsZero() {
			p.CollectedAt = time.Now().UTC()
		}
	}

	if err := is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := is.accountRepo.Upsert(ctx, tx, accounts); err != nil {
			return fmt.Errorf("upsert accounts: %w", err)
		}
		if _, err := is.postRepo.Create(ctx, tx, posts); err != nil {
			return fmt.Errorf("create posts: %w", err)
		}
		return nil
	}); err != nil {
		is.log.Error("Ingest batch failed", "accounts", len(accounts), "posts", len(posts), "error", err)
		return 0, 0, err
	}

	is.log.Info("Ingested batch", "accounts", len(accounts), "posts", len(posts))
	return len(accounts), len(posts), nil
}
