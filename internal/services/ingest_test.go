package services

import (
	"context"
	"testing"
	"time"

	"github.com/murmurwatch/murmur-backend/internal/repos"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

func TestIngestBatch(t *testing.T) {
	gormDB := newTestDB(t)
	log := testLogger()
	accountRepo := repos.NewAccountRepo(gormDB, log)
	postRepo := repos.NewPostRepo(gormDB, log)
	svc := NewIngestService(gormDB, log, accountRepo, postRepo)
	ctx := context.Background()

	accounts := []*types.Account{
		{ID: "did:plc:a", Username: "alice", Platform: "bluesky", FollowerCount: 10},
	}
	posts := []*types.Post{
		{ID: "p1", AccountID: "did:plc:a", Platform: "bluesky", Content: "hello", CreatedAt: time.Now().UTC()},
	}

	na, np, err := svc.IngestBatch(ctx, accounts, posts)
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if na != 1 || np != 1 {
		t.Errorf("counts = %d/%d, want 1/1", na, np)
	}

	// Redelivery refreshes the account and skips the duplicate post.
	accounts[0].FollowerCount = 25
	if _, _, err := svc.IngestBatch(ctx, accounts, posts); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	stored, err := accountRepo.GetByIDs(ctx, nil, []string{"did:plc:a"})
	if err != nil || len(stored) != 1 {
		t.Fatalf("reload account: %v", err)
	}
	if stored[0].FollowerCount != 25 {
		t.Errorf("follower count = %d, want 25 after upsert", stored[0].FollowerCount)
	}
	count, err := postRepo.CountByPlatform(ctx, nil, "bluesky")
	if err != nil {
		t.Fatalf("count posts: %v", err)
	}
	if count != 1 {
		t.Errorf("post count = %d, want 1 after dedupe", count)
	}
}

func TestIngestBatchRejectsInvalid(t *testing.T) {
	gormDB := newTestDB(t)
	log := testLogger()
	svc := NewIngestService(gormDB, log, repos.NewAccountRepo(gormDB, log), repos.NewPostRepo(gormDB, log))

	_, _, err := svc.IngestBatch(context.Background(), nil, []*types.Post{{ID: "p1"}})
	if err == nil {
		t.Fatal("expected error for post without account or platform")
	}
}
