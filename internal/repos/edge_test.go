package repos

import (
	"context"
	"testing"
	"time"

	"github.com/murmurwatch/murmur-backend/internal/types"
)

func seedEdges(t *testing.T, repo EdgeRepo, start, end time.Time) {
	t.Helper()
	edges := []*types.AccountEdge{
		{AccountID1: "alice", AccountID2: "bob", Platform: "bluesky", EdgeTypes: "synchronized_posting", Weight: 1.0, TimeWindowStart: start, TimeWindowEnd: end},
		{AccountID1: "alice", AccountID2: "carol", Platform: "bluesky", EdgeTypes: "url", Weight: 1.5, TimeWindowStart: start, TimeWindowEnd: end},
		{AccountID1: "bob", AccountID2: "carol", Platform: "bluesky", EdgeTypes: "text", Weight: 0.9, TimeWindowStart: start, TimeWindowEnd: end},
	}
	if _, err := repo.Create(context.Background(), nil, edges); err != nil {
		t.Fatalf("seed edges: %v", err)
	}
}

func TestEdgeRepoGetByWindow(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewEdgeRepo(gormDB, testLogger())
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	seedEdges(t, repo, start, end)

	got, err := repo.GetByWindow(ctx, nil, "bluesky", start, end)
	if err != nil {
		t.Fatalf("GetByWindow: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("edges = %d, want 3", len(got))
	}
	for i, e := range got {
		if e.AccountID1 >= e.AccountID2 {
			t.Errorf("edge %d accounts not ordered: %s >= %s", i, e.AccountID1, e.AccountID2)
		}
		if i > 0 && got[i-1].AccountID1 > e.AccountID1 {
			t.Errorf("edges not sorted by first account at %d", i)
		}
	}

	other, err := repo.GetByWindow(ctx, nil, "bluesky", start.Add(time.Hour), end.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetByWindow other window: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("other window edges = %d, want 0", len(other))
	}
}

func TestEdgeRepoGetByAccount(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewEdgeRepo(gormDB, testLogger())
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedEdges(t, repo, start, start.Add(time.Hour))

	// bob appears on both sides of the pair ordering.
	got, err := repo.GetByAccount(ctx, nil, "bob", 0)
	if err != nil {
		t.Fatalf("GetByAccount: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("bob edges = %d, want 2", len(got))
	}
	for _, e := range got {
		if e.AccountID1 != "bob" && e.AccountID2 != "bob" {
			t.Errorf("edge %s/%s does not involve bob", e.AccountID1, e.AccountID2)
		}
	}
}

func TestEdgeRepoDeleteWindow(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewEdgeRepo(gormDB, testLogger())
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	seedEdges(t, repo, start, end)

	if err := repo.DeleteWindow(ctx, nil, "bluesky", start, end); err != nil {
		t.Fatalf("DeleteWindow: %v", err)
	}
	got, err := repo.GetByWindow(ctx, nil, "bluesky", start, end)
	if err != nil {
		t.Fatalf("GetByWindow after delete: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("edges after delete = %d, want 0", len(got))
	}
}
