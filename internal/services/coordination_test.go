package services

import (
	"context"
	"testing"
	"time"

	"github.com/murmurwatch/murmur-backend/internal/detection"
	"github.com/murmurwatch/murmur-backend/internal/repos"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

func newCoordinationService(t *testing.T) (CoordinationService, repos.PostRepo, repos.MetricRepo) {
	t.Helper()
	gormDB := newTestDB(t)
	log := testLogger()

	detector, err := detection.NewDetector(detection.DefaultConfig(), log)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	postRepo := repos.NewPostRepo(gormDB, log)
	edgeRepo := repos.NewEdgeRepo(gormDB, log)
	clusterRepo := repos.NewClusterRepo(gormDB, log)
	metricRepo := repos.NewMetricRepo(gormDB, log)

	svc := NewCoordinationService(gormDB, log, detector, postRepo, edgeRepo, clusterRepo, metricRepo)
	return svc, postRepo, metricRepo
}

func burstPosts(hour time.Time) []*types.Post {
	msg := "everyone needs to see this shocking report immediately friends"
	return []*types.Post{
		{ID: "b1", AccountID: "bot1", Platform: "bluesky", Content: msg, CreatedAt: hour.Add(1 * time.Second), CollectedAt: hour},
		{ID: "b2", AccountID: "bot2", Platform: "bluesky", Content: msg, CreatedAt: hour.Add(4 * time.Second), CollectedAt: hour},
		{ID: "b3", AccountID: "bot3", Platform: "bluesky", Content: msg, CreatedAt: hour.Add(8 * time.Second), CollectedAt: hour},
		{ID: "o1", AccountID: "organic1", Platform: "bluesky", Content: "sharing photos from my weekend pottery class", CreatedAt: hour.Add(30 * time.Minute), CollectedAt: hour},
	}
}

func TestAnalyzeHourPersistsResults(t *testing.T) {
	svc, postRepo, _ := newCoordinationService(t)
	ctx := context.Background()
	hour := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, err := postRepo.Create(ctx, nil, burstPosts(hour)); err != nil {
		t.Fatalf("seed posts: %v", err)
	}

	result, err := svc.AnalyzeHour(ctx, "bluesky", hour)
	if err != nil {
		t.Fatalf("AnalyzeHour: %v", err)
	}
	if result.CoordinationScore <= 0 {
		t.Errorf("score = %v, want > 0", result.CoordinationScore)
	}
	if len(result.Clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(result.Clusters))
	}

	clusters, err := svc.GetActiveClusters(ctx, "bluesky", 10)
	if err != nil {
		t.Fatalf("GetActiveClusters: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("stored clusters = %d, want 1", len(clusters))
	}
	if clusters[0].MemberCount != 3 {
		t.Errorf("member count = %d, want 3", clusters[0].MemberCount)
	}
	if len(clusters[0].Members) != 3 {
		t.Errorf("member rows = %d, want 3", len(clusters[0].Members))
	}

	edges, err := svc.GetAccountEdges(ctx, "bot1", 0)
	if err != nil {
		t.Fatalf("GetAccountEdges: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("bot1 edges = %d, want 2", len(edges))
	}
	for _, e := range edges {
		if e.AccountID1 >= e.AccountID2 {
			t.Errorf("edge accounts not ordered: %s >= %s", e.AccountID1, e.AccountID2)
		}
		if e.Weight <= 0 {
			t.Errorf("edge weight = %v, want > 0", e.Weight)
		}
	}
}

func TestAnalyzeHourIdempotent(t *testing.T) {
	svc, postRepo, metricRepo := newCoordinationService(t)
	ctx := context.Background()
	hour := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, err := postRepo.Create(ctx, nil, burstPosts(hour)); err != nil {
		t.Fatalf("seed posts: %v", err)
	}

	first, err := svc.AnalyzeHour(ctx, "bluesky", hour)
	if err != nil {
		t.Fatalf("first AnalyzeHour: %v", err)
	}
	second, err := svc.AnalyzeHour(ctx, "bluesky", hour)
	if err != nil {
		t.Fatalf("second AnalyzeHour: %v", err)
	}
	if first.CoordinationScore != second.CoordinationScore {
		t.Errorf("scores differ across runs: %v vs %v", first.CoordinationScore, second.CoordinationScore)
	}

	// Replacement, not accumulation.
	edges, err := svc.GetAccountEdges(ctx, "bot1", 0)
	if err != nil {
		t.Fatalf("GetAccountEdges: %v", err)
	}
	if len(edges) != 2 {
		t.Errorf("bot1 edges after re-run = %d, want 2", len(edges))
	}
	clusters, err := svc.GetActiveClusters(ctx, "bluesky", 0)
	if err != nil {
		t.Fatalf("GetActiveClusters: %v", err)
	}
	if len(clusters) != 1 {
		t.Errorf("clusters after re-run = %d, want 1", len(clusters))
	}
	metric, err := metricRepo.GetBucket(ctx, nil, "bluesky", types.BucketTypeHourly, hour)
	if err != nil {
		t.Fatalf("GetBucket: %v", err)
	}
	if metric.TotalPosts != 4 {
		t.Errorf("metric total posts = %d, want 4", metric.TotalPosts)
	}
}

func TestAnalyzeHourEmptyWindow(t *testing.T) {
	svc, _, metricRepo := newCoordinationService(t)
	ctx := context.Background()
	hour := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	result, err := svc.AnalyzeHour(ctx, "bluesky", hour)
	if err != nil {
		t.Fatalf("AnalyzeHour: %v", err)
	}
	if result.CoordinationScore != 0 || result.TotalPosts != 0 {
		t.Errorf("empty window result = %+v, want zeros", result)
	}

	metric, err := metricRepo.GetBucket(ctx, nil, "bluesky", types.BucketTypeHourly, hour)
	if err != nil {
		t.Fatalf("GetBucket: %v", err)
	}
	if metric.CoordinationScore != 0 {
		t.Errorf("stored score = %v, want 0", metric.CoordinationScore)
	}
}

func TestAnalyzeRangeWalksHours(t *testing.T) {
	svc, postRepo, _ := newCoordinationService(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	if _, err := postRepo.Create(ctx, nil, burstPosts(start.Add(time.Hour))); err != nil {
		t.Fatalf("seed posts: %v", err)
	}

	results, err := svc.AnalyzeRange(ctx, "bluesky", start, start.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("AnalyzeRange: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].CoordinationScore != 0 {
		t.Errorf("hour 0 score = %v, want 0", results[0].CoordinationScore)
	}
	if results[1].CoordinationScore <= 0 {
		t.Errorf("hour 1 score = %v, want > 0", results[1].CoordinationScore)
	}
}

func TestGetSpikes(t *testing.T) {
	svc, _, metricRepo := newCoordinationService(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Hour)
	scores := []float64{8, 9, 10, 8, 9, 10, 9, 8, 10, 9, 8, 85}
	for i, score := range scores {
		bucket := now.Add(-time.Duration(len(scores)-i) * time.Hour)
		if _, err := metricRepo.Upsert(ctx, nil, &types.CoordinationMetric{
			Platform:          "bluesky",
			TimeBucket:        bucket,
			BucketType:        types.BucketTypeHourly,
			CoordinationScore: score,
		}); err != nil {
			t.Fatalf("seed metric: %v", err)
		}
	}

	spikes, err := svc.GetSpikes(ctx, "bluesky", 48, 2.0)
	if err != nil {
		t.Fatalf("GetSpikes: %v", err)
	}
	if len(spikes) != 1 {
		t.Fatalf("spikes = %d, want 1", len(spikes))
	}
	if spikes[0].CoordinationScore != 85 {
		t.Errorf("spike score = %v, want 85", spikes[0].CoordinationScore)
	}
}
