package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/murmurwatch/murmur-backend/internal/detection"
	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/repos"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

type CoordinationService interface {
	AnalyzeHour(ctx context.Context, platform string, hourStart time.Time) (*detection.Result, error)
	AnalyzeRange(ctx context.Context, platform string, start, end time.Time) ([]*detection.Result, error)
	GetRecentMetrics(ctx context.Context, platform string, hours int) ([]*types.CoordinationMetric, error)
	GetSpikes(ctx context.Context, platform string, hours int, thresholdStd float64) ([]detection.Spike, error)
	GetActiveClusters(ctx context.Context, platform string, limit int) ([]*types.CoordinationCluster, error)
	GetCluster(ctx context.Context, clusterID string) (*types.CoordinationCluster, error)
	GetAccountEdges(ctx context.Context, accountID string, limit int) ([]*types.AccountEdge, error)
	GetAccountClusters(ctx context.Context, accountID string, limit int) ([]*types.CoordinationCluster, error)
}

type coordinationService struct {
	db          *gorm.DB
	log         *logger.Logger
	detector    *detection.Detector
	postRepo    repos.PostRepo
	edgeRepo    repos.EdgeRepo
	clusterRepo repos.ClusterRepo
	metricRepo  repos.MetricRepo
}

func NewCoordinationService(
	db *gorm.DB,
	log *logger.Logger,
	detector *detection.Detector,
	postRepo repos.PostRepo,
	edgeRepo repos.EdgeRepo,
	clusterRepo repos.ClusterRepo,
	metricRepo repos.MetricRepo,
) CoordinationService {
	serviceLog := log.With("service", "CoordinationService")
	return &coordinationService{
		db:          db,
		log:         serviceLog,
		detector:    detector,
		postRepo:    postRepo,
		edgeRepo:    edgeRepo,
		clusterRepo: clusterRepo,
		metricRepo:  metricRepo,
	}
}

// AnalyzeHour analyzes one hourly window and stores the outcome. Storage is
// transactional: the window's previous edges and clusters are replaced and
// its metric upserted, or nothing changes at all. Re-running the same hour is
// therefore idempotent.
func (cs *coordinationService) AnalyzeHour(ctx context.Context, platform string, hourStart time.Time) (*detection.Result, error) {
	windowStart := hourStart.UTC().Truncate(time.Hour)
	windowEnd := windowStart.Add(time.Hour)

	posts, err := cs.postRepo.GetByPlatformWindow(ctx, nil, platform, windowStart, windowEnd)
	if err != nil {
		cs.log.Error("Failed to load posts for window", "platform", platform, "window_start", windowStart, "error", err)
		return nil, fmt.Errorf("load posts: %w", err)
	}

	result := cs.detector.AnalyzeWindow(platform, windowStart, windowEnd, posts)

	if err := cs.storeResult(ctx, result); err != nil {
		cs.log.Error("Failed to store analysis result", "platform", platform, "window_start", windowStart, "error", err)
		return nil, fmt.Errorf("store result: %w", err)
	}

	cs.log.Info("Analyzed window",
		"platform", platform,
		"window_start", windowStart,
		"score", result.CoordinationScore,
		"clusters", len(result.Clusters),
		"edges", result.EdgeCount)
	return result, nil
}

// AnalyzeRange walks hourly windows from start to end, oldest first. Windows
// are analyzed sequentially; a failing window aborts the walk and returns the
// results gathered so far along with the error.
func (cs *coordinationService) AnalyzeRange(ctx context.Context, platform string, start, end time.Time) ([]*detection.Result, error) {
	var results []*detection.Result
	for hour := start.UTC().Truncate(time.Hour); hour.Before(end); hour = hour.Add(time.Hour) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := cs.AnalyzeHour(ctx, platform, hour)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (cs *coordinationService) GetRecentMetrics(ctx context.Context, platform string, hours int) ([]*types.CoordinationMetric, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return cs.metricRepo.GetSince(ctx, nil, platform, types.BucketTypeHourly, since)
}

// GetSpikes flags hours whose coordination score deviates from the recent
// baseline. The baseline is the same set of metrics the spikes are judged
// against.
func (cs *coordinationService) GetSpikes(ctx context.Context, platform string, hours int, thresholdStd float64) ([]detection.Spike, error) {
	metrics, err := cs.GetRecentMetrics(ctx, platform, hours)
	if err != nil {
		return nil, fmt.Errorf("load metrics: %w", err)
	}
	return detection.DetectSpikes(metrics, thresholdStd), nil
}

func (cs *coordinationService) GetActiveClusters(ctx context.Context, platform string, limit int) ([]*types.CoordinationCluster, error) {
	return cs.clusterRepo.GetActive(ctx, nil, platform, limit)
}

func (cs *coordinationService) GetCluster(ctx context.Context, clusterID string) (*types.CoordinationCluster, error) {
	return cs.clusterRepo.GetByClusterID(ctx, nil, clusterID)
}

func (cs *coordinationService) GetAccountEdges(ctx context.Context, accountID string, limit int) ([]*types.AccountEdge, error) {
	return cs.edgeRepo.GetByAccount(ctx, nil, accountID, limit)
}

func (cs *coordinationService) GetAccountClusters(ctx context.Context, accountID string, limit int) ([]*types.CoordinationCluster, error) {
	return cs.clusterRepo.GetByAccount(ctx, nil, accountID, limit)
}

func (cs *coordinationService) storeResult(ctx context.Context, result *detection.Result) error {
	edgeRows, err := buildEdgeRows(result)
	if err != nil {
		return err
	}
	clusterRows, err := buildClusterRows(result)
	if err != nil {
		return err
	}
	metric := buildMetricRow(result)

	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cs.edgeRepo.DeleteWindow(ctx, tx, result.Platform, result.WindowStart, result.WindowEnd); err != nil {
			return fmt.Errorf("delete window edges: %w", err)
		}
		if _, err := cs.edgeRepo.Create(ctx, tx, edgeRows); err != nil {
			return fmt.Errorf("create edges: %w", err)
		}
		if err := cs.clusterRepo.DeleteWindow(ctx, tx, result.Platform, result.WindowStart, result.WindowEnd); err != nil {
			return fmt.Errorf("delete window clusters: %w", err)
		}
		if _, err := cs.clusterRepo.Create(ctx, tx, clusterRows); err != nil {
			return fmt.Errorf("create clusters: %w", err)
		}
		if _, err := cs.metricRepo.Upsert(ctx, tx, metric); err != nil {
			return fmt.Errorf("upsert metric: %w", err)
		}
		return nil
	})
}

func buildEdgeRows(result *detection.Result) ([]*types.AccountEdge, error) {
	rows := make([]*types.AccountEdge, 0, len(result.Edges))
	for _, e := range result.Edges {
		evidence, err := json.Marshal(e.Evidence)
		if err != nil {
			return nil, fmt.Errorf("marshal edge evidence: %w", err)
		}
		rows = append(rows, &types.AccountEdge{
			AccountID1:      e.AccountA,
			AccountID2:      e.AccountB,
			Platform:        result.Platform,
			EdgeTypes:       strings.Join(e.Types, ","),
			Weight:          e.Weight,
			TimeWindowStart: result.WindowStart,
			TimeWindowEnd:   result.WindowEnd,
			Evidence:        datatypes.JSON(evidence),
		})
	}
	return rows, nil
}

func buildClusterRows(result *detection.Result) ([]*types.CoordinationCluster, error) {
	rows := make([]*types.CoordinationCluster, 0, len(result.Clusters))
	for _, c := range result.Clusters {
		members := make([]types.ClusterMember, 0, c.Size)
		for _, accountID := range c.Members {
			centrality := c.Centrality[accountID]
			members = append(members, types.ClusterMember{
				ClusterID:       c.ClusterID,
				AccountID:       accountID,
				CentralityScore: centrality,
				EdgeCount:       int(math.Round(centrality * float64(c.Size-1))),
			})
		}
		metadata, err := json.Marshal(map[string]any{
			"edge_count": c.EdgeCount,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal cluster metadata: %w", err)
		}
		rows = append(rows, &types.CoordinationCluster{
			ClusterID:       c.ClusterID,
			Platform:        result.Platform,
			TimeWindowStart: result.WindowStart,
			TimeWindowEnd:   result.WindowEnd,
			MemberCount:     c.Size,
			DensityScore:    c.Density,
			PrimaryType:     c.PrimaryType,
			Score:           result.CoordinationScore,
			Active:          true,
			Metadata:        datatypes.JSON(metadata),
			Members:         members,
		})
	}
	return rows, nil
}

func buildMetricRow(result *detection.Result) *types.CoordinationMetric {
	avgClusterSize := 0.0
	if len(result.Clusters) > 0 {
		for _, c := range result.Clusters {
			avgClusterSize += float64(c.Size)
		}
		avgClusterSize /= float64(len(result.Clusters))
	}
	return &types.CoordinationMetric{
		Platform:           result.Platform,
		TimeBucket:         result.WindowStart,
		BucketType:         types.BucketTypeHourly,
		CoordinationScore:  result.CoordinationScore,
		TotalPosts:         result.TotalPosts,
		CoordinatedPosts:   result.CoordinatedPosts,
		OrganicPosts:       result.OrganicPosts,
		ActiveClusterCount: len(result.Clusters),
		AvgClusterSize:     avgClusterSize,
		SyncRate:           result.SyncRate,
		URLSharingRate:     result.URLSharingRate,
		TextSimilarityRate: result.TextSimilarityRate,
	}
}
