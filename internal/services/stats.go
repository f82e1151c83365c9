package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/repos"
)

// Overview is the headline numbers for a platform (or all platforms when the
// platform filter is empty).
type Overview struct {
	Platform        string `json:"platform,omitempty"`
	Posts           int64  `json:"posts"`
	Accounts        int64  `json:"accounts"`
	ActiveClusters  int64  `json:"active_clusters"`
	FlaggedAccounts int64  `json:"flagged_accounts"`
}

type StatsService interface {
	GetOverview(ctx context.Context, platform string) (*Overview, error)
}

type statsService struct {
	db           *gorm.DB
	log          *logger.Logger
	postRepo     repos.PostRepo
	accountRepo  repos.AccountRepo
	clusterRepo  repos.ClusterRepo
	botScoreRepo repos.BotScoreRepo
}

func NewStatsService(
	db *gorm.DB,
	log *logger.Logger,
	postRepo repos.PostRepo,
	accountRepo repos.AccountRepo,
	clusterRepo repos.ClusterRepo,
	botScoreRepo repos.BotScoreRepo,
) StatsService {
	serviceLog := log.With("service", "StatsService")
	return &statsService{
		db:           db,
		log:          serviceLog,
		postRepo:     postRepo,
		accountRepo:  accountRepo,
		clusterRepo:  clusterRepo,
		botScoreRepo: botScoreRepo,
	}
}

func (ss *statsService) GetOverview(ctx context.Context, platform string) (*Overview, error) {
	posts, err := ss.postRepo.CountByPlatform(ctx, nil, platform)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	accounts, err := ss.accountRepo.CountByPlatform(ctx, nil, platform)
	if err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}
	clusters, err := ss.clusterRepo.CountActive(ctx, nil, platform)
	if err != nil {
		return nil, fmt.Errorf("count clusters: %w", err)
	}
	flagged, err := ss.botScoreRepo.CountFlagged(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count flagged: %w", err)
	}
	return &Overview{
		Platform:        platform,
		Posts:           posts,
		Accounts:        accounts,
		ActiveClusters:  clusters,
		FlaggedAccounts: flagged,
	}, nil
}
