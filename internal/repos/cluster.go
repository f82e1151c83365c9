package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

type ClusterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, clusters []*types.CoordinationCluster) ([]*types.CoordinationCluster, error)
	DeleteWindow(ctx context.Context, tx *gorm.DB, platform string, start, end time.Time) error
	GetByClusterID(ctx context.Context, tx *gorm.DB, clusterID string) (*types.CoordinationCluster, error)
	GetActive(ctx context.Context, tx *gorm.DB, platform string, limit int) ([]*types.CoordinationCluster, error)
	GetByAccount(ctx context.Context, tx *gorm.DB, accountID string, limit int) ([]*types.CoordinationCluster, error)
	CountActive(ctx context.Context, tx *gorm.DB, platform string) (int64, error)
}

type clusterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClusterRepo(db *gorm.DB, baseLog *logger.Logger) ClusterRepo {
	repoLog := baseLog.With("repo", "ClusterRepo")
	return &clusterRepo{db: db, log: repoLog}
}

// Create inserts clusters together with their member rows through the
// association.
func (cr *clusterRepo) Create(ctx context.Context, tx *gorm.DB, clusters []*types.CoordinationCluster) ([]*types.CoordinationCluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(clusters) == 0 {
		return []*types.CoordinationCluster{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&clusters).Error; err != nil {
		return nil, err
	}
	return clusters, nil
}

// DeleteWindow drops the window's clusters and their member rows so a
// re-analysis replaces them wholesale. Clusters from other windows are not
// touched.
func (cr *clusterRepo) DeleteWindow(ctx context.Context, tx *gorm.DB, platform string, start, end time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var clusterIDs []string
	if err := transaction.WithContext(ctx).
		Model(&types.CoordinationCluster{}).
		Where("platform = ? AND time_window_start = ? AND time_window_end = ?", platform, start, end).
		Pluck("cluster_id", &clusterIDs).Error; err != nil {
		return err
	}
	if len(clusterIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("cluster_id IN ?", clusterIDs).
		Delete(&types.ClusterMember{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("cluster_id IN ?", clusterIDs).
		Delete(&types.CoordinationCluster{}).Error
}

func (cr *clusterRepo) GetByClusterID(ctx context.Context, tx *gorm.DB, clusterID string) (*types.CoordinationCluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.CoordinationCluster
	if err := transaction.WithContext(ctx).
		Preload("Members").
		Where("cluster_id = ?", clusterID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *clusterRepo) GetActive(ctx context.Context, tx *gorm.DB, platform string, limit int) ([]*types.CoordinationCluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.CoordinationCluster
	query := transaction.WithContext(ctx).
		Preload("Members").
		Where("active = ?", true).
		Order("detected_at DESC")
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *clusterRepo) CountActive(ctx context.Context, tx *gorm.DB, platform string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var count int64
	query := transaction.WithContext(ctx).
		Model(&types.CoordinationCluster{}).
		Where("active = ?", true)
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (cr *clusterRepo) GetByAccount(ctx context.Context, tx *gorm.DB, accountID string, limit int) ([]*types.CoordinationCluster, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var clusterIDs []string
	if err := transaction.WithContext(ctx).
		Model(&types.ClusterMember{}).
		Where("account_id = ?", accountID).
		Pluck("cluster_id", &clusterIDs).Error; err != nil {
		return nil, err
	}
	if len(clusterIDs) == 0 {
		return []*types.CoordinationCluster{}, nil
	}

	var results []*types.CoordinationCluster
	query := transaction.WithContext(ctx).
		Preload("Members").
		Where("cluster_id IN ?", clusterIDs).
		Order("detected_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
