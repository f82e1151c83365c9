package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

type MetricRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, metric *types.CoordinationMetric) (*types.CoordinationMetric, error)
	GetSince(ctx context.Context, tx *gorm.DB, platform, bucketType string, since time.Time) ([]*types.CoordinationMetric, error)
	GetBucket(ctx context.Context, tx *gorm.DB, platform, bucketType string, bucket time.Time) (*types.CoordinationMetric, error)
}

type metricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricRepo(db *gorm.DB, baseLog *logger.Logger) MetricRepo {
	repoLog := baseLog.With("repo", "MetricRepo")
	return &metricRepo{db: db, log: repoLog}
}

// Upsert writes the metric for one (platform, time bucket, bucket type),
// overwriting the previous measurement when the window is re-analyzed.
func (mr *metricRepo) Upsert(ctx context.Context, tx *gorm.DB, metric *types.CoordinationMetric) (*types.CoordinationMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "platform"}, {Name: "time_bucket"}, {Name: "bucket_type"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"coordination_score", "total_posts_analyzed",
				"coordinated_posts_count", "organic_posts_count",
				"active_cluster_count", "avg_cluster_size",
				"synchronized_posting_rate", "url_sharing_rate",
				"text_similarity_rate",
			}),
		}).
		Create(metric).Error; err != nil {
		return nil, err
	}
	return metric, nil
}

func (mr *metricRepo) GetSince(ctx context.Context, tx *gorm.DB, platform, bucketType string, since time.Time) ([]*types.CoordinationMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.CoordinationMetric
	query := transaction.WithContext(ctx).
		Where("bucket_type = ? AND time_bucket >= ?", bucketType, since).
		Order("time_bucket ASC")
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *metricRepo) GetBucket(ctx context.Context, tx *gorm.DB, platform, bucketType string, bucket time.Time) (*types.CoordinationMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var result types.CoordinationMetric
	if err := transaction.WithContext(ctx).
		Where("platform = ? AND bucket_type = ? AND time_bucket = ?", platform, bucketType, bucket).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
