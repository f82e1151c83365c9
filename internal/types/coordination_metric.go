package types

import (
	"time"
)

const (
	BucketTypeHourly = "hourly"
	BucketTypeDaily  = "daily"
)

// CoordinationMetric is the aggregate coordination measurement for one
// (platform, time bucket, bucket type). The composite unique index makes
// repeated analysis of a window an upsert rather than a duplicate row.
type CoordinationMetric struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Platform   string    `gorm:"not null;uniqueIndex:idx_metrics_unique,priority:1" json:"platform"`
	TimeBucket time.Time `gorm:"not null;uniqueIndex:idx_metrics_unique,priority:2;index" json:"time_bucket"`
	BucketType string    `gorm:"not null;uniqueIndex:idx_metrics_unique,priority:3" json:"bucket_type"`

	CoordinationScore  float64 `gorm:"default:0;index" json:"coordination_score"` // 0-100
	TotalPosts         int     `gorm:"column:total_posts_analyzed;default:0" json:"total_posts"`
	CoordinatedPosts   int     `gorm:"column:coordinated_posts_count;default:0" json:"coordinated_posts"`
	OrganicPosts       int     `gorm:"column:organic_posts_count;default:0" json:"organic_posts"`
	ActiveClusterCount int     `gorm:"default:0" json:"active_cluster_count"`
	AvgClusterSize     float64 `gorm:"default:0" json:"avg_cluster_size"`
	SyncRate           float64 `gorm:"column:synchronized_posting_rate;default:0" json:"sync_rate"`
	URLSharingRate     float64 `gorm:"column:url_sharing_rate;default:0" json:"url_sharing_rate"`
	TextSimilarityRate float64 `gorm:"column:text_similarity_rate;default:0" json:"text_similarity_rate"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (CoordinationMetric) TableName() string { return "coordination_metrics" }
