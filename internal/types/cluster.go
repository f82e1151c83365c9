package types

import (
	"time"

	"gorm.io/datatypes"
)

// CoordinationCluster is a group of accounts that behaved in a coordinated way
// during one analysis window. Re-analyzing the same window replaces the
// window's clusters wholesale; clusters from past windows keep their active
// flag until the window is re-analyzed.
type CoordinationCluster struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	ClusterID       string         `gorm:"uniqueIndex;not null" json:"cluster_id"`
	Platform        string         `gorm:"not null;index" json:"platform"`
	DetectedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"detected_at"`
	TimeWindowStart time.Time      `gorm:"not null;index:idx_clusters_window,priority:1" json:"time_window_start"`
	TimeWindowEnd   time.Time      `gorm:"not null;index:idx_clusters_window,priority:2" json:"time_window_end"`
	MemberCount     int            `gorm:"default:0" json:"member_count"`
	DensityScore    float64        `gorm:"default:0" json:"density_score"`
	PrimaryType     string         `gorm:"column:cluster_type" json:"primary_type"`
	Score           float64        `gorm:"column:coordination_score;default:0" json:"coordination_score"`
	Active          bool           `gorm:"default:true;index" json:"active"`
	Metadata        datatypes.JSON `gorm:"column:cluster_metadata" json:"metadata,omitempty"`

	Members []ClusterMember `gorm:"foreignKey:ClusterID;references:ClusterID" json:"members,omitempty"`
}

func (CoordinationCluster) TableName() string { return "coordination_clusters" }

// ClusterMember links an account to a cluster with its in-cluster standing.
type ClusterMember struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ClusterID       string    `gorm:"not null;index" json:"cluster_id"`
	AccountID       string    `gorm:"not null;index" json:"account_id"`
	CentralityScore float64   `gorm:"default:0;index" json:"centrality_score"`
	EdgeCount       int       `gorm:"default:0" json:"edge_count"`
	JoinedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
}

func (ClusterMember) TableName() string { return "cluster_members" }
