package types

import (
	"time"

	"gorm.io/datatypes"
)

// Account is a platform user observed by the collectors. The primary key is the
// platform-native identifier (DID for Bluesky, username for Hacker News), so
// accounts are scoped to a single platform.
type Account struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"not null;index:idx_accounts_username_platform,priority:1" json:"username"`
	DisplayName    string         `json:"display_name,omitempty"`
	Platform       string         `gorm:"not null;index;index:idx_accounts_username_platform,priority:2" json:"platform"`
	CreatedAt      *time.Time     `json:"created_at,omitempty"`
	FollowerCount  int            `gorm:"default:0" json:"follower_count"`
	FollowingCount int            `gorm:"default:0" json:"following_count"`
	PostCount      int            `gorm:"default:0" json:"post_count"`
	Metadata       datatypes.JSON `gorm:"column:platform_metadata" json:"metadata,omitempty"`
	FirstSeen      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"first_seen"`
	LastAnalyzed   *time.Time     `json:"last_analyzed,omitempty"`
}

func (Account) TableName() string { return "accounts" }
