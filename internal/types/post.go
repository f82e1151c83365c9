package types

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PostTypeOriginal = "post"
	PostTypeComment  = "comment"
)

// Post is a post, submission or comment collected from a platform. Comments
// carry a ParentID and PostTypeComment; only originals become graph nodes.
type Post struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	AccountID   string         `gorm:"not null;index" json:"account_id"`
	Platform    string         `gorm:"not null;index" json:"platform"`
	Content     string         `gorm:"type:text" json:"content"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	Engagement  datatypes.JSON `json:"engagement,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:platform_metadata" json:"metadata,omitempty"`
	CollectedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"collected_at"`

	ParentID *string `gorm:"index" json:"parent_id,omitempty"`
	PostType string  `gorm:"not null;default:'post';index" json:"post_type"`
}

func (Post) TableName() string { return "posts" }

// IsOriginal reports whether the post is a top-level post rather than a comment.
func (p *Post) IsOriginal() bool { return p.PostType != PostTypeComment }
