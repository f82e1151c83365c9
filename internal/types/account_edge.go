package types

import (
	"time"

	"gorm.io/datatypes"
)

// AccountEdge records pairwise coordination evidence between two accounts for
// one analysis window. The pair is stored in lexical order so the unordered
// pair has a single canonical row; AccountID1 is always < AccountID2.
type AccountEdge struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID1      string         `gorm:"column:account_id_1;not null;index" json:"account_id_1"`
	AccountID2      string         `gorm:"column:account_id_2;not null;index" json:"account_id_2"`
	Platform        string         `gorm:"not null;index" json:"platform"`
	EdgeTypes       string         `gorm:"not null;index" json:"edge_types"` // comma-joined, sorted
	Weight          float64        `gorm:"not null;default:0" json:"weight"`
	TimeWindowStart time.Time      `gorm:"not null;index:idx_edges_window,priority:1" json:"time_window_start"`
	TimeWindowEnd   time.Time      `gorm:"not null;index:idx_edges_window,priority:2" json:"time_window_end"`
	Evidence        datatypes.JSON `json:"evidence,omitempty"` // signal type -> evidence object
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AccountEdge) TableName() string { return "account_edges" }
