package types

import (
	"time"

	"gorm.io/datatypes"
)

// BotScore is the current heuristic bot assessment for one account. One row
// per account, overwritten on each analysis pass.
type BotScore struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID   string         `gorm:"uniqueIndex;not null" json:"account_id"`
	TotalScore  float64        `gorm:"not null" json:"total_score"`
	Signals     datatypes.JSON `json:"signals,omitempty"` // signal name -> score
	Flagged     bool           `gorm:"default:false;index" json:"flagged"`
	Threshold   float64        `gorm:"default:7.0" json:"threshold"`
	LastUpdated time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_updated"`
}

func (BotScore) TableName() string { return "bot_scores" }

// BotFlag is an individual triggered signal for an account, kept as an audit
// trail across analysis passes.
type BotFlag struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID       string    `gorm:"not null;index" json:"account_id"`
	FlagType        string    `gorm:"not null" json:"flag_type"`
	ConfidenceScore float64   `gorm:"not null" json:"confidence_score"`
	Reason          string    `gorm:"type:text" json:"reason"`
	Timestamp       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"timestamp"`
}

func (BotFlag) TableName() string { return "bot_flags" }
