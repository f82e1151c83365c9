package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

type BotScoreRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, scores []*types.BotScore) ([]*types.BotScore, error)
	CreateFlags(ctx context.Context, tx *gorm.DB, flags []*types.BotFlag) ([]*types.BotFlag, error)
	GetByAccountIDs(ctx context.Context, tx *gorm.DB, accountIDs []string) ([]*types.BotScore, error)
	GetFlagged(ctx context.Context, tx *gorm.DB, limit int) ([]*types.BotScore, error)
	CountFlagged(ctx context.Context, tx *gorm.DB) (int64, error)
}

type botScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBotScoreRepo(db *gorm.DB, baseLog *logger.Logger) BotScoreRepo {
	repoLog := baseLog.With("repo", "BotScoreRepo")
	return &botScoreRepo{db: db, log: repoLog}
}

// Upsert keeps one current score row per account, overwritten on each
// analysis pass.
func (br *botScoreRepo) Upsert(ctx context.Context, tx *gorm.DB, scores []*types.BotScore) ([]*types.BotScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	if len(scores) == 0 {
		return []*types.BotScore{}, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_score", "signals", "flagged", "threshold", "last_updated",
			}),
		}).
		Create(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (br *botScoreRepo) CreateFlags(ctx context.Context, tx *gorm.DB, flags []*types.BotFlag) ([]*types.BotFlag, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	if len(flags) == 0 {
		return []*types.BotFlag{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&flags).Error; err != nil {
		return nil, err
	}
	return flags, nil
}

func (br *botScoreRepo) GetByAccountIDs(ctx context.Context, tx *gorm.DB, accountIDs []string) ([]*types.BotScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var results []*types.BotScore
	if len(accountIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("account_id IN ?", accountIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *botScoreRepo) GetFlagged(ctx context.Context, tx *gorm.DB, limit int) ([]*types.BotScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var results []*types.BotScore
	query := transaction.WithContext(ctx).
		Where("flagged = ?", true).
		Order("total_score DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *botScoreRepo) CountFlagged(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.BotScore{}).
		Where("flagged = ?", true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
