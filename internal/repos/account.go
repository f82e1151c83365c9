package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

type AccountRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, accounts []*types.Account) ([]*types.Account, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, accountIDs []string) ([]*types.Account, error)
	GetByPlatform(ctx context.Context, tx *gorm.DB, platform string, limit int) ([]*types.Account, error)
	GetStaleForAnalysis(ctx context.Context, tx *gorm.DB, platform string, analyzedBefore time.Time, limit int) ([]*types.Account, error)
	MarkAnalyzed(ctx context.Context, tx *gorm.DB, accountIDs []string, at time.Time) error
	CountByPlatform(ctx context.Context, tx *gorm.DB, platform string) (int64, error)
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	repoLog := baseLog.With("repo", "AccountRepo")
	return &accountRepo{db: db, log: repoLog}
}

func (ar *accountRepo) Upsert(ctx context.Context, tx *gorm.DB, accounts []*types.Account) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(accounts) == 0 {
		return []*types.Account{}, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "display_name", "follower_count",
				"following_count", "post_count", "platform_metadata",
			}),
		}).
		Create(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (ar *accountRepo) GetByIDs(ctx context.Context, tx *gorm.DB, accountIDs []string) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Account
	if len(accountIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", accountIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *accountRepo) GetByPlatform(ctx context.Context, tx *gorm.DB, platform string, limit int) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Account
	query := transaction.WithContext(ctx).
		Where("platform = ?", platform).
		Order("first_seen DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *accountRepo) GetStaleForAnalysis(ctx context.Context, tx *gorm.DB, platform string, analyzedBefore time.Time, limit int) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Account
	query := transaction.WithContext(ctx).
		Where("platform = ? AND (last_analyzed IS NULL OR last_analyzed < ?)", platform, analyzedBefore).
		Order("last_analyzed ASC NULLS FIRST")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *accountRepo) MarkAnalyzed(ctx context.Context, tx *gorm.DB, accountIDs []string, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(accountIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.Account{}).
		Where("id IN ?", accountIDs).
		Update("last_analyzed", at).Error
}

func (ar *accountRepo) CountByPlatform(ctx context.Context, tx *gorm.DB, platform string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var count int64
	query := transaction.WithContext(ctx).Model(&types.Account{})
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
