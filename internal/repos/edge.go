package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

type EdgeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, edges []*types.AccountEdge) ([]*types.AccountEdge, error)
	DeleteWindow(ctx context.Context, tx *gorm.DB, platform string, start, end time.Time) error
	GetByWindow(ctx context.Context, tx *gorm.DB, platform string, start, end time.Time) ([]*types.AccountEdge, error)
	GetByAccount(ctx context.Context, tx *gorm.DB, accountID string, limit int) ([]*types.AccountEdge, error)
}

type edgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEdgeRepo(db *gorm.DB, baseLog *logger.Logger) EdgeRepo {
	repoLog := baseLog.With("repo", "EdgeRepo")
	return &edgeRepo{db: db, log: repoLog}
}

func (er *edgeRepo) Create(ctx context.Context, tx *gorm.DB, edges []*types.AccountEdge) ([]*types.AccountEdge, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	if len(edges) == 0 {
		return []*types.AccountEdge{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

// DeleteWindow removes every edge recorded for one (platform, window) so a
// re-analysis can write a fresh set.
func (er *edgeRepo) DeleteWindow(ctx context.Context, tx *gorm.DB, platform string, start, end time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	return transaction.WithContext(ctx).
		Where("platform = ? AND time_window_start = ? AND time_window_end = ?", platform, start, end).
		Delete(&types.AccountEdge{}).Error
}

func (er *edgeRepo) GetByWindow(ctx context.Context, tx *gorm.DB, platform string, start, end time.Time) ([]*types.AccountEdge, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*types.AccountEdge
	if err := transaction.WithContext(ctx).
		Where("platform = ? AND time_window_start = ? AND time_window_end = ?", platform, start, end).
		Order("account_id_1 ASC, account_id_2 ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *edgeRepo) GetByAccount(ctx context.Context, tx *gorm.DB, accountID string, limit int) ([]*types.AccountEdge, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*types.AccountEdge
	query := transaction.WithContext(ctx).
		Where("account_id_1 = ? OR account_id_2 = ?", accountID, accountID).
		Order("time_window_start DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
