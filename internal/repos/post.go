package repos

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

type PostRepo interface {
	Create(ctx context.Context, tx *gorm.DB, posts []*types.Post) ([]*types.Post, error)
	GetByPlatformWindow(ctx context.Context, tx *gorm.DB, platform string, start, end time.Time) ([]*types.Post, error)
	GetRecentByAccount(ctx context.Context, tx *gorm.DB, accountID string, since time.Time, limit int) ([]*types.Post, error)
	CountByPlatform(ctx context.Context, tx *gorm.DB, platform string) (int64, error)
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	repoLog := baseLog.With("repo", "PostRepo")
	return &postRepo{db: db, log: repoLog}
}

func (pr *postRepo) Create(ctx context.Context, tx *gorm.DB, posts []*types.Post) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(posts) == 0 {
		return []*types.Post{}, nil
	}

	// Collectors re-deliver posts they have already seen; duplicates are
	// silently skipped on the primary key.
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (pr *postRepo) GetByPlatformWindow(ctx context.Context, tx *gorm.DB, platform string, start, end time.Time) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Post
	if err := transaction.WithContext(ctx).
		Where("platform = ? AND created_at >= ? AND created_at < ?", platform, start, end).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *postRepo) GetRecentByAccount(ctx context.Context, tx *gorm.DB, accountID string, since time.Time, limit int) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Post
	query := transaction.WithContext(ctx).
		Where("account_id = ? AND created_at >= ?", accountID, since).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *postRepo) CountByPlatform(ctx context.Context, tx *gorm.DB, platform string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	query := transaction.WithContext(ctx).Model(&types.Post{})
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
