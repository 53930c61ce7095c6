package repository

import (
	"context"
	"errors"
	"time"

	"shop/internal/domain/model"
	domainrepo "shop/internal/repository"

	"gorm.io/gorm"
)

type tokenGormRepository struct {
	db *gorm.DB
}

// GORM実装
func NewTokenGormRepository(db *gorm.DB) domainrepo.TokenRepository {
	return &tokenGormRepository{db: db}
}

// セッションレコードを保存する。
func (r *tokenGormRepository) Create(ctx context.Context, token *model.Token) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return err
	}
	return nil
}

// raw token + 所有者 + 種別 + blacklisted=false で1件照合。
func (r *tokenGormRepository) FindActive(ctx context.Context, raw string, userID int64, isRefresh bool) (*model.Token, error) {
	var t model.Token

	err := r.db.WithContext(ctx).
		Where("token = ? AND user_id = ? AND is_refresh_token = ? AND blacklisted = ?",
			raw, userID, isRefresh, false).
		First(&t).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrTokenNotFound
		}
		return nil, err
	}

	return &t, nil
}

// blacklisted=trueにする。
// 0件更新でもエラーにしない（revokeは冪等。ログアウトは常に成功に見せる）。
func (r *tokenGormRepository) Blacklist(ctx context.Context, raw string) error {
	return r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("token = ?", raw).
		Update("blacklisted", true).Error
}

// ID指定のblacklist。すでにblacklist済みならErrTokenNotFound。
// rotateが同じtokenで競合したとき、勝者を1人に絞るための条件付き更新。
func (r *tokenGormRepository) BlacklistByID(ctx context.Context, tokenID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("id = ? AND blacklisted = ?", tokenID, false).
		Update("blacklisted", true)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrTokenNotFound
	}
	return nil
}

// ユーザーの生きているレコードをまとめてblacklistする。
func (r *tokenGormRepository) BlacklistAllByUserID(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("user_id = ? AND blacklisted = ?", userID, false).
		Update("blacklisted", true)

	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ID指定の物理削除。該当なしでもエラーにしない。
func (r *tokenGormRepository) DeleteByID(ctx context.Context, tokenID string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", tokenID).
		Delete(&model.Token{}).Error
}

// last_used_atの更新。前回からolderThan以上経っている場合だけ書く。
// 条件をWHEREに入れているので、同時に来てもlast-write-winsで壊れない。
func (r *tokenGormRepository) TouchLastUsed(ctx context.Context, tokenID string, now time.Time, olderThan time.Duration) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("id = ? AND last_used_at <= ?", tokenID, now.Add(-olderThan)).
		Update("last_used_at", now)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// TTLを過ぎたレコードを物理削除する。
func (r *tokenGormRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&model.Token{})

	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
