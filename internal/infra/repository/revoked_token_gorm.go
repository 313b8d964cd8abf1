package repository

import (
	"context"
	"time"

	"app/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RevokedTokenGormRepository struct {
	db *gorm.DB
}

// DI
func NewRevokedTokenGormRepository(db *gorm.DB) *RevokedTokenGormRepository {
	return &RevokedTokenGormRepository{db: db}
}

// Revokeはjtiをブラックリストに入れる。二重登録は無視（冪等）
func (r *RevokedTokenGormRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	rt := model.RevokedToken{
		JTI:       jti,
		ExpiresAt: expiresAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rt).Error
}

// IsRevokedはjtiが失効済みかを返す
func (r *RevokedTokenGormRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteExpiredは期限切れの行を掃除する
func (r *RevokedTokenGormRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.RevokedToken{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
