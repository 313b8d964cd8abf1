package repository

import (
	"context"
	"time"
)

// refresh tokenブラックリストの約束
type RevokedTokenRepository interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
