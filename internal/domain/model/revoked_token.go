package model

import "time"

// RevokedTokenはログアウトで失効させたrefresh tokenのブラックリスト。
// refresh token自体はステートレスなJWTなので、失効分だけDBに残す
type RevokedToken struct {
	JTI       string    `gorm:"type:varchar(64);primaryKey"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}
