package model

import "time"

// Userは外部で管理されるアカウント。この層は参照のみ
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	FirstName    string `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string `gorm:"type:varchar(100)" json:"last_name"`
	IsVerified   bool   `gorm:"not null;default:false" json:"is_verified"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
