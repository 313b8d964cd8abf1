package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

// ユーザーの読み取りだけを約束（ユーザー管理自体は外部）
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
}
