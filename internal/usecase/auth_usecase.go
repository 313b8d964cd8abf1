package usecase

import (
	"context"
	"errors"
	"strings"

	"app/internal/repository"
	"app/internal/token"

	"golang.org/x/crypto/bcrypt"
)

// /auth/me のレスポンス
type MeDTO struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	IsVerified bool   `json:"is_verified"`
}

type AuthUsecase struct {
	users    repository.UserRepository
	tokenSvc *token.Service
}

// DI
func NewAuthUsecase(users repository.UserRepository, tokenSvc *token.Service) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		tokenSvc: tokenSvc,
	}
}

// Loginは資格情報を照合してトークンペアを発行する。
// email不明とパスワード違いは区別しない（ユーザー列挙対策で同じ401）
func (u *AuthUsecase) Login(ctx context.Context, email string, password string) (token.Pair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return token.Pair{}, ErrUnauthorized
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return token.Pair{}, ErrUnauthorized
		}
		return token.Pair{}, ErrInternal
	}

	//停止ユーザーもここでは区別しない
	if !user.IsActive {
		return token.Pair{}, ErrUnauthorized
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return token.Pair{}, ErrUnauthorized
	}

	pair, err := u.tokenSvc.Issue(ctx, user.ID)
	if err != nil {
		return token.Pair{}, ErrInternal
	}

	return pair, nil
}

// Meは認証済みユーザーのプロフィールを返す
func (u *AuthUsecase) Me(ctx context.Context, userID int64) (MeDTO, error) {
	if userID <= 0 {
		return MeDTO{}, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return MeDTO{}, ErrUnauthorized
		}
		return MeDTO{}, ErrInternal
	}

	return MeDTO{
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		IsVerified: user.IsVerified,
	}, nil
}

// Refreshはrefresh tokenから新しいaccess tokenを発行する
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (string, int, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", 0, ErrUnauthorized
	}

	access, expiresIn, err := u.tokenSvc.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			return "", 0, ErrUnauthorized
		}
		return "", 0, ErrInternal
	}

	return access, expiresIn, nil
}

// Logoutはrefresh tokenを失効させる（ベストエフォート）。
// クッキーの削除はhandler側の仕事
func (u *AuthUsecase) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return u.tokenSvc.Revoke(ctx, refreshToken)
}
