package handler

import (
	"errors"
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// クッキー名（middleware.CookieToBearerの読む名前と合わせる）
const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	cookieSecure bool
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		uc:           uc,
		cookieSecure: cfg.CookieSecure(),
	}
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// LoginはPOST /auth/login のハンドラ。
// 成功時はトークンをボディに返さず、両方のクッキーを一緒にセットする
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	pair, err := h.uc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			c.Logger().Warnf("failed login attempt for %s", req.Email)
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "incorrect email or password"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	h.setCookie(c, accessTokenCookie, pair.AccessToken, pair.AccessExpiresIn)
	h.setCookie(c, refreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresIn)

	return c.JSON(http.StatusOK, messageResponse{Message: "successful login"})
}

// MeはGET /auth/me のハンドラ
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)

	me, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	return c.JSON(http.StatusOK, me)
}

// RefreshはPOST /auth/refresh のハンドラ。
// refresh tokenはクッキーからだけ読む（ボディやヘッダは見ない）
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "refresh token not found"})
	}

	access, expiresIn, err := h.uc.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, usecase.ErrUnauthorized) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	//refreshクッキーはそのまま、accessだけ差し替える
	h.setCookie(c, accessTokenCookie, access, expiresIn)

	return c.JSON(http.StatusOK, messageResponse{Message: "token updated"})
}

// LogoutはPOST /auth/logout のハンドラ。
// refresh tokenを失効させてから両方のクッキーを消す
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		if err := h.uc.Logout(c.Request().Context(), cookie.Value); err != nil {
			c.Logger().Errorf("refresh token revoke failed: %v", err)
		}
	}

	h.clearCookie(c, accessTokenCookie)
	h.clearCookie(c, refreshTokenCookie)

	return c.JSON(http.StatusOK, messageResponse{Message: "logout success"})
}

// tokenをCookieにセット。
func (h *AuthHandler) setCookie(c echo.Context, name string, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// Cookieを削除
func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
