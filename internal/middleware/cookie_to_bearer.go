package middleware

import (
	"github.com/labstack/echo/v4"
)

// access_tokenクッキーの名前（handler側のSetと合わせる）
const AccessTokenCookie = "access_token"

// CookieToBearerはaccess_tokenクッキーからAuthorizationヘッダを合成する。
// ブラウザのクッキーセッションとAPIクライアントのBearerヘッダを
// 同じ認証経路に載せるためのブリッジ。
// 明示的なAuthorizationヘッダがある場合は上書きしない
func CookieToBearer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" {
				return next(c)
			}

			cookie, err := c.Cookie(AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			c.Request().Header.Set("Authorization", "Bearer "+cookie.Value)
			return next(c)
		}
	}
}
