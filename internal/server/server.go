package server

import (
	"app/internal/handler"
	appmw "app/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Newはechoを組み立てる。cacheMWはnil可（キャッシュ無効）
func New(
	authH *handler.AuthHandler,
	apartmentH *handler.ApartmentHandler,
	authMW echo.MiddlewareFunc,
	cacheMW echo.MiddlewareFunc,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// /apartments/ と /apartments を同一視する
	e.Pre(echomw.RemoveTrailingSlash())

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	//クッキーセッションをBearerに橋渡し（全リクエスト、ルーティング前）
	e.Use(appmw.CookieToBearer())

	RegisterRoutes(e, authH, apartmentH, authMW, cacheMW)

	return e
}

// Startはサーバーを起動する
func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
