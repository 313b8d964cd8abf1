package server

import (
	"app/internal/handler"

	"github.com/labstack/echo/v4"
)

// RegisterRoutesは全ルートを登録する。
// authMWは書き込み系と/auth/me、cacheMWは公開のGET二本に掛ける（nilなら素通し）
func RegisterRoutes(
	e *echo.Echo,
	authH *handler.AuthHandler,
	apartmentH *handler.ApartmentHandler,
	authMW echo.MiddlewareFunc,
	cacheMW echo.MiddlewareFunc,
) {
	e.POST("/auth/login", authH.Login)
	e.POST("/auth/logout", authH.Logout, authMW)
	e.GET("/auth/me", authH.Me, authMW)
	e.POST("/auth/refresh", authH.Refresh)

	readMW := []echo.MiddlewareFunc{}
	if cacheMW != nil {
		readMW = append(readMW, cacheMW)
	}

	e.GET("/apartments", apartmentH.List, readMW...)
	e.GET("/apartments/:slug", apartmentH.Detail, readMW...)

	e.POST("/apartments", apartmentH.Create, authMW)
	e.PUT("/apartments/:slug", apartmentH.Update, authMW)
	e.PATCH("/apartments/:slug", apartmentH.Update, authMW)
	e.DELETE("/apartments/:slug", apartmentH.Delete, authMW)
}
