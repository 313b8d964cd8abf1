package main

import (
	"log"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	appmw "app/internal/middleware"
	"app/internal/server"
	"app/internal/token"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envがあれば読む（本番は環境変数だけで動く）
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Apartment{},
		&model.RevokedToken{},
	); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	apartmentRepo := infraRepo.NewApartmentGormRepository(gormDB)
	revokedRepo := infraRepo.NewRevokedTokenGormRepository(gormDB)

	//Token service
	clock := &realClock{}
	tokenSvc := token.NewService(cfg.JWTSecret, config.AccessTokenTTL, config.RefreshTokenTTL, revokedRepo, clock)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, tokenSvc)
	apartmentUC := usecase.NewApartmentUsecase(apartmentRepo, validator.NewApartmentValidator(), config.PageSize)

	//Handler生成
	authH := handler.NewAuthHandler(authUC, cfg)
	apartmentH := handler.NewApartmentHandler(apartmentUC)

	//レスポンスキャッシュ（REDIS_URLが無ければ無効のまま動かす）
	var cacheMW echo.MiddlewareFunc
	if cfg.RedisURL != "" {
		store, err := cache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connect failed: %v", err)
		}
		cacheMW = appmw.CachePage(store, config.CacheTTL)
	}

	//Server起動
	e := server.New(authH, apartmentH, appmw.AuthJWT(tokenSvc), cacheMW)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(e, addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
