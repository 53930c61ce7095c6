package main

import (
	"context"
	"log"
	"time"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/handler"
	"shop/internal/infra/db"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/server"
	"shop/internal/session"
	"shop/internal/usecase"
	"shop/internal/validator"

	"github.com/joho/godotenv"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	// .envは無くてもよい（本番は環境変数から読む）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Token{},
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Address{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	tokenRepo := infraRepo.NewTokenGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//セッション部品
	clock := &realClock{}
	codec := session.NewCodec(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	sessions := session.NewManager(codec, tokenRepo, userRepo, clock)

	//期限切れセッションの定期掃除
	sweeper := session.NewSweeper(tokenRepo, clock, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, sessions, validator.NewAuthValidator(userRepo), auditRepo)
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(cartItemRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(orderRepo, cartItemRepo, txManager, auditRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	userUC := usecase.NewUserUsecase(userRepo, cartItemRepo, sessions, auditRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:       handler.NewAuthHandler(authUC, sessions),
		Product:    handler.NewProductHandler(productUC, sessions),
		Cart:       handler.NewCartHandler(cartUC, sessions),
		Order:      handler.NewOrderHandler(orderUC, sessions),
		AdminOrder: handler.NewAdminOrderHandler(orderUC, sessions),
		Address:    handler.NewAddressHandler(addressUC, sessions),
		User:       handler.NewUserHandler(userUC, sessions),
	}

	//Server起動
	e := server.New(cfg, handlers)
	if err := server.Start(e, cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
