package repository

import (
	"context"

	"shop/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByID(ctx context.Context, itemID int64) (model.CartItem, error)
	//同一ユーザー×同一商品は数量加算でupsertする
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64, unitPrice int64) error
	UpdateQuantity(ctx context.Context, itemID int64, quantity int64) error
	DeleteByID(ctx context.Context, itemID int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
	IsOwnedByUser(ctx context.Context, itemID int64, userID int64) (bool, error)
}
