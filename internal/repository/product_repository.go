package repository

import (
	"context"

	"shop/internal/domain/model"
)

// 商品一覧のページング条件
type ProductListQuery struct {
	Page     int
	Limit    int
	Category string
}

type ProductRepository interface {
	//公開商品（is_active=true）のみをページング付きで返す
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
