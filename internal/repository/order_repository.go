package repository

import (
	"context"
	"time"

	"shop/internal/domain/model"
)

// 管理者向け注文一覧の絞り込み条件
type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//自分の注文を新しい順に返す
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	//管理者向け：全ユーザーの注文を絞り込み付きで返す（新しい順、総件数付き）
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	//ステータスのみ更新。該当なしはErrNotFound
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
}

type OrderItemRepository interface {
	BulkCreate(ctx context.Context, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
