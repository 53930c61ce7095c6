package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"shop/internal/domain/model"
	"shop/internal/repository"

	"github.com/google/uuid"
)

type OrderUsecase struct {
	orders    repository.OrderRepository
	cartItems repository.CartItemRepository
	tx        repository.TransactionManager
	audit     repository.AuditLogRepository
}

func NewOrderUsecase(
	orders repository.OrderRepository,
	cartItems repository.CartItemRepository,
	tx repository.TransactionManager,
	audit repository.AuditLogRepository,
) *OrderUsecase {
	return &OrderUsecase{
		orders:    orders,
		cartItems: cartItems,
		tx:        tx,
		audit:     audit,
	}
}

type CreateOrderInput struct {
	ShippingAddress string
}

// カートの中身から注文を作る。
// 注文作成・明細作成・在庫減算・カート空化を1トランザクションで行う。
func (u *OrderUsecase) CreateFromCart(ctx context.Context, userID int64, in CreateOrderInput) (*model.Order, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return nil, ErrValidation
	}

	var created model.Order

	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		items, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return ErrInternal
		}
		if len(items) == 0 {
			return ErrValidation
		}

		var total int64 = 0
		orderItems := make([]model.OrderItem, 0, len(items))

		for _, it := range items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err != nil {
				return ErrValidation
			}
			if !p.IsActive || p.Stock < it.Quantity {
				return ErrValidation
			}

			//在庫を引く
			p.Stock -= it.Quantity
			if err := r.Products().Update(ctx, p); err != nil {
				return ErrInternal
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   it.UnitPriceSnapshot,
				Quantity:            it.Quantity,
			})
			total += it.UnitPriceSnapshot * it.Quantity
		}

		order := model.Order{
			UserID:          userID,
			Number:          uuid.NewString(),
			Status:          model.OrderStatusPending,
			TotalPrice:      total,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return ErrInternal
		}

		for i := range orderItems {
			orderItems[i].OrderID = orderID
		}
		if err := r.OrderItems().BulkCreate(ctx, orderItems); err != nil {
			return ErrInternal
		}

		//注文確定後はカートを空にする
		if err := r.CartItems().DeleteByUserID(ctx, userID); err != nil {
			return ErrInternal
		}

		created, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return ErrInternal
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// 自分の注文を新しい順に一覧する
func (u *OrderUsecase) ListMine(ctx context.Context, userID int64) ([]model.Order, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	orders, err := u.orders.ListByUserID(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}
	return orders, nil
}

type AdminOrderListOutput struct {
	Orders []model.Order `json:"orders"`
	Total  int64         `json:"total"`
}

// 管理者用：全ユーザーの注文一覧（絞り込み・ページング付き）
func (u *OrderUsecase) AdminList(ctx context.Context, f repository.AdminOrderListFilter) (*AdminOrderListOutput, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return nil, ErrInternal
	}

	return &AdminOrderListOutput{Orders: orders, Total: total}, nil
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 管理者用：注文ステータス更新。
// SHIPPED/CANCELEDは終端で変更不可。CANCELEDにするときは在庫を戻す。
// 変更は監査ログに残す。
func (u *OrderUsecase) AdminUpdateStatus(ctx context.Context, adminID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if adminID <= 0 {
		return ErrUnauthorized
	}
	if orderID <= 0 {
		return ErrValidation
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	switch newStatus {
	case model.OrderStatusPending, model.OrderStatusPaid, model.OrderStatusShipped, model.OrderStatusCanceled:
	default:
		return ErrValidation
	}

	return u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return ErrInternal
		}

		//すでに同じなら何もしない
		if o.Status == newStatus {
			return nil
		}

		//終端ガード
		if o.Status == model.OrderStatusCanceled || o.Status == model.OrderStatusShipped {
			return ErrValidation
		}

		//キャンセル時だけ在庫を戻す
		if newStatus == model.OrderStatusCanceled {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return ErrInternal
			}
			for _, it := range items {
				p, err := r.Products().FindByID(ctx, it.ProductID)
				if err != nil {
					return ErrInternal
				}
				p.Stock += it.Quantity
				if err := r.Products().Update(ctx, p); err != nil {
					return ErrInternal
				}
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return ErrInternal
		}

		if err := u.audit.Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(o.Status) + `"}`,
			AfterJSON:    `{"status":"` + string(newStatus) + `"}`,
			CreatedAt:    time.Now(),
		}); err != nil {
			return ErrInternal
		}

		return nil
	})
}
