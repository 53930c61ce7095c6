package usecase

import (
	"context"
	"errors"

	"shop/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
type CartUsecase struct {
	cartItems repository.CartItemRepository
	products  repository.ProductRepository
}

func NewCartUsecase(
	cartItems repository.CartItemRepository,
	products repository.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartItems: cartItems,
		products:  products,
	}
}

// priceは追加時点のスナップショットを返す。
type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得（空なら空配列を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, ErrUnauthorized
	}

	return u.buildCartResponse(ctx, userID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, ErrUnauthorized
	}
	if in.ProductID <= 0 {
		return CartResponse{}, ErrValidation
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}

	// 商品チェック（公開のみ）
	p, err := u.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return CartResponse{}, ErrNotFound
	}
	if err != nil {
		return CartResponse{}, ErrInternal
	}
	if !p.IsActive {
		return CartResponse{}, ErrValidation
	}

	// 既存数量を調べて在庫超過を弾く
	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, ErrInternal
	}

	var existingQty int64 = 0
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}

	if existingQty+in.Quantity > p.Stock {
		return CartResponse{}, ErrValidation
	}

	// Upsert（同一商品は加算）。単価は追加時点の価格を渡す
	if err := u.cartItems.UpsertByUserAndProduct(ctx, userID, in.ProductID, in.Quantity, p.Price); err != nil {
		return CartResponse{}, ErrInternal
	}

	return u.buildCartResponse(ctx, userID)
}

// 数量変更（所有チェック＋在庫チェック）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, ErrUnauthorized
	}
	if cartItemID <= 0 || in.Quantity < 1 {
		return CartResponse{}, ErrValidation
	}

	owned, err := u.cartItems.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, ErrInternal
	}
	if !owned {
		return CartResponse{}, ErrNotFound
	}

	item, err := u.cartItems.FindByID(ctx, cartItemID)
	if errors.Is(err, repository.ErrNotFound) {
		return CartResponse{}, ErrNotFound
	}
	if err != nil {
		return CartResponse{}, ErrInternal
	}

	//商品の在庫チェック
	p, err := u.products.FindByID(ctx, item.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return CartResponse{}, ErrValidation
	}
	if err != nil {
		return CartResponse{}, ErrInternal
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, ErrValidation
	}

	if err := u.cartItems.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CartResponse{}, ErrNotFound
		}
		return CartResponse{}, ErrInternal
	}

	return u.buildCartResponse(ctx, userID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, ErrUnauthorized
	}
	if cartItemID <= 0 {
		return CartResponse{}, ErrValidation
	}

	owned, err := u.cartItems.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CartResponse{}, ErrInternal
	}
	if !owned {
		return CartResponse{}, ErrNotFound
	}

	if err := u.cartItems.DeleteByID(ctx, cartItemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CartResponse{}, ErrNotFound
		}
		return CartResponse{}, ErrInternal
	}

	return u.buildCartResponse(ctx, userID)
}

// ユーザーの明細をまとめてCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, ErrInternal
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var total int64 = 0

	for _, it := range items {
		p, err := u.products.FindByID(ctx, it.ProductID)
		if err != nil {
			continue
		}
		if !p.IsActive {
			continue
		}

		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})

		total += it.UnitPriceSnapshot * it.Quantity
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
