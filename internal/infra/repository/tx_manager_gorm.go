package repository

import (
	"context"

	domainrepo "shop/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders     domainrepo.OrderRepository
	orderItems domainrepo.OrderItemRepository
	cartItems  domainrepo.CartItemRepository
	products   domainrepo.ProductRepository
}

func (r *txReposGorm) Orders() domainrepo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderItems() domainrepo.OrderItemRepository { return r.orderItems }
func (r *txReposGorm) CartItems() domainrepo.CartItemRepository   { return r.cartItems }
func (r *txReposGorm) Products() domainrepo.ProductRepository     { return r.products }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r domainrepo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:     NewOrderGormRepository(tx),
			orderItems: NewOrderItemGormRepository(tx),
			cartItems:  NewCartItemGormRepository(tx),
			products:   NewProductGormRepository(tx),
		}
		return fn(r)
	})
}
