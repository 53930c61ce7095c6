package usecase

import (
	"context"
	"errors"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/repository"
)

type ProductUsecase struct {
	products repository.ProductRepository
}

func NewProductUsecase(products repository.ProductRepository) *ProductUsecase {
	return &ProductUsecase{products: products}
}

type ProductListInput struct {
	Page     int
	Limit    int
	Category string
}

type Pagination struct {
	TotalProducts int64 `json:"totalProducts"`
	TotalPages    int64 `json:"totalPages"`
	CurrentPage   int   `json:"currentPage"`
	PerPage       int   `json:"perPage"`
}

type ProductListOutput struct {
	Products   []model.Product `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

type ProductInput struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Benefits    string `json:"benefits"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	IsActive    *bool  `json:"is_active"`
}

// 公開商品の一覧（ページング付き）
func (u *ProductUsecase) List(ctx context.Context, in ProductListInput) (*ProductListOutput, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 10
	}

	items, total, err := u.products.ListPublic(ctx, repository.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Category: in.Category,
	})
	if err != nil {
		return nil, ErrInternal
	}

	totalPages := total / int64(in.Limit)
	if total%int64(in.Limit) != 0 {
		totalPages++
	}

	return &ProductListOutput{
		Products: items,
		Pagination: Pagination{
			TotalProducts: total,
			TotalPages:    totalPages,
			CurrentPage:   in.Page,
			PerPage:       in.Limit,
		},
	}, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, ErrValidation
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ErrInternal
	}

	return &p, nil
}

// 管理者用：商品作成
func (u *ProductUsecase) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Category) == "" || in.Price <= 0 || in.Stock < 0 {
		return nil, ErrValidation
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	p := model.Product{
		Name:        strings.TrimSpace(in.Name),
		Image:       in.Image,
		Description: strings.TrimSpace(in.Description),
		Benefits:    strings.TrimSpace(in.Benefits),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    active,
	}

	created, err := u.products.Create(ctx, p)
	if err != nil {
		return nil, ErrInternal
	}

	return &created, nil
}

// 管理者用：商品更新（部分更新）
func (u *ProductUsecase) Update(ctx context.Context, id int64, in ProductInput) (*model.Product, error) {
	if id <= 0 {
		return nil, ErrValidation
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ErrInternal
	}

	if strings.TrimSpace(in.Name) != "" {
		p.Name = strings.TrimSpace(in.Name)
	}
	if in.Image != "" {
		p.Image = in.Image
	}
	if strings.TrimSpace(in.Description) != "" {
		p.Description = strings.TrimSpace(in.Description)
	}
	if strings.TrimSpace(in.Benefits) != "" {
		p.Benefits = strings.TrimSpace(in.Benefits)
	}
	if strings.TrimSpace(in.Category) != "" {
		p.Category = strings.TrimSpace(in.Category)
	}
	if in.Price > 0 {
		p.Price = in.Price
	}
	if in.Stock >= 0 {
		p.Stock = in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := u.products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal
	}

	return &p, nil
}

// 管理者用：商品削除（ソフトデリート）
func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrValidation
	}

	err := u.products.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return ErrInternal
	}
	return nil
}
