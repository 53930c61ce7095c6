package usecase

import (
	"context"
	"errors"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/repository"
)

type AddressUsecase struct {
	addresses repository.AddressRepository
}

func NewAddressUsecase(addresses repository.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

type AddressInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]model.Address, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	addrs, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}
	return addrs, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (*model.Address, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	if err := validateAddressInput(in); err != nil {
		return nil, err
	}

	a := model.Address{
		UserID:  userID,
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Line:    strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
		Pincode: strings.TrimSpace(in.Pincode),
	}

	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		return nil, ErrInternal
	}

	return &created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressInput) (*model.Address, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	if addressID <= 0 {
		return nil, ErrValidation
	}
	if err := validateAddressInput(in); err != nil {
		return nil, err
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ErrInternal
	}

	//他人の住所は見えないのと同じ扱いにする
	if a.UserID != userID {
		return nil, ErrNotFound
	}

	a.Name = strings.TrimSpace(in.Name)
	a.Phone = strings.TrimSpace(in.Phone)
	a.Line = strings.TrimSpace(in.Address)
	a.City = strings.TrimSpace(in.City)
	a.Pincode = strings.TrimSpace(in.Pincode)

	if err := u.addresses.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal
	}

	return &a, nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if addressID <= 0 {
		return ErrValidation
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return ErrInternal
	}
	if a.UserID != userID {
		return ErrNotFound
	}

	if err := u.addresses.DeleteByID(ctx, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return ErrInternal
	}
	return nil
}

func validateAddressInput(in AddressInput) error {
	if strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Phone) == "" ||
		strings.TrimSpace(in.Address) == "" ||
		strings.TrimSpace(in.City) == "" ||
		strings.TrimSpace(in.Pincode) == "" {
		return ErrValidation
	}
	return nil
}
