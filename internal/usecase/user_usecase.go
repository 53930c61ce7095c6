package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"shop/internal/domain/model"
	"shop/internal/repository"
	"shop/internal/session"
)

type UserUsecase struct {
	users     repository.UserRepository
	cartItems repository.CartItemRepository
	sessions  *session.Manager
	audit     repository.AuditLogRepository
}

func NewUserUsecase(
	users repository.UserRepository,
	cartItems repository.CartItemRepository,
	sessions *session.Manager,
	audit repository.AuditLogRepository,
) *UserUsecase {
	return &UserUsecase{
		users:     users,
		cartItems: cartItems,
		sessions:  sessions,
		audit:     audit,
	}
}

type UpdateProfileInput struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	ProfileImage string `json:"profile_image"`
}

// 自分自身のプロフィールを返す
func (u *UserUsecase) Me(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// 管理者用：全ユーザー一覧（password_hashはjsonに出ない）
func (u *UserUsecase) List(ctx context.Context) ([]model.User, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, ErrInternal
	}
	return users, nil
}

// 自分のプロフィール更新（部分更新）
func (u *UserUsecase) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (*model.User, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	if strings.TrimSpace(in.Name) != "" {
		if len(in.Name) > 50 {
			return nil, ErrValidation
		}
		user.Name = strings.TrimSpace(in.Name)
	}
	if strings.TrimSpace(in.Phone) != "" {
		user.Phone = strings.TrimSpace(in.Phone)
	}
	if strings.TrimSpace(in.Address) != "" {
		if len(in.Address) > 200 {
			return nil, ErrValidation
		}
		user.Address = strings.TrimSpace(in.Address)
	}
	if strings.TrimSpace(in.ProfileImage) != "" {
		user.ProfileImage = strings.TrimSpace(in.ProfileImage)
	}

	if err := u.users.Update(ctx, user); err != nil {
		return nil, ErrInternal
	}

	return user, nil
}

// 退会。注文履歴は外部キーで参照されるため物理削除せず停止扱いにする。
// カートを空にし、全セッションをblacklistする。
func (u *UserUsecase) DeleteAccount(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return ErrUnauthorized
	}

	user.IsActive = false
	if err := u.users.Update(ctx, user); err != nil {
		return ErrInternal
	}

	if err := u.cartItems.DeleteByUserID(ctx, userID); err != nil {
		return ErrInternal
	}

	if _, err := u.sessions.RevokeAll(ctx, userID); err != nil {
		return ErrInternal
	}

	_ = u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  userID,
		Action:       model.AuditActionDeleteAccount,
		ResourceType: model.AuditResourceUser,
		ResourceID:   userID,
		CreatedAt:    time.Now(),
	})

	return nil
}

// 管理者用：対象ユーザーの全セッションを失効させる。
// 失効させた件数を返す。
func (u *UserUsecase) ForceLogout(ctx context.Context, adminID int64, targetUserID int64) (int64, error) {
	if adminID <= 0 {
		return 0, ErrUnauthorized
	}
	if targetUserID <= 0 {
		return 0, ErrValidation
	}

	target, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repository.ErrUserNotFound) || target == nil {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, ErrInternal
	}

	count, err := u.sessions.RevokeAll(ctx, targetUserID)
	if err != nil {
		return 0, ErrInternal
	}

	_ = u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  adminID,
		Action:       model.AuditActionForceLogout,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		CreatedAt:    time.Now(),
	})

	return count, nil
}
