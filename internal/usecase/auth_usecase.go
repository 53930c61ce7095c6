package usecase

import (
	"context"
	"errors"
	"time"

	"shop/internal/domain/model"
	"shop/internal/repository"
	"shop/internal/session"

	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, name string, email string, password string, phone string) error
	ValidateLogin(ctx context.Context, email string, password string) error
}

type UserDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ログイン/リフレッシュの成功レスポンス。
// クライアントはtokenとrefreshTokenの両方を保持する。
type LoginResult struct {
	User         UserDTO
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

type AuthUsecase struct {
	users     repository.UserRepository
	sessions  *session.Manager
	validator AuthValidator
	audit     repository.AuditLogRepository
}

func NewAuthUsecase(
	users repository.UserRepository,
	sessions *session.Manager,
	validator AuthValidator,
	audit repository.AuditLogRepository,
) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		sessions:  sessions,
		validator: validator,
		audit:     audit,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*UserDTO, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Name, req.Email, req.Password, req.Phone); err != nil {
		return nil, ErrValidation
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, ErrInternal
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		Phone:        req.Phone,
		IsActive:     true,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, ErrInternal
	}

	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*LoginResult, error) {
	// 1) 入力検証
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, ErrValidation
	}

	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	//access+refreshのペアを発行してセッションレコード化
	pair, err := u.sessions.Issue(ctx, user)
	if err != nil {
		return nil, ErrInternal
	}

	//last_login更新（失敗してもログイン自体は成立）
	now := time.Now()
	user.LastLoginAt = &now
	_ = u.users.Update(ctx, user)

	//監査ログも同様にbest effort
	_ = u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  user.ID,
		Action:       model.AuditActionLogin,
		ResourceType: model.AuditResourceUser,
		ResourceID:   user.ID,
		CreatedAt:    now,
	})

	return &LoginResult{
		User:         toUserDTO(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Refreshはrotate。旧refreshは終端的に失効し、新しいペアが返る。
// 失敗種別はsessionの閉じた集合のまま返す（handlerがコードに変換する）。
func (u *AuthUsecase) Refresh(ctx context.Context, rawRefresh string) (*LoginResult, error) {
	if rawRefresh == "" {
		return nil, session.ErrInvalidToken
	}

	pair, user, err := u.sessions.Rotate(ctx, rawRefresh)
	if err != nil {
		return nil, err
	}

	_ = u.audit.Create(ctx, model.AuditLog{
		ActorUserID:  user.ID,
		Action:       model.AuditActionRefresh,
		ResourceType: model.AuditResourceUser,
		ResourceID:   user.ID,
		CreatedAt:    time.Now(),
	})

	return &LoginResult{
		User:         toUserDTO(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Logoutは提示されたtokenのレコードをblacklistする。
// 該当がなくても成功で返す（ログアウトは常に成功して見える）。
func (u *AuthUsecase) Logout(ctx context.Context, rawToken string) error {
	if err := u.sessions.Revoke(ctx, rawToken); err != nil {
		return ErrInternal
	}
	return nil
}

// Meはgate通過後の自分自身を返す
func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}

	return user, nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}
