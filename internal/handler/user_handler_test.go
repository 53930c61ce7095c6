package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shop/internal/domain/model"
	"shop/internal/session"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: CartItemRepository（handler専用）
// =====================

type MockCartItemRepoForHandler struct {
	mock.Mock
}

func (m *MockCartItemRepoForHandler) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *MockCartItemRepoForHandler) FindByID(ctx context.Context, itemID int64) (model.CartItem, error) {
	args := m.Called(ctx, itemID)
	item, _ := args.Get(0).(model.CartItem)
	return item, args.Error(1)
}

func (m *MockCartItemRepoForHandler) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64, unitPrice int64) error {
	args := m.Called(ctx, userID, productID, addQty, unitPrice)
	return args.Error(0)
}

func (m *MockCartItemRepoForHandler) UpdateQuantity(ctx context.Context, itemID int64, quantity int64) error {
	args := m.Called(ctx, itemID, quantity)
	return args.Error(0)
}

func (m *MockCartItemRepoForHandler) DeleteByID(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockCartItemRepoForHandler) DeleteByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCartItemRepoForHandler) IsOwnedByUser(ctx context.Context, itemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, itemID, userID)
	return args.Bool(0), args.Error(1)
}

// =====================
// セットアップ
// =====================

type userHandlerFixture struct {
	users     *MockUserRepoForHandler
	tokens    *MockTokenRepoForHandler
	cartItems *MockCartItemRepoForHandler
	audit     *MockAuditRepoForHandler
	echo      *echo.Echo
}

func newUserHandlerFixture() *userHandlerFixture {
	users := new(MockUserRepoForHandler)
	tokens := new(MockTokenRepoForHandler)
	cartItems := new(MockCartItemRepoForHandler)
	audit := new(MockAuditRepoForHandler)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	sessions := session.NewManager(handlerTestCodec(), tokens, users, &handlerFixedClock{now: handlerTestTime()})
	uc := usecase.NewUserUsecase(users, cartItems, sessions, audit)
	h := NewUserHandler(uc, sessions)

	e := echo.New()
	h.RegisterRoutes(e)

	return &userHandlerFixture{
		users:     users,
		tokens:    tokens,
		cartItems: cartItems,
		audit:     audit,
		echo:      e,
	}
}

func (f *userHandlerFixture) authorize(userID int64, role model.Role) string {
	now := handlerTestTime()
	raw, _, err := handlerTestCodec().IssueAccess(userID, role, now)
	if err != nil {
		panic(err)
	}

	rec := &model.Token{ID: "rec-user", UserID: userID, Token: raw, LastUsedAt: now}
	f.tokens.On("FindActive", mock.Anything, raw, userID, false).Return(rec, nil)
	return raw
}

func (f *userHandlerFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

// =====================
// DELETE /users/me
// =====================

func TestUserHandler_DeleteAccount(t *testing.T) {
	f := newUserHandlerFixture()
	token := f.authorize(10, model.RoleUser)

	f.users.On("FindByID", mock.Anything, int64(10)).
		Return(&model.User{ID: 10, IsActive: true}, nil)
	f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.ID == 10 && !u.IsActive
	})).Return(nil)
	f.cartItems.On("DeleteByUserID", mock.Anything, int64(10)).Return(nil)
	f.tokens.On("BlacklistAllByUserID", mock.Anything, int64(10)).Return(int64(1), nil)

	rec := f.do(http.MethodDelete, "/users/me", "", token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Account deleted successfully")
	f.users.AssertExpectations(t)
	f.cartItems.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
}

// =====================
// POST /admin/users/:id/force-logout
// =====================

func TestUserHandler_ForceLogout(t *testing.T) {
	f := newUserHandlerFixture()
	token := f.authorize(99, model.RoleAdmin)

	f.users.On("FindByID", mock.Anything, int64(7)).
		Return(&model.User{ID: 7, IsActive: true}, nil)
	f.tokens.On("BlacklistAllByUserID", mock.Anything, int64(7)).Return(int64(3), nil)

	rec := f.do(http.MethodPost, "/admin/users/7/force-logout", "", token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"revokedCount":3`)
	f.tokens.AssertExpectations(t)
}

func TestUserHandler_ForceLogout_ForbiddenForNonAdmin(t *testing.T) {
	f := newUserHandlerFixture()
	token := f.authorize(10, model.RoleUser)

	rec := f.do(http.MethodPost, "/admin/users/7/force-logout", "", token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.tokens.AssertNotCalled(t, "BlacklistAllByUserID", mock.Anything, mock.Anything)
}
