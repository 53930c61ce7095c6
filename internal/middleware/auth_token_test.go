package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop/internal/domain/model"
	"shop/internal/repository"
	"shop/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// レスポンス確認用
// =====================

type mwErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type mwOKResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// =====================
// TokenRepository モック（middleware専用：名前衝突回避）
// =====================

type MockTokenRepoForMW struct {
	mock.Mock
}

func (m *MockTokenRepoForMW) Create(ctx context.Context, token *model.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepoForMW) FindActive(ctx context.Context, raw string, userID int64, isRefresh bool) (*model.Token, error) {
	args := m.Called(ctx, raw, userID, isRefresh)
	t, _ := args.Get(0).(*model.Token)
	return t, args.Error(1)
}

func (m *MockTokenRepoForMW) Blacklist(ctx context.Context, raw string) error {
	args := m.Called(ctx, raw)
	return args.Error(0)
}

func (m *MockTokenRepoForMW) BlacklistByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenRepoForMW) TouchLastUsed(ctx context.Context, tokenID string, now time.Time, olderThan time.Duration) (bool, error) {
	args := m.Called(ctx, tokenID, now, olderThan)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepoForMW) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepoForMW) DeleteByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenRepoForMW) BlacklistAllByUserID(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// UserRepository モック（middleware専用）
// =====================

type MockUserRepoForMW struct {
	mock.Mock
}

func (m *MockUserRepoForMW) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepoForMW) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepoForMW) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepoForMW) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepoForMW) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	us, _ := args.Get(0).([]model.User)
	return us, args.Error(1)
}

// =====================
// 固定時計とセットアップ
// =====================

type mwFixedClock struct {
	now time.Time
}

func (c *mwFixedClock) Now() time.Time { return c.now }

func mwTestTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newMWCodec() *session.Codec {
	return session.NewCodec("mw_access_secret", "mw_refresh_secret")
}

// AuthToken通過後にcontextの値をそのまま返すハンドラ
func echoContextHandler(c echo.Context) error {
	userID, _ := c.Get(CtxUserIDKey).(int64)
	role, _ := c.Get(CtxUserRoleKey).(string)
	return c.JSON(http.StatusOK, mwOKResponse{UserID: userID, Role: role})
}

func doAuthRequest(t *testing.T, sessions *session.Manager, authz string) (*httptest.ResponseRecorder, mwErrorResponse) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := AuthToken(sessions)(echoContextHandler)
	err := h(c)
	assert.NoError(t, err)

	var body mwErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

// =====================
// AuthToken
// =====================

func TestAuthToken_MissingHeader(t *testing.T) {
	tokens := new(MockTokenRepoForMW)
	users := new(MockUserRepoForMW)
	sessions := session.NewManager(newMWCodec(), tokens, users, &mwFixedClock{now: mwTestTime()})

	rec, body := doAuthRequest(t, sessions, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, CodeAuthFailed, body.Code)
	assert.Equal(t, "Authentication required. No token found.", body.Error)
}

func TestAuthToken_MalformedHeader(t *testing.T) {
	tokens := new(MockTokenRepoForMW)
	users := new(MockUserRepoForMW)
	sessions := session.NewManager(newMWCodec(), tokens, users, &mwFixedClock{now: mwTestTime()})

	for _, authz := range []string{"Token abc", "Bearer", "Bearer   "} {
		rec, body := doAuthRequest(t, sessions, authz)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, CodeAuthFailed, body.Code)
	}
}

func TestAuthToken_ValidTokenSetsContext(t *testing.T) {
	tokens := new(MockTokenRepoForMW)
	users := new(MockUserRepoForMW)
	now := mwTestTime()
	sessions := session.NewManager(newMWCodec(), tokens, users, &mwFixedClock{now: now})

	raw, _, err := newMWCodec().IssueAccess(42, model.RoleAdmin, now)
	assert.NoError(t, err)

	rec := &model.Token{ID: "rec-1", UserID: 42, Token: raw, LastUsedAt: now}
	tokens.On("FindActive", mock.Anything, raw, int64(42), false).Return(rec, nil)

	res, _ := doAuthRequest(t, sessions, "Bearer "+raw)
	assert.Equal(t, http.StatusOK, res.Code)

	var ok mwOKResponse
	assert.NoError(t, json.Unmarshal(res.Body.Bytes(), &ok))
	assert.Equal(t, int64(42), ok.UserID)
	assert.Equal(t, "admin", ok.Role)

	//直前に使ったばかりなのでlast_used_atは書かない
	tokens.AssertNotCalled(t, "TouchLastUsed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthToken_TouchAfterInterval(t *testing.T) {
	tokens := new(MockTokenRepoForMW)
	users := new(MockUserRepoForMW)
	now := mwTestTime()
	sessions := session.NewManager(newMWCodec(), tokens, users, &mwFixedClock{now: now})

	raw, _, err := newMWCodec().IssueAccess(42, model.RoleUser, now.Add(-5*time.Minute))
	assert.NoError(t, err)

	rec := &model.Token{ID: "rec-1", UserID: 42, Token: raw, LastUsedAt: now.Add(-5 * time.Minute)}
	tokens.On("FindActive", mock.Anything, raw, int64(42), false).Return(rec, nil)
	tokens.On("TouchLastUsed", mock.Anything, "rec-1", now, 60*time.Second).Return(true, nil)

	res, _ := doAuthRequest(t, sessions, "Bearer "+raw)
	assert.Equal(t, http.StatusOK, res.Code)
	tokens.AssertExpectations(t)
}

func TestAuthToken_ExpiredToken(t *testing.T) {
	tokens := new(MockTokenRepoForMW)
	users := new(MockUserRepoForMW)
	issuedAt := mwTestTime()
	now := issuedAt.Add(16 * time.Minute)
	sessions := session.NewManager(newMWCodec(), tokens, users, &mwFixedClock{now: now})

	raw, _, err := newMWCodec().IssueAccess(42, model.RoleUser, issuedAt)
	assert.NoError(t, err)

	rec := &model.Token{ID: "rec-exp", UserID: 42, Token: raw}
	tokens.On("FindActive", mock.Anything, raw, int64(42), false).Return(rec, nil)
	tokens.On("BlacklistByID", mock.Anything, "rec-exp").Return(nil)

	res, body := doAuthRequest(t, sessions, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, CodeTokenExpired, body.Code)
	assert.Equal(t, "Session expired. Please refresh your token.", body.Error)
	tokens.AssertExpectations(t)
}

func TestAuthToken_RevokedToken(t *testing.T) {
	tokens := new(MockTokenRepoForMW)
	users := new(MockUserRepoForMW)
	now := mwTestTime()
	sessions := session.NewManager(newMWCodec(), tokens, users, &mwFixedClock{now: now})

	raw, _, err := newMWCodec().IssueAccess(42, model.RoleUser, now)
	assert.NoError(t, err)

	//blacklist済み・rotate済みは照合に出てこない
	tokens.On("FindActive", mock.Anything, raw, int64(42), false).
		Return(nil, repository.ErrTokenNotFound)

	res, body := doAuthRequest(t, sessions, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, CodeAuthFailed, body.Code)
	assert.Equal(t, "Invalid session. Please login again.", body.Error)
}

func TestAuthToken_GarbageToken(t *testing.T) {
	tokens := new(MockTokenRepoForMW)
	users := new(MockUserRepoForMW)
	sessions := session.NewManager(newMWCodec(), tokens, users, &mwFixedClock{now: mwTestTime()})

	res, body := doAuthRequest(t, sessions, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, CodeAuthFailed, body.Code)
	assert.Equal(t, "Invalid authentication token", body.Error)
}

// =====================
// AdminRoleGuard
// =====================

func doAdminRequest(t *testing.T, role interface{}) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set(CtxUserRoleKey, role)
	}

	h := AdminRoleGuard()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, h(c))
	return rec
}

func TestAdminRoleGuard_AllowsAdmin(t *testing.T) {
	rec := doAdminRequest(t, "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// 認証済みだが権限がない場合は403（401とは区別する）
func TestAdminRoleGuard_ForbidsNonAdmin(t *testing.T) {
	rec := doAdminRequest(t, "user")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body mwErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Admin access required", body.Error)
	assert.Empty(t, body.Code)
}

func TestAdminRoleGuard_MissingRole(t *testing.T) {
	rec := doAdminRequest(t, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
