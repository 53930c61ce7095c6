package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"shop/internal/domain/model"
	"shop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: TokenRepository
// =====================

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *model.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) FindActive(ctx context.Context, raw string, userID int64, isRefresh bool) (*model.Token, error) {
	args := m.Called(ctx, raw, userID, isRefresh)
	t, _ := args.Get(0).(*model.Token)
	return t, args.Error(1)
}

func (m *MockTokenRepository) Blacklist(ctx context.Context, raw string) error {
	args := m.Called(ctx, raw)
	return args.Error(0)
}

func (m *MockTokenRepository) BlacklistByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenRepository) TouchLastUsed(ctx context.Context, tokenID string, now time.Time, olderThan time.Duration) (bool, error) {
	args := m.Called(ctx, tokenID, now, olderThan)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) DeleteByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenRepository) BlacklistAllByUserID(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	us, _ := args.Get(0).([]model.User)
	return us, args.Error(1)
}

// =====================
// 固定時計
// =====================

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func testTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestManager(tokens *MockTokenRepository, users *MockUserRepository, clock Clock) *Manager {
	return NewManager(newTestCodec(), tokens, users, clock)
}

// =====================
// Issue
// =====================

func TestManager_Issue_CreatesAccessAndRefreshRecords(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	clock := &fixedClock{now: testTime()}
	m := newTestManager(tokens, users, clock)

	var created []*model.Token
	tokens.On("Create", mock.Anything, mock.AnythingOfType("*model.Token")).
		Run(func(args mock.Arguments) {
			created = append(created, args.Get(1).(*model.Token))
		}).
		Return(nil).Twice()

	user := &model.User{ID: 42, Role: model.RoleUser, IsActive: true}
	pair, err := m.Issue(context.Background(), user)

	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, int(AccessTokenTTL.Seconds()), pair.ExpiresIn)

	//レコードはaccess→refreshの順で2件
	assert.Len(t, created, 2)
	assert.False(t, created[0].IsRefreshToken)
	assert.True(t, created[1].IsRefreshToken)
	assert.Equal(t, pair.AccessToken, created[0].Token)
	assert.Equal(t, pair.RefreshToken, created[1].Token)
	assert.Equal(t, int64(42), created[0].UserID)
	assert.NotEmpty(t, created[0].ID)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.False(t, created[0].Blacklisted)

	tokens.AssertExpectations(t)
}

// refresh側のCreateが失敗したら、先に入れたaccessレコードを消して返す
func TestManager_Issue_CleansUpFirstRecordOnSecondCreateFailure(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	clock := &fixedClock{now: testTime()}
	m := newTestManager(tokens, users, clock)

	var firstID string
	tokens.On("Create", mock.Anything, mock.MatchedBy(func(rec *model.Token) bool {
		return !rec.IsRefreshToken
	})).Run(func(args mock.Arguments) {
		firstID = args.Get(1).(*model.Token).ID
	}).Return(nil).Once()
	tokens.On("Create", mock.Anything, mock.MatchedBy(func(rec *model.Token) bool {
		return rec.IsRefreshToken
	})).Return(errors.New("insert failed")).Once()
	tokens.On("DeleteByID", mock.Anything, mock.MatchedBy(func(id string) bool {
		return id == firstID && id != ""
	})).Return(nil).Once()

	user := &model.User{ID: 42, Role: model.RoleUser, IsActive: true}
	_, err := m.Issue(context.Background(), user)

	assert.Error(t, err)
	tokens.AssertExpectations(t)
}

// =====================
// Validate
// =====================

func TestManager_Validate_Success(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	clock := &fixedClock{now: testTime()}
	m := newTestManager(tokens, users, clock)

	raw, _, err := newTestCodec().IssueAccess(42, model.RoleAdmin, clock.now)
	assert.NoError(t, err)

	rec := &model.Token{ID: "rec-1", UserID: 42, Token: raw, LastUsedAt: clock.now}
	tokens.On("FindActive", mock.Anything, raw, int64(42), false).Return(rec, nil)

	claims, got, err := m.Validate(context.Background(), raw, KindAccess)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, "rec-1", got.ID)

	tokens.AssertExpectations(t)
}

func TestManager_Validate_BadSignature(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	m := newTestManager(tokens, users, &fixedClock{now: testTime()})

	_, _, err := m.Validate(context.Background(), "garbage", KindAccess)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	//署名で落ちたらDBには触らない
	tokens.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_Validate_UnknownRecord(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	clock := &fixedClock{now: testTime()}
	m := newTestManager(tokens, users, clock)

	raw, _, err := newTestCodec().IssueAccess(42, model.RoleUser, clock.now)
	assert.NoError(t, err)

	tokens.On("FindActive", mock.Anything, raw, int64(42), false).
		Return(nil, repository.ErrTokenNotFound)

	_, _, verr := m.Validate(context.Background(), raw, KindAccess)
	assert.True(t, errors.Is(verr, ErrSessionNotFound))
}

// claim期限切れ：レコードがまだ生きていればblacklistしてからErrTokenExpired
func TestManager_Validate_ExpiredBlacklistsRecord(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	issuedAt := testTime()
	clock := &fixedClock{now: issuedAt.Add(AccessTokenTTL + time.Minute)}
	m := newTestManager(tokens, users, clock)

	raw, _, err := newTestCodec().IssueAccess(42, model.RoleUser, issuedAt)
	assert.NoError(t, err)

	rec := &model.Token{ID: "rec-exp", UserID: 42, Token: raw}
	tokens.On("FindActive", mock.Anything, raw, int64(42), false).Return(rec, nil)
	tokens.On("BlacklistByID", mock.Anything, "rec-exp").Return(nil)

	_, _, verr := m.Validate(context.Background(), raw, KindAccess)
	assert.True(t, errors.Is(verr, ErrTokenExpired))
	tokens.AssertExpectations(t)
}

// 期限切れ通知後の2回目はレコード照合で落ちる（AUTH_FAILED側に倒れる）
func TestManager_Validate_ExpiredThenNotFound(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	issuedAt := testTime()
	clock := &fixedClock{now: issuedAt.Add(AccessTokenTTL + time.Minute)}
	m := newTestManager(tokens, users, clock)

	raw, _, err := newTestCodec().IssueAccess(42, model.RoleUser, issuedAt)
	assert.NoError(t, err)

	tokens.On("FindActive", mock.Anything, raw, int64(42), false).
		Return(nil, repository.ErrTokenNotFound)

	_, _, verr := m.Validate(context.Background(), raw, KindAccess)
	assert.True(t, errors.Is(verr, ErrSessionNotFound))
	tokens.AssertNotCalled(t, "BlacklistByID", mock.Anything, mock.Anything)
}

// =====================
// Touch
// =====================

func TestManager_Touch_SkipsWithinInterval(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	now := testTime()
	m := newTestManager(tokens, users, &fixedClock{now: now})

	rec := &model.Token{ID: "rec-1", LastUsedAt: now.Add(-30 * time.Second)}
	err := m.Touch(context.Background(), rec)

	assert.NoError(t, err)
	tokens.AssertNotCalled(t, "TouchLastUsed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_Touch_WritesAfterInterval(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	now := testTime()
	m := newTestManager(tokens, users, &fixedClock{now: now})

	rec := &model.Token{ID: "rec-1", LastUsedAt: now.Add(-2 * time.Minute)}
	tokens.On("TouchLastUsed", mock.Anything, "rec-1", now, 60*time.Second).Return(true, nil)

	err := m.Touch(context.Background(), rec)
	assert.NoError(t, err)
	tokens.AssertExpectations(t)
}

// ちょうど60秒経過は「60秒以上」なので書き込み対象
func TestManager_Touch_WritesAtExactInterval(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	now := testTime()
	m := newTestManager(tokens, users, &fixedClock{now: now})

	rec := &model.Token{ID: "rec-1", LastUsedAt: now.Add(-60 * time.Second)}
	tokens.On("TouchLastUsed", mock.Anything, "rec-1", now, 60*time.Second).Return(true, nil)

	err := m.Touch(context.Background(), rec)
	assert.NoError(t, err)
	tokens.AssertExpectations(t)
}

// =====================
// Rotate
// =====================

func TestManager_Rotate_Success(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	clock := &fixedClock{now: testTime()}
	m := newTestManager(tokens, users, clock)

	rawRefresh, _, err := newTestCodec().IssueRefresh(42, clock.now)
	assert.NoError(t, err)

	rec := &model.Token{ID: "rec-old", UserID: 42, Token: rawRefresh, IsRefreshToken: true, LastUsedAt: clock.now}
	tokens.On("FindActive", mock.Anything, rawRefresh, int64(42), true).Return(rec, nil)
	//roleはDBから引き直す（発行後に昇格していれば新accessに反映される）
	users.On("FindByID", mock.Anything, int64(42)).
		Return(&model.User{ID: 42, Role: model.RoleAdmin, IsActive: true}, nil)
	tokens.On("BlacklistByID", mock.Anything, "rec-old").Return(nil)
	tokens.On("Create", mock.Anything, mock.AnythingOfType("*model.Token")).Return(nil).Twice()

	pair, user, err := m.Rotate(context.Background(), rawRefresh)
	assert.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.NotEqual(t, rawRefresh, pair.RefreshToken)

	claims, err := newTestCodec().Verify(pair.AccessToken, KindAccess, clock.now)
	assert.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)

	tokens.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestManager_Rotate_InactiveUser(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	clock := &fixedClock{now: testTime()}
	m := newTestManager(tokens, users, clock)

	rawRefresh, _, err := newTestCodec().IssueRefresh(42, clock.now)
	assert.NoError(t, err)

	rec := &model.Token{ID: "rec-old", UserID: 42, Token: rawRefresh, IsRefreshToken: true}
	tokens.On("FindActive", mock.Anything, rawRefresh, int64(42), true).Return(rec, nil)
	users.On("FindByID", mock.Anything, int64(42)).
		Return(&model.User{ID: 42, IsActive: false}, nil)

	_, _, verr := m.Rotate(context.Background(), rawRefresh)
	assert.True(t, errors.Is(verr, ErrUserInactive))

	//停止ユーザーでは新ペアを作らない
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 同じrefreshで同時にrotateされた場合、条件付き更新に負けた側はSessionNotFound
func TestManager_Rotate_LosesBlacklistRace(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	clock := &fixedClock{now: testTime()}
	m := newTestManager(tokens, users, clock)

	rawRefresh, _, err := newTestCodec().IssueRefresh(42, clock.now)
	assert.NoError(t, err)

	rec := &model.Token{ID: "rec-old", UserID: 42, Token: rawRefresh, IsRefreshToken: true}
	tokens.On("FindActive", mock.Anything, rawRefresh, int64(42), true).Return(rec, nil)
	users.On("FindByID", mock.Anything, int64(42)).
		Return(&model.User{ID: 42, Role: model.RoleUser, IsActive: true}, nil)
	tokens.On("BlacklistByID", mock.Anything, "rec-old").Return(repository.ErrTokenNotFound)

	_, _, verr := m.Rotate(context.Background(), rawRefresh)
	assert.True(t, errors.Is(verr, ErrSessionNotFound))
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestManager_Rotate_RejectsAccessToken(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	clock := &fixedClock{now: testTime()}
	m := newTestManager(tokens, users, clock)

	//accesstokenをrefreshとして出しても署名検証で落ちる
	rawAccess, _, err := newTestCodec().IssueAccess(42, model.RoleUser, clock.now)
	assert.NoError(t, err)

	_, _, verr := m.Rotate(context.Background(), rawAccess)
	assert.True(t, errors.Is(verr, ErrInvalidToken))
}

// =====================
// Revoke
// =====================

func TestManager_Revoke(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	m := newTestManager(tokens, users, &fixedClock{now: testTime()})

	//空文字は何もしないで成功
	assert.NoError(t, m.Revoke(context.Background(), ""))
	tokens.AssertNotCalled(t, "Blacklist", mock.Anything, mock.Anything)

	//該当なしでもBlacklist側がエラーを返さないので成功のまま
	tokens.On("Blacklist", mock.Anything, "some-token").Return(nil)
	assert.NoError(t, m.Revoke(context.Background(), "some-token"))
	tokens.AssertExpectations(t)
}

func TestManager_RevokeAll(t *testing.T) {
	tokens := new(MockTokenRepository)
	users := new(MockUserRepository)
	m := newTestManager(tokens, users, &fixedClock{now: testTime()})

	//不正なIDはDBに触らず0件
	n, err := m.RevokeAll(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
	tokens.AssertNotCalled(t, "BlacklistAllByUserID", mock.Anything, mock.Anything)

	tokens.On("BlacklistAllByUserID", mock.Anything, int64(42)).Return(int64(3), nil)
	n, err = m.RevokeAll(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	tokens.AssertExpectations(t)
}
