package session

import (
	"context"
	"errors"
	"time"

	"shop/internal/domain/model"
	"shop/internal/repository"

	"github.com/google/uuid"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// last_used_atを書き込む最短間隔。
// これより短い間隔の連続リクエストではDBに書かない。
const touchInterval = 60 * time.Second

// 発行したトークンの返却用
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	//accesstokenの残り秒数
	ExpiresIn int
}

// セッションのライフサイクル全体（発行・検証・rotate・失効）を司る。
// 真実はすべてtokensテーブル側にあり、Manager自身は状態を持たない。
type Manager struct {
	codec  *Codec
	tokens repository.TokenRepository
	users  repository.UserRepository
	clock  Clock
}

func NewManager(codec *Codec, tokens repository.TokenRepository, users repository.UserRepository, clock Clock) *Manager {
	return &Manager{
		codec:  codec,
		tokens: tokens,
		users:  users,
		clock:  clock,
	}
}

// Issueはaccess+refreshのペアを発行して両方レコード化する。
// 既存セッションには触らない（複数端末ログインを許す）。
func (m *Manager) Issue(ctx context.Context, user *model.User) (*TokenPair, error) {
	now := m.clock.Now()

	access, accessExp, err := m.codec.IssueAccess(user.ID, user.Role, now)
	if err != nil {
		return nil, err
	}

	refresh, _, err := m.codec.IssueRefresh(user.ID, now)
	if err != nil {
		return nil, err
	}

	accessRec := &model.Token{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		Token:          access,
		IsRefreshToken: false,
		CreatedAt:      now,
		LastUsedAt:     now,
	}
	refreshRec := &model.Token{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		Token:          refresh,
		IsRefreshToken: true,
		CreatedAt:      now,
		LastUsedAt:     now,
	}

	if err := m.tokens.Create(ctx, accessRec); err != nil {
		return nil, err
	}
	if err := m.tokens.Create(ctx, refreshRec); err != nil {
		//片割れだけ残さない
		_ = m.tokens.DeleteByID(ctx, accessRec.ID)
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(accessExp.Sub(now).Seconds()),
	}, nil
}

// Validateは署名検証→レコード照合→claim期限チェックの順で行う。
// 失敗はErrInvalidToken / ErrSessionNotFound / ErrTokenExpiredのどれか。
// claim期限切れのレコードはその場でblacklistする（以後は照合にも出てこない）。
func (m *Manager) Validate(ctx context.Context, raw string, kind Kind) (Claims, *model.Token, error) {
	now := m.clock.Now()

	claims, verr := m.codec.Verify(raw, kind, now)
	if verr != nil && !errors.Is(verr, ErrTokenExpired) {
		return Claims{}, nil, ErrInvalidToken
	}

	rec, err := m.tokens.FindActive(ctx, raw, claims.UserID, kind == KindRefresh)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return Claims{}, nil, ErrSessionNotFound
		}
		return Claims{}, nil, err
	}

	if errors.Is(verr, ErrTokenExpired) {
		//古いtokenを後から出されても二度目以降は照合で落ちるようにする
		_ = m.tokens.BlacklistByID(ctx, rec.ID)
		return Claims{}, nil, ErrTokenExpired
	}

	return claims, rec, nil
}

// Touchはlast_used_atを更新する。前回から60秒以上経っていれば書く。
// 監視用の値でしかないので、同時更新の順序は気にしない（last-write-wins）。
func (m *Manager) Touch(ctx context.Context, rec *model.Token) error {
	now := m.clock.Now()

	if now.Sub(rec.LastUsedAt) < touchInterval {
		return nil
	}

	_, err := m.tokens.TouchLastUsed(ctx, rec.ID, now, touchInterval)
	return err
}

// Rotateはrefreshtokenを検証し、旧refreshレコードを終端的にblacklist
// した上で新しいペアを発行する。roleはDBから引き直す（claimsの値は信用しない）。
func (m *Manager) Rotate(ctx context.Context, rawRefresh string) (*TokenPair, *model.User, error) {
	claims, rec, err := m.Validate(ctx, rawRefresh, KindRefresh)
	if err != nil {
		return nil, nil, err
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrUserInactive
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	//旧refreshは必ず先に失効させる。
	//同じtokenで同時にrotateされても、条件付き更新に勝った方だけが新ペアを作れる。
	if err := m.tokens.BlacklistByID(ctx, rec.ID); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}

	pair, err := m.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return pair, user, nil
}

// Revokeは該当レコードをblacklistする。種別は問わない。
// 該当なし・blacklist済みでもエラーにしない（ログアウトは常に成功して見える）。
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return m.tokens.Blacklist(ctx, raw)
}

// RevokeAllはユーザーの生きているセッションを全部失効させ、件数を返す。
// 強制ログアウト・退会で使う。
func (m *Manager) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, nil
	}
	return m.tokens.BlacklistAllByUserID(ctx, userID)
}
