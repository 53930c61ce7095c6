package repository

import (
	"context"
	"time"

	"shop/internal/domain/model"
)

// セッションレコード（発行済みトークン）の保存・照合・失効
type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error

	//raw token + 所有者 + 種別 + blacklisted=false で1件照合する。
	//未発行・rotate済み・blacklist済みはすべてErrTokenNotFound。
	FindActive(ctx context.Context, raw string, userID int64, isRefresh bool) (*model.Token, error)

	//blacklisted=true にする。該当なしでもエラーにしない（ログアウトは常に成功に見せる）。
	Blacklist(ctx context.Context, raw string) error

	//IDを指定してblacklistする。blacklisted=falseの行だけを対象にし、
	//0件更新ならErrTokenNotFoundを返す（rotate競合の勝者判定に使う）。
	BlacklistByID(ctx context.Context, tokenID string) error

	//ユーザーの生きているレコードを全件blacklistし、件数を返す。
	//強制ログアウト・退会で使う。
	BlacklistAllByUserID(ctx context.Context, userID int64) (int64, error)

	//IDを指定して物理削除する。ペア発行が途中で失敗したときの巻き戻し用。
	DeleteByID(ctx context.Context, tokenID string) error

	//last_used_atを更新する。前回更新からolderThanより古い場合だけ書く。
	TouchLastUsed(ctx context.Context, tokenID string, now time.Time, olderThan time.Duration) (bool, error)

	//作成からTTLを過ぎたレコードを物理削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
