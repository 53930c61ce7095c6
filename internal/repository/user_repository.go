package repository

import (
	"context"

	"shop/internal/domain/model"
)

// ユーザーの保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを1件取得する（emailは小文字で照合）。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ユーザー情報の更新=>最終ログイン更新・プロフィール変更など
	Update(ctx context.Context, user *model.User) error
	//管理者向け一覧
	List(ctx context.Context) ([]model.User, error)
}
