package repository

import "errors"

// repo層で共通の「見つからない」
var ErrNotFound = errors.New("not found")

// ユーザーが見つからない
var ErrUserNotFound = errors.New("user not found")

// セッションレコードが見つからない（未発行・失効済みも含む）
var ErrTokenNotFound = errors.New("token not found")

// email重複などの一意制約違反
var ErrDuplicate = errors.New("duplicate")
