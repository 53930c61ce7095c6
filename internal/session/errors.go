package session

import "errors"

// Validate/Rotate が返す失敗の閉じた集合。
// gateとhandlerはこの種別だけを見てレスポンスを決める。
var (
	//署名不正・形式不正（別シークレットで署名されたものも含む）
	ErrInvalidToken = errors.New("invalid token")

	//claimの有効期限切れ
	ErrTokenExpired = errors.New("token expired")

	//セッションレコードなし（未発行・blacklist済み・rotate済み）
	ErrSessionNotFound = errors.New("session not found")

	//所有ユーザーが存在しない/停止中
	ErrUserInactive = errors.New("user inactive")
)
