package session

import (
	"time"

	"shop/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// トークンの種別。accessとrefreshは署名シークレットが別なので、
// 取り違えは署名検証の段階で落ちる。
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

const (
	//accesstokenの有効期限
	AccessTokenTTL = 15 * time.Minute
	//refreshtokenの有効期限
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// 検証済みトークンから取り出したclaims
type Claims struct {
	UserID    int64
	Role      model.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// JWTの発行と検証。状態は持たない。
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
}

func NewCodec(accessSecret string, refreshSecret string) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// accesstoken発行（15分、roleを埋め込む）
func (c *Codec) IssueAccess(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(AccessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
		//同じ秒に同じユーザーへ発行しても文字列が衝突しないように
		"jti": uuid.NewString(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// refreshtoken発行（7日）。roleは埋め込まない。
// rotate時にDBから引き直すので、古いroleを持ち越さない。
func (c *Codec) IssueRefresh(userID int64, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(RefreshTokenTTL)

	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"jti": uuid.NewString(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verifyは署名を検証してclaimsを返す。
// 署名が正しく期限だけ切れている場合は、claimsと一緒にErrTokenExpiredを返す
// （呼び出し側が該当レコードをblacklistするのに所有者IDが要るため）。
func (c *Codec) Verify(raw string, kind Kind, now time.Time) (Claims, error) {
	secret := c.accessSecret
	if kind == KindRefresh {
		secret = c.refreshSecret
	}

	//期限は自前で判定するのでclaims検証は切る
	token, err := jwt.Parse(raw,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}
			return secret, nil
		},
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	sub, ok := mc["sub"].(float64)
	if !ok || sub <= 0 {
		return Claims{}, ErrInvalidToken
	}

	exp, ok := mc["exp"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		UserID:    int64(sub),
		ExpiresAt: time.Unix(int64(exp), 0),
	}
	if iat, ok := mc["iat"].(float64); ok {
		claims.IssuedAt = time.Unix(int64(iat), 0)
	}
	if role, ok := mc["role"].(string); ok {
		claims.Role = model.Role(role)
	}

	if !now.Before(claims.ExpiresAt) {
		return claims, ErrTokenExpired
	}

	return claims, nil
}
