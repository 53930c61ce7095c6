package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"shop/internal/session"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // int64
	CtxUserRoleKey = "user_role" // string
)

// クライアントが機械的に分岐するためのコード。
// TOKEN_EXPIREDのときだけsilent refreshを試み、それ以外は再ログイン。
const (
	CodeAuthFailed   = "AUTH_FAILED"
	CodeTokenExpired = "TOKEN_EXPIRED"
)

type authErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// bearerAuth用の検証ミドルウェア。
// access tokenの署名検証＋セッションレコード照合に通った場合だけ
// user_id / user_role をcontextに積んで次へ進む。
func AuthToken(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, authErrorResponse{
					Success: false,
					Error:   "Authentication required. No token found.",
					Code:    CodeAuthFailed,
				})
			}

			claims, rec, err := sessions.Validate(c.Request().Context(), rawToken, session.KindAccess)
			if err != nil {
				switch {
				case errors.Is(err, session.ErrTokenExpired):
					return c.JSON(http.StatusUnauthorized, authErrorResponse{
						Success: false,
						Error:   "Session expired. Please refresh your token.",
						Code:    CodeTokenExpired,
					})
				case errors.Is(err, session.ErrSessionNotFound):
					return c.JSON(http.StatusUnauthorized, authErrorResponse{
						Success: false,
						Error:   "Invalid session. Please login again.",
						Code:    CodeAuthFailed,
					})
				case errors.Is(err, session.ErrInvalidToken):
					return c.JSON(http.StatusUnauthorized, authErrorResponse{
						Success: false,
						Error:   "Invalid authentication token",
						Code:    CodeAuthFailed,
					})
				default:
					//storeの内部エラーは中身を出さない
					log.Printf("token validation error: %v", err)
					return c.JSON(http.StatusUnauthorized, authErrorResponse{
						Success: false,
						Error:   "Invalid authentication token",
						Code:    CodeAuthFailed,
					})
				}
			}

			//60秒スロットル付きの利用時刻更新。失敗しても認証は通す。
			if err := sessions.Touch(c.Request().Context(), rec); err != nil {
				log.Printf("token touch failed: %v", err)
			}

			//contextへ保存
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserRoleKey, string(claims.Role))

			return next(c)
		}
	}
}

// Authorizationヘッダから"Bearer <token>"を取り出す
func bearerToken(c echo.Context) (string, bool) {
	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return "", false
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
