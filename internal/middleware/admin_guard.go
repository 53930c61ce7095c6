package middleware

import (
	"net/http"

	"shop/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextに入っているroleがadminかどうかを確認します。
// AuthTokenの後ろに置く前提。認証済みだが権限がない場合は403で、
// 未認証の401とは区別する。
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, authErrorResponse{
					Success: false,
					Error:   "Authentication required. No token found.",
					Code:    CodeAuthFailed,
				})
			}

			if role != string(model.RoleAdmin) {
				return c.JSON(http.StatusForbidden, authErrorResponse{
					Success: false,
					Error:   "Admin access required",
				})
			}

			return next(c)
		}
	}
}
