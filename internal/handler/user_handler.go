package handler

import (
	"net/http"
	"strconv"

	"shop/internal/middleware"
	"shop/internal/session"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	uc       *usecase.UserUsecase
	sessions *session.Manager
}

func NewUserHandler(uc *usecase.UserUsecase, sessions *session.Manager) *UserHandler {
	return &UserHandler{uc: uc, sessions: sessions}
}

func (h *UserHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/users")
	g.Use(middleware.AuthToken(h.sessions))

	g.GET("/me", h.me)
	g.PATCH("/me", h.updateProfile)
	g.DELETE("/me", h.deleteAccount)

	// 管理者のみ
	admin := g.Group("")
	admin.Use(middleware.AdminRoleGuard())
	admin.GET("", h.list)

	adminUsers := e.Group("/admin/users")
	adminUsers.Use(middleware.AuthToken(h.sessions))
	adminUsers.Use(middleware.AdminRoleGuard())
	adminUsers.POST("/:id/force-logout", h.forceLogout)
}

func (h *UserHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "Unauthorized"})
	}

	user, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// 退会。カートとセッションも併せて片付ける。
func (h *UserHandler) deleteAccount(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "Unauthorized"})
	}

	if err := h.uc.DeleteAccount(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Account deleted successfully",
	})
}

// 管理者用：対象ユーザーを全端末からログアウトさせる
func (h *UserHandler) forceLogout(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "Unauthorized"})
	}

	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid user id"})
	}

	count, err := h.uc.ForceLogout(c.Request().Context(), adminID, targetID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "User sessions revoked",
		"revokedCount": count,
	})
}

// 管理者用：全ユーザー一覧
func (h *UserHandler) list(c echo.Context) error {
	users, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
	})
}

func (h *UserHandler) updateProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "Unauthorized"})
	}

	var in usecase.UpdateProfileInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body"})
	}

	user, err := h.uc.UpdateProfile(c.Request().Context(), userID, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}
