package handler

import (
	"errors"
	"net/http"
	"strings"

	"shop/internal/middleware"
	"shop/internal/session"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	uc       *usecase.AuthUsecase
	sessions *session.Manager
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{uc: uc, sessions: sessions}
}

// ログイン/リフレッシュ成功時の形。
// クライアントはtokenをAuthorizationヘッダ、refreshTokenをrefresh用に保持する。
type tokenResponse struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message,omitempty"`
	Token        string           `json:"token"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresIn    int              `json:"expiresIn"`
	User         *usecase.UserDTO `json:"user,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// /authのルートを登録
func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)

	g.GET("/verify", h.verify, middleware.AuthToken(h.sessions))
}

// POST /auth/register
func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Please provide all fields (name, email, password, phone).",
		})
	}

	user, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrValidation) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Error:   "Please provide all fields (name, email, password, phone).",
			})
		}
		if errors.Is(err, usecase.ErrConflict) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Success: false,
				Error:   "This email is already registered. Please use a different email.",
			})
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, registerResponse{
		Success: true,
		Message: "User registered successfully",
		UserID:  user.ID,
	})
}

// POST /auth/login
func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Please provide both email and password.",
		})
	}

	out, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrValidation) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Error:   "Please provide both email and password.",
			})
		}
		if errors.Is(err, usecase.ErrUnauthorized) {
			//emailとpasswordのどちらが違うかは教えない
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "Invalid email or password",
			})
		}
		return writeError(c, err)
	}

	user := out.User
	return c.JSON(http.StatusOK, tokenResponse{
		Success:      true,
		Message:      "Login successful",
		Token:        out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
		User:         &user,
	})
}

// POST /auth/refresh
// 失敗はすべてREFRESH_FAILED。メッセージだけ期限切れ/不正を区別する。
func (h *AuthHandler) refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   "Refresh token required",
			Code:    "REFRESH_FAILED",
		})
	}

	out, err := h.uc.Refresh(c.Request().Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		msg := "Invalid refresh token"
		if errors.Is(err, session.ErrTokenExpired) {
			msg = "Refresh token expired"
		}
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   msg,
			Code:    "REFRESH_FAILED",
		})
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Success:      true,
		Token:        out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
	})
}

// POST /auth/logout
// tokenの状態に関係なく、呼び出し側から見ると常に成功する。
func (h *AuthHandler) logout(c echo.Context) error {
	raw := bearerFromHeader(c)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Token not provided",
		})
	}

	if err := h.uc.Logout(c.Request().Context(), raw); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// GET /auth/verify（gate通過済み）
func (h *AuthHandler) verify(c echo.Context) error {
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

// Authorizationヘッダからtokenを取り出す（無ければ空文字）
func bearerFromHeader(c echo.Context) string {
	authz := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
