package handler

import (
	"net/http"
	"strconv"
	"time"

	"shop/internal/middleware"
	"shop/internal/repository"
	"shop/internal/session"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理者向けの注文管理。一般ユーザーの/ordersとはルートを分ける。
type AdminOrderHandler struct {
	uc       *usecase.OrderUsecase
	sessions *session.Manager
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase, sessions *session.Manager) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, sessions: sessions}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/admin/orders")
	g.Use(middleware.AuthToken(h.sessions))
	g.Use(middleware.AdminRoleGuard())

	g.GET("", h.list)
	g.PUT("/:id/status", h.updateStatus)
}

// 全ユーザーの注文一覧。page/limit/status/user_id/from/toで絞り込む。
func (h *AdminOrderHandler) list(c echo.Context) error {
	var f repository.AdminOrderListFilter

	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	f.Status = c.QueryParam("status")

	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid user_id"})
		}
		f.UserID = &id
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid from"})
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid to"})
		}
		f.To = &t
	}

	out, err := h.uc.AdminList(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  out.Orders,
		"total":   out.Total,
	})
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "Unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid order id"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body"})
	}

	if err := h.uc.AdminUpdateStatus(c.Request().Context(), adminID, orderID, usecase.AdminUpdateOrderStatusInput{
		Status: req.Status,
	}); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order status updated successfully",
	})
}
