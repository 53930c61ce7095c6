package handler

import (
	"net/http"
	"strconv"

	"shop/internal/middleware"
	"shop/internal/session"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	uc       *usecase.AddressUsecase
	sessions *session.Manager
}

func NewAddressHandler(uc *usecase.AddressUsecase, sessions *session.Manager) *AddressHandler {
	return &AddressHandler{uc: uc, sessions: sessions}
}

func (h *AddressHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/addresses")
	g.Use(middleware.AuthToken(h.sessions))

	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *AddressHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "Unauthorized"})
	}

	addrs, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"addresses": addrs,
	})
}

func (h *AddressHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "Unauthorized"})
	}

	var in usecase.AddressInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body"})
	}

	addr, err := h.uc.Create(c.Request().Context(), userID, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"address": addr,
	})
}

func (h *AddressHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "Unauthorized"})
	}

	addressID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid address id"})
	}

	var in usecase.AddressInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid request body"})
	}

	addr, err := h.uc.Update(c.Request().Context(), userID, addressID, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"address": addr,
	})
}

func (h *AddressHandler) delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "Unauthorized"})
	}

	addressID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid address id"})
	}

	if err := h.uc.Delete(c.Request().Context(), userID, addressID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Address deleted"})
}
