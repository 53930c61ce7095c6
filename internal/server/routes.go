package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	for _, r := range []RouteRegistrar{
		h.Auth,
		h.Product,
		h.Cart,
		h.Order,
		h.AdminOrder,
		h.Address,
		h.User,
	} {
		if r != nil {
			r.RegisterRoutes(e)
		}
	}
}
