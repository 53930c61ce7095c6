package server

import (
	"net/http"

	"shop/internal/config"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Handlersはルート登録に必要なハンドラ一式
type Handlers struct {
	Auth       RouteRegistrar
	Product    RouteRegistrar
	Cart       RouteRegistrar
	Order      RouteRegistrar
	AdminOrder RouteRegistrar
	Address    RouteRegistrar
	User       RouteRegistrar
}

type RouteRegistrar interface {
	RegisterRoutes(e *echo.Echo)
}

func New(cfg config.Config, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	RegisterRoutes(e, h)
	return e
}

func Start(e *echo.Echo, port string) error {
	return e.Start(":" + port)
}
