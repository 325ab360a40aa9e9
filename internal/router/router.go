// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
)

// Deps bundles what the routes need.  RateLimit and Cache may be nil, in
// which case the routes are registered without them.
type Deps struct {
	Health       echo.HandlerFunc
	Tables       *handler.TableHandler
	Reservations *handler.ReservationHandler
	JWTSecret    string
	RateLimit    echo.MiddlewareFunc
	Cache        echo.MiddlewareFunc
}

// Register mounts every route:
//
//	GET   /healthz
//	GET   /v1/tables                      public, cached
//	POST  /v1/reservations                CUSTOMER or ADMIN, rate limited
//	GET   /v1/reservations                ADMIN
//	GET   /v1/reservations/:id            ADMIN
//	PATCH /v1/reservations/:id/status     ADMIN
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health)

	v1 := e.Group("/v1")
	v1.GET("/tables", d.Tables.List, optional(d.Cache)...)

	auth := middleware.JWTAuth(d.JWTSecret)
	res := v1.Group("/reservations", auth)

	create := []echo.MiddlewareFunc{middleware.RequireRole(middleware.RoleCustomer, middleware.RoleAdmin)}
	create = append(create, optional(d.RateLimit)...)
	res.POST("", d.Reservations.Create, create...)

	admin := middleware.RequireRole(middleware.RoleAdmin)
	res.GET("", d.Reservations.List, admin)
	res.GET("/:id", d.Reservations.Get, admin)
	res.PATCH("/:id/status", d.Reservations.UpdateStatus, admin)
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}
