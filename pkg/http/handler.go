package http

import "github.com/labstack/echo/v4"

// Handler registers a route group on the server. The market price handler
// is the only production implementation; tests substitute fakes.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
