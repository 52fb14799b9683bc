package request

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/veedubyou/midifi/src/shared/lib/env"
)

func Context(c echo.Context) context.Context {
	switch env.Get() {
	case env.Production:
		return c.Request().Context()

	case env.Development, env.Test:
		// the request context is left out in development
		// to avoid timeouts during debugging
		return context.Background()

	default:
		panic("Unrecognized environment")
	}
}
