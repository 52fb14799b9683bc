package filegateway

import (
	"net/http"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/midifi/src/server/internal/errors/api"
	"github.com/veedubyou/midifi/src/server/internal/errors/gateway"
	fileerrors "github.com/veedubyou/midifi/src/server/internal/files/errors"
	fileusecase "github.com/veedubyou/midifi/src/server/internal/files/usecase"
)

type Gateway struct {
	usecase fileusecase.Usecase
}

func NewGateway(usecase fileusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) Browse(c echo.Context, rawPath string) error {
	relPath, apiErr := unescape(c, rawPath)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	listing, apiErr := g.usecase.Browse(relPath)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to browse directory")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, listing)
}

func (g Gateway) ServeFile(c echo.Context, rawPath string) error {
	relPath, apiErr := unescape(c, rawPath)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	file, apiErr := g.usecase.File(relPath)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to serve file")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.File(file)
}

// echo matches on URL.RawPath when the request has one, leaving wildcard
// params escaped. Otherwise they are already decoded.
func unescape(c echo.Context, rawPath string) (string, *api.Error) {
	if c.Request().URL.RawPath == "" {
		return rawPath, nil
	}

	relPath, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", api.CommitError(errors.Wrap(err, "Failed to unescape path"),
			fileerrors.PathEscapeCode,
			"The requested path is malformed")
	}

	return relPath, nil
}
