package rungateway

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/midifi/src/server/internal/errors/api"
	"github.com/veedubyou/midifi/src/server/internal/errors/gateway"
	"github.com/veedubyou/midifi/src/server/internal/lib/request"
	runerrors "github.com/veedubyou/midifi/src/server/internal/run/errors"
	runusecase "github.com/veedubyou/midifi/src/server/internal/run/usecase"
)

type Gateway struct {
	usecase runusecase.Usecase
}

func NewGateway(usecase runusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) GetRun(c echo.Context, runID string) error {
	ctx := request.Context(c)

	record, apiErr := g.usecase.GetRun(ctx, runID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to get run")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, record)
}

func (g Gateway) CreateRun(c echo.Context) error {
	ctx := request.Context(c)

	createRequest := runusecase.CreateRunRequest{}
	err := c.Bind(&createRequest)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to run request")
		apiErr := api.CommitError(err,
			runerrors.BadRunRequestCode,
			"The run request received was malformed")
		return gateway.ErrorResponse(c, apiErr)
	}

	record, apiErr := g.usecase.CreateRun(ctx, createRequest)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusAccepted, record)
}
