package gateway

import (
	"fmt"
	"net/http"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/midifi/src/server/api_error"
	"github.com/veedubyou/midifi/src/server/internal/errors/api"
	fileerrors "github.com/veedubyou/midifi/src/server/internal/files/errors"
	runerrors "github.com/veedubyou/midifi/src/server/internal/run/errors"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:         http.StatusInternalServerError,
	runerrors.RunNotFoundCode:    http.StatusNotFound,
	runerrors.BadRunRequestCode:  http.StatusBadRequest,
	runerrors.EnqueueFailedCode:  http.StatusServiceUnavailable,
	fileerrors.PathEscapeCode:    http.StatusBadRequest,
	fileerrors.FileNotFoundCode:  http.StatusNotFound,
	fileerrors.NotADirectoryCode: http.StatusBadRequest,
	fileerrors.IsADirectoryCode:  http.StatusBadRequest,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	if statusCode >= http.StatusInternalServerError {
		log.WithField("code", err.ErrorCode).WithError(err).Error("Request failed")
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
