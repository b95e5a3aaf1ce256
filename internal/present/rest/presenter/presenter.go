package presenter

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequest(c echo.Context, err error) error {
	zap.L().Warn("bad request", zap.Error(err))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	zap.L().Warn("bad request", zap.String("reason", msg))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

// InternalError logs the cause and returns a generic body; store and signing
// failures never leak to the client.
func InternalError(c echo.Context, err error) error {
	zap.L().Error("internal error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
