package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/middleware"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, echo.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// httpError translates a domain error into the status it is answered with.
// Store failures keep their detail out of the response body.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "Internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(status, err.Error())
}

func getUserIDFromContext(c echo.Context) uint {
	return middleware.CurrentUserID(c)
}

func currentUser(c echo.Context) (uint, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func parseUserID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	return uint(id), nil
}

// ErrorHandler renders every error as {"success":false,"message":...}.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he, ok := httpError(err).(*echo.HTTPError)
		if !ok {
			he = echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
		}

		message, isString := he.Message.(string)
		if !isString {
			message = http.StatusText(he.Code)
		}
		if he.Code >= http.StatusInternalServerError {
			log.Errorw("request failed",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", he.Code,
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, echo.Map{"success": false, "message": message})
		}
		if err != nil {
			log.Warnw("write error response", "error", err)
		}
	}
}
