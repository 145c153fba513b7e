package http

import (
	"net/http"

	"loanlink-backend/internal/domain/apperr"
	"loanlink-backend/internal/infrastructure/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a usecase error onto the wire. Unclassified errors are
// logged and answered with an opaque 500.
func respondError(c echo.Context, err error) error {
	code := statusOf(apperr.KindOf(err))
	if code == http.StatusInternalServerError {
		logger.FromEcho(c).Error("request failed", zap.Error(err))
		return c.JSON(code, ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(code, ErrorResponse{Error: apperr.Message(err)})
}

// bind decodes and validates the body. ok is false when a response was
// already written.
func bind(c echo.Context, dst any) (ok bool, err error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// HTTPErrorHandler renders errors that escape handlers (routing, middleware)
// in the same envelope as handler errors.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		_ = c.JSON(he.Code, ErrorResponse{Error: msg})
		return
	}
	_ = respondError(c, err)
}
