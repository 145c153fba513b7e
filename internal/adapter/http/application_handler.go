package http

import (
	"net/http"

	"loanlink-backend/internal/adapter/middleware"
	"loanlink-backend/internal/usecase/application"

	"github.com/labstack/echo/v4"
)

type ApplicationHandler struct{ uc *application.Usecase }

func NewApplicationHandler(uc *application.Usecase) *ApplicationHandler {
	return &ApplicationHandler{uc: uc}
}

func (h *ApplicationHandler) Create(c echo.Context) error {
	var req application.CreateApplicationInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	a, err := h.uc.Create(c.Request().Context(), middleware.PrincipalEmail(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *ApplicationHandler) List(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ApplicationHandler) ListMine(c echo.Context) error {
	out, err := h.uc.ListMine(c.Request().Context(), middleware.PrincipalEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	a, err := h.uc.Get(c.Request().Context(), middleware.PrincipalEmail(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *ApplicationHandler) Approve(c echo.Context) error {
	a, err := h.uc.Approve(c.Request().Context(), middleware.PrincipalEmail(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *ApplicationHandler) Reject(c echo.Context) error {
	a, err := h.uc.Reject(c.Request().Context(), middleware.PrincipalEmail(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *ApplicationHandler) Cancel(c echo.Context) error {
	a, err := h.uc.Cancel(c.Request().Context(), middleware.PrincipalEmail(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *ApplicationHandler) PayFee(c echo.Context) error {
	var req application.PayFeeInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	a, err := h.uc.PayFee(c.Request().Context(), middleware.PrincipalEmail(c), c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}
