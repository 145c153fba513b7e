package http

import (
	"net/http"

	"loanlink-backend/internal/adapter/middleware"
	"loanlink-backend/internal/domain/apperr"
	"loanlink-backend/internal/usecase/user"

	"github.com/labstack/echo/v4"
)

type UserHandler struct{ uc *user.Usecase }

func NewUserHandler(uc *user.Usecase) *UserHandler { return &UserHandler{uc: uc} }

// Upsert registers the caller. 201 on first call, 200 with the stored record after.
func (h *UserHandler) Upsert(c echo.Context) error {
	var req user.UpsertInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	p := middleware.Principal(c)
	if p == nil {
		return respondError(c, apperr.New(apperr.KindUnauthenticated, "unauthenticated"))
	}
	u, created, err := h.uc.Upsert(c.Request().Context(), p.Email, p.EmailVerified, req)
	if err != nil {
		return respondError(c, err)
	}
	if created {
		return c.JSON(http.StatusCreated, u)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) List(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) GetRole(c echo.Context) error {
	out, err := h.uc.GetRole(c.Request().Context(), c.Param("email"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) SetRole(c echo.Context) error {
	var req user.SetRoleInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	u, err := h.uc.SetRole(c.Request().Context(), middleware.PrincipalEmail(c), c.Param("email"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Suspend(c echo.Context) error {
	var req user.SuspendInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	u, err := h.uc.Suspend(c.Request().Context(), middleware.PrincipalEmail(c), c.Param("email"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
