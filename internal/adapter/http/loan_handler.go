package http

import (
	"net/http"

	"loanlink-backend/internal/adapter/middleware"
	"loanlink-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req loan.CreateLoanInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	l, err := h.uc.Create(c.Request().Context(), middleware.PrincipalEmail(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *LoanHandler) ListPublic(c echo.Context) error {
	out, err := h.uc.ListPublic(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) ListMine(c echo.Context) error {
	out, err := h.uc.ListMine(c.Request().Context(), middleware.PrincipalEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	l, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) UpdateLoan(c echo.Context) error {
	var req loan.UpdateLoanInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	l, err := h.uc.Update(c.Request().Context(), middleware.PrincipalEmail(c), c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) DeleteLoan(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), middleware.PrincipalEmail(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": true})
}

func (h *LoanHandler) SetVisibility(c echo.Context) error {
	var req loan.VisibilityInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	l, err := h.uc.SetVisibility(c.Request().Context(), c.Param("id"), *req.ShowOnHome)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) Approve(c echo.Context) error {
	l, err := h.uc.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) Reject(c echo.Context) error {
	l, err := h.uc.Reject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}
