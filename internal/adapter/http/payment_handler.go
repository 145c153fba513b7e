package http

import (
	"net/http"

	"loanlink-backend/internal/adapter/middleware"
	"loanlink-backend/internal/usecase/payment"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct{ uc *payment.Usecase }

func NewPaymentHandler(uc *payment.Usecase) *PaymentHandler { return &PaymentHandler{uc: uc} }

func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	var req payment.CreateIntentInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	in, err := h.uc.CreateIntent(c.Request().Context(), middleware.PrincipalEmail(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, in)
}
