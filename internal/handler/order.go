package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/tareksakakini/SipLocal-sub003/internal/dto"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
	"github.com/tareksakakini/SipLocal-sub003/internal/service"
)

type OrderHandler struct {
	checkoutService service.CheckoutService
}

func NewOrderHandler(checkoutService service.CheckoutService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
	}
}

func (h *OrderHandler) AuthorizeOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AuthorizeOrderRequest
	if err := decodeRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := h.checkoutService.AuthorizeOrder(ctx, &req)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, result)
}

func (h *OrderHandler) SubmitExternalOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ExternalOrderRequest
	if err := decodeRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := h.checkoutService.SubmitExternalOrder(ctx, &req)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, result)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.checkoutService.CancelOrder(ctx, c.Param("transactionId")); err != nil {
		return respondError(c, err)
	}

	return respondOK(c, &dto.SuccessResponse{Success: true})
}

// CaptureOrder is the operator trigger; it mirrors the worker's capture path.
func (h *OrderHandler) CaptureOrder(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.checkoutService.CaptureOrder(ctx, c.Param("transactionId")); err != nil {
		return respondError(c, err)
	}

	return respondOK(c, &dto.SuccessResponse{Success: true})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.checkoutService.GetOrder(ctx, c.Param("transactionId"))
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, toOrderResponse(order))
}

func toOrderResponse(order *model.Order) *dto.OrderResponse {
	return &dto.OrderResponse{
		TransactionID: order.TransactionID,
		POSOrderID:    order.POSOrderID,
		MerchantID:    order.MerchantID,
		Amount:        order.Amount,
		Currency:      order.Currency,
		PaymentMethod: order.PaymentMethod,
		Status:        order.Status,
		FailureNote:   order.FailureNote,
		CustomerName:  order.CustomerName,
		PickupTime:    order.PickupTime,
		CreatedAt:     order.CreatedAt,
		CompletedAt:   order.CompletedAt,
	}
}
