package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/dto"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
)

type stubCheckoutService struct {
	order *model.Order
	err   error
}

func (s *stubCheckoutService) AuthorizeOrder(ctx context.Context, req *dto.AuthorizeOrderRequest) (*dto.AuthorizeOrderResponse, error) {
	return nil, nil
}

func (s *stubCheckoutService) SubmitExternalOrder(ctx context.Context, req *dto.ExternalOrderRequest) (*dto.ExternalOrderResponse, error) {
	return nil, nil
}

func (s *stubCheckoutService) CancelOrder(ctx context.Context, transactionID string) error {
	return nil
}

func (s *stubCheckoutService) CaptureOrder(ctx context.Context, transactionID string) error {
	return nil
}

func (s *stubCheckoutService) GetOrder(ctx context.Context, transactionID string) (*model.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func getOrder(t *testing.T, svc *stubCheckoutService, transactionID string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+transactionID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("transactionId")
	c.SetParamValues(transactionID)

	h := NewOrderHandler(svc)
	require.NoError(t, h.GetOrder(c))
	return rec
}

func TestGetOrder_ResponseShape(t *testing.T) {
	svc := &stubCheckoutService{order: &model.Order{
		TransactionID: "tx-1",
		POSOrderID:    "pos-1",
		MerchantID:    "M1",
		Amount:        450,
		Currency:      "USD",
		CustomerName:  "Alex",
		PaymentMethod: model.PaymentMethodPrimaryCard,
		Status:        model.StatusSubmitted,
		CreatedAt:     time.Now(),
	}}

	rec := getOrder(t, svc, "tx-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// The wire shape matches the other order endpoints, not the storage model.
	for _, key := range []string{"transaction_id", "pos_order_id", "merchant_id", "amount", "currency", "payment_method", "status", "customer_name", "created_at"} {
		assert.Contains(t, body, key)
	}
	assert.NotContains(t, body, "TransactionID")
	assert.NotContains(t, body, "customer_email")
	assert.NotContains(t, body, "failure_note")

	var resp dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tx-1", resp.TransactionID)
	assert.Equal(t, "pos-1", resp.POSOrderID)
	assert.EqualValues(t, 450, resp.Amount)
	assert.Equal(t, model.StatusSubmitted, resp.Status)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc := &stubCheckoutService{err: apperr.New(apperr.CodeOrderNotFound, "order not found")}

	rec := getOrder(t, svc, "tx-missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(apperr.CodeOrderNotFound), resp.Error.Code)
}
