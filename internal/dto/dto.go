package dto

import (
	"time"

	"github.com/tareksakakini/SipLocal-sub003/internal/model"
)

type Item struct {
	Name          string `json:"name"`
	Quantity      int32  `json:"quantity"`
	UnitPrice     int64  `json:"unit_price"` // minor currency units
	Customization string `json:"customization,omitempty"`
	Size          string `json:"size,omitempty"`
}

type AuthorizeOrderRequest struct {
	MerchantID    string              `json:"merchant_id"`
	Amount        int64               `json:"amount"`
	Currency      string              `json:"currency"`
	PaymentToken  string              `json:"payment_token"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Items         []*Item             `json:"items"`
	CustomerName  string              `json:"customer_name,omitempty"`
	CustomerEmail string              `json:"customer_email,omitempty"`
	PickupTime    string              `json:"pickup_time,omitempty"`
	UserID        string              `json:"user_id,omitempty"`
}

type AuthorizeOrderResponse struct {
	TransactionID string            `json:"transaction_id"`
	Status        model.OrderStatus `json:"status"`
	ProviderRef   string            `json:"provider_ref"`
	POSOrderID    string            `json:"pos_order_id,omitempty"`
}

type ExternalOrderRequest struct {
	MerchantID    string  `json:"merchant_id"`
	Amount        int64   `json:"amount"`
	Currency      string  `json:"currency"`
	Items         []*Item `json:"items"`
	CustomerName  string  `json:"customer_name,omitempty"`
	CustomerEmail string  `json:"customer_email,omitempty"`
	PickupTime    string  `json:"pickup_time,omitempty"`
	UserID        string  `json:"user_id,omitempty"`
}

type ExternalOrderResponse struct {
	TransactionID string            `json:"transaction_id"`
	POSOrderID    string            `json:"pos_order_id"`
	Status        model.OrderStatus `json:"status"`
}

type OrderResponse struct {
	TransactionID string              `json:"transaction_id"`
	POSOrderID    string              `json:"pos_order_id,omitempty"`
	MerchantID    string              `json:"merchant_id"`
	Amount        int64               `json:"amount"`
	Currency      string              `json:"currency"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Status        model.OrderStatus   `json:"status"`
	FailureNote   string              `json:"failure_note,omitempty"`
	CustomerName  string              `json:"customer_name,omitempty"`
	PickupTime    string              `json:"pickup_time,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type CredentialRequest struct {
	MerchantID  string `json:"merchant_id"`
	POSType     string `json:"pos_type"`
	AccessToken string `json:"access_token"`
	LocationID  string `json:"location_id,omitempty"`
}

type CredentialResponse struct {
	MerchantID  string `json:"merchant_id"`
	AccessToken string `json:"access_token"`
	LocationID  string `json:"location_id"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
