package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/client"
)

type squarePayment struct {
	client      client.SquareClient
	accessToken string
	// Wallet sources settle at authorization time; card sources capture
	// later, after the cancellation window.
	autocomplete bool
}

func NewSquarePayment(c client.SquareClient, accessToken string, autocomplete bool) PaymentProvider {
	return &squarePayment{
		client:       c,
		accessToken:  accessToken,
		autocomplete: autocomplete,
	}
}

func (p *squarePayment) Authorize(ctx context.Context, req *AuthorizeRequest) (*Authorization, error) {
	result, err := p.client.CreatePayment(ctx, p.accessToken, &client.CreatePaymentRequest{
		SourceID:       req.Token,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Autocomplete:   p.autocomplete,
		CustomerID:     req.CustomerID,
		ReferenceID:    req.ReferenceID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, mapSquarePaymentError(err)
	}

	return &Authorization{
		ProviderRef: result.PaymentID,
		// The provider decides; APPROVED means an open authorization,
		// COMPLETED means funds already settled.
		Settled: result.Status == "COMPLETED",
		Status:  result.Status,
	}, nil
}

func (p *squarePayment) Capture(ctx context.Context, providerRef string) error {
	return p.client.CompletePayment(ctx, p.accessToken, providerRef)
}

func (p *squarePayment) Cancel(ctx context.Context, providerRef string) error {
	return p.client.CancelPayment(ctx, p.accessToken, providerRef)
}

func (p *squarePayment) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	return p.client.FindOrCreateCustomer(ctx, p.accessToken, email, name)
}

func mapSquarePaymentError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case "INSUFFICIENT_FUNDS":
		return apperr.Declined(apperr.DeclineInsufficientFunds, err)
	case "CVV_FAILURE", "ADDRESS_VERIFICATION_FAILURE", "CARD_DECLINED_VERIFICATION_REQUIRED":
		return apperr.Declined(apperr.DeclineVerificationFailed, err)
	case "CARD_DECLINED", "GENERIC_DECLINE":
		return apperr.Declined(apperr.DeclineGeneric, err)
	}
	return err
}

type squarePOS struct {
	client      client.SquareClient
	accessToken string
	locationID  string
}

func NewSquarePOS(c client.SquareClient, accessToken, locationID string) POSProvider {
	return &squarePOS{
		client:      c,
		accessToken: accessToken,
		locationID:  locationID,
	}
}

func (p *squarePOS) CreateOrder(ctx context.Context, req *POSOrderRequest) (string, error) {
	lineItems := make([]client.POSLineItem, len(req.LineItems))
	for i, item := range req.LineItems {
		lineItems[i] = client.POSLineItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Currency:  req.Currency,
			Note:      item.Customization,
		}
	}

	posOrderID, err := p.client.CreateOrder(ctx, p.accessToken, &client.CreatePOSOrderRequest{
		LocationID:     p.locationID,
		LineItems:      lineItems,
		PickupAt:       req.PickupAt,
		RecipientName:  req.RecipientName,
		ReferenceID:    req.ReferenceID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return "", fmt.Errorf("square create order: %w", err)
	}
	return posOrderID, nil
}

func (p *squarePOS) RecordExternalPayment(ctx context.Context, posOrderID string, amount int64, currency string) error {
	return p.client.RecordExternalPayment(ctx, p.accessToken, &client.ExternalPaymentRequest{
		LocationID:     p.locationID,
		POSOrderID:     posOrderID,
		Amount:         amount,
		Currency:       currency,
		IdempotencyKey: newIdempotencyKey(),
	})
}
