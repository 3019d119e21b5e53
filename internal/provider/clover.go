package provider

import (
	"context"
	"fmt"

	"github.com/tareksakakini/SipLocal-sub003/internal/client"
)

type cloverPOS struct {
	client      client.CloverClient
	accessToken string
	locationID  string
}

func NewCloverPOS(c client.CloverClient, accessToken, locationID string) POSProvider {
	return &cloverPOS{
		client:      c,
		accessToken: accessToken,
		locationID:  locationID,
	}
}

func (p *cloverPOS) CreateOrder(ctx context.Context, req *POSOrderRequest) (string, error) {
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

	posOrderID, err := p.client.CreateOrder(ctx, p.accessToken, p.locationID, &client.CreatePOSOrderRequest{
		LineItems:      lineItems,
		PickupAt:       req.PickupAt,
		RecipientName:  req.RecipientName,
		ReferenceID:    req.ReferenceID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return "", fmt.Errorf("clover create order: %w", err)
	}
	return posOrderID, nil
}

func (p *cloverPOS) RecordExternalPayment(ctx context.Context, posOrderID string, amount int64, currency string) error {
	return p.client.RecordExternalPayment(ctx, p.accessToken, p.locationID, posOrderID, amount)
}
