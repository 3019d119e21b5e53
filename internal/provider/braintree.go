package provider

import (
	"context"
	"errors"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/client"
)

type braintreePayment struct {
	client client.BraintreeClient
}

func NewBraintreePayment(c client.BraintreeClient) PaymentProvider {
	return &braintreePayment{client: c}
}

func (p *braintreePayment) Authorize(ctx context.Context, req *AuthorizeRequest) (*Authorization, error) {
	txID, err := p.client.Authorize(ctx, req.Token, req.Amount)
	if err != nil {
		var declined *client.ProcessorDeclinedError
		if errors.As(err, &declined) {
			return nil, apperr.Declined(apperr.DeclineGeneric, err)
		}
		return nil, err
	}

	// The gateway holds the authorization open until explicitly submitted
	// for settlement.
	return &Authorization{
		ProviderRef: txID,
		Settled:     false,
		Status:      "authorized",
	}, nil
}

func (p *braintreePayment) Capture(ctx context.Context, providerRef string) error {
	return p.client.Capture(ctx, providerRef)
}

func (p *braintreePayment) Cancel(ctx context.Context, providerRef string) error {
	return p.client.Void(ctx, providerRef)
}

// EnsureCustomer is a no-op for the alternate processor; charges run
// directly against the nonce.
func (p *braintreePayment) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	return "", nil
}
