package provider

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tareksakakini/SipLocal-sub003/internal/client"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
)

// factory wires concrete adapters from resolved merchant credentials.
// Adapters are built per request; the only shared state is the underlying
// HTTP clients, which hold no per-merchant data.
type factory struct {
	square    client.SquareClient
	clover    client.CloverClient
	braintree client.BraintreeClient
}

func NewFactory(square client.SquareClient, clover client.CloverClient, braintree client.BraintreeClient) Factory {
	return &factory{
		square:    square,
		clover:    clover,
		braintree: braintree,
	}
}

func (f *factory) Payment(method model.PaymentMethod, cred *model.MerchantCredential) (PaymentProvider, error) {
	switch method {
	case model.PaymentMethodPrimaryCard:
		return NewSquarePayment(f.square, cred.AccessToken, false), nil
	case model.PaymentMethodWallet:
		return NewSquarePayment(f.square, cred.AccessToken, true), nil
	case model.PaymentMethodAlternateCard:
		return NewBraintreePayment(f.braintree), nil
	}
	return nil, fmt.Errorf("no payment provider for method %q", method)
}

func (f *factory) POS(cred *model.MerchantCredential) (POSProvider, error) {
	switch cred.POSType {
	case "clover":
		return NewCloverPOS(f.clover, cred.AccessToken, cred.LocationID), nil
	case "square", "":
		return NewSquarePOS(f.square, cred.AccessToken, cred.LocationID), nil
	}
	return nil, fmt.Errorf("unknown pos type %q", cred.POSType)
}

// newIdempotencyKey returns a fresh key; one per provider mutation, never
// reused across calls.
func newIdempotencyKey() string {
	return uuid.NewString()
}
