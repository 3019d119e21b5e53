package provider

import (
	"context"

	"github.com/tareksakakini/SipLocal-sub003/internal/model"
)

// Authorization is the provider-side result of reserving funds. Settled
// reports what actually happened, not what was requested: some networks and
// wallet types settle immediately even on an authorize-only call.
type Authorization struct {
	ProviderRef string
	Settled     bool
	Status      string
}

type AuthorizeRequest struct {
	Token          string
	Amount         int64
	Currency       string
	CustomerID     string
	ReferenceID    string
	IdempotencyKey string
}

// PaymentProvider is the uniform payment contract over the card and
// tokenized processors.
type PaymentProvider interface {
	Authorize(ctx context.Context, req *AuthorizeRequest) (*Authorization, error)
	Capture(ctx context.Context, providerRef string) error
	Cancel(ctx context.Context, providerRef string) error

	// EnsureCustomer resolves or creates a provider customer record keyed by
	// email. Best effort; callers downgrade to guest checkout on error.
	EnsureCustomer(ctx context.Context, email, name string) (string, error)
}

type LineItem struct {
	Name          string
	Quantity      int32
	UnitPrice     int64
	Customization string
}

type POSOrderRequest struct {
	LineItems      []LineItem
	Currency       string
	PickupAt       string
	RecipientName  string
	ReferenceID    string
	IdempotencyKey string
}

// POSProvider is the uniform contract over the point-of-sale back ends.
type POSProvider interface {
	CreateOrder(ctx context.Context, req *POSOrderRequest) (string, error)

	// RecordExternalPayment makes an order whose funds moved outside the POS
	// visible in the POS's own reporting. Failure never rolls back order
	// creation; callers log and continue.
	RecordExternalPayment(ctx context.Context, posOrderID string, amount int64, currency string) error
}

// Factory builds adapters per request from resolved merchant credentials.
// There is no shared provider client state between requests.
type Factory interface {
	Payment(method model.PaymentMethod, cred *model.MerchantCredential) (PaymentProvider, error)
	POS(cred *model.MerchantCredential) (POSProvider, error)
}
