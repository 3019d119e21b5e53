package client

import (
	"context"
	"fmt"

	"github.com/braintree-go/braintree-go"

	"github.com/tareksakakini/SipLocal-sub003/internal/config"
)

// BraintreeClient is the alternate card processor: authorize-then-capture
// against a frontend payment nonce.
type BraintreeClient interface {
	// Authorize reserves funds without settling; the returned transaction id
	// is the provider ref for the later capture or void.
	Authorize(ctx context.Context, nonce string, amountCents int64) (string, error)

	// Capture submits a previously authorized transaction for settlement.
	Capture(ctx context.Context, transactionID string) error

	// Void releases an uncaptured authorization.
	Void(ctx context.Context, transactionID string) error
}

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

func (c *braintreeClientImpl) Authorize(ctx context.Context, nonce string, amountCents int64) (string, error) {
	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(amountCents, 2),
		PaymentMethodNonce: nonce,
		Options: &braintree.TransactionOptions{
			// Settlement happens later, after the cancellation window.
			SubmitForSettlement: false,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("braintree authorize: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined {
		return "", &ProcessorDeclinedError{Detail: tx.ProcessorResponseText}
	}

	return tx.Id, nil
}

func (c *braintreeClientImpl) Capture(ctx context.Context, transactionID string) error {
	_, err := c.gateway.Transaction().SubmitForSettlement(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("braintree submit for settlement: %w", err)
	}
	return nil
}

func (c *braintreeClientImpl) Void(ctx context.Context, transactionID string) error {
	_, err := c.gateway.Transaction().Void(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("braintree void: %w", err)
	}
	return nil
}

// ProcessorDeclinedError surfaces a processor decline distinctly from
// transport failures so the payment layer can map it for the caller.
type ProcessorDeclinedError struct {
	Detail string
}

func (e *ProcessorDeclinedError) Error() string {
	return fmt.Sprintf("transaction declined by processor: %s", e.Detail)
}
