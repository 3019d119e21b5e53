package model

// OrderStatus is the canonical order state. Forward progression is
// AUTHORIZED → SUBMITTED → IN_PROGRESS → READY → COMPLETED, with CANCELLED
// and FAILED as alternate terminals reachable from AUTHORIZED or SUBMITTED.
type OrderStatus string

const (
	StatusAuthorized OrderStatus = "AUTHORIZED"
	StatusSubmitted  OrderStatus = "SUBMITTED"
	StatusInProgress OrderStatus = "IN_PROGRESS"
	StatusReady      OrderStatus = "READY"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
	StatusFailed     OrderStatus = "FAILED"
)

var statusRank = map[OrderStatus]int{
	StatusSubmitted:  1,
	StatusInProgress: 2,
	StatusReady:      3,
	StatusCompleted:  4,
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// CanApplyWebhook reports whether a webhook-sourced update from current to
// next is allowed. Webhooks never touch an order still inside its
// cancellation window (AUTHORIZED), never resurrect a terminal order, and
// never regress a more specific status to a coarser one.
func CanApplyWebhook(current, next OrderStatus) bool {
	if current == next {
		// Same-value no-op is always fine; callers skip the write.
		return false
	}
	if current == StatusAuthorized {
		return false
	}
	if current.Terminal() {
		return false
	}
	if next == StatusAuthorized {
		return false
	}
	if next.Terminal() {
		return true
	}
	return statusRank[next] > statusRank[current]
}

// PaymentMethod selects the payment adapter used at checkout.
type PaymentMethod string

const (
	// Card on file charged through the primary processor; delayed capture.
	PaymentMethodPrimaryCard PaymentMethod = "primary-card"
	// Nonce charged through the alternate processor; delayed capture.
	PaymentMethodAlternateCard PaymentMethod = "alternate-card"
	// Wallet token (Apple Pay / Google Pay); the processor may settle it
	// immediately even when a delayed capture was requested.
	PaymentMethodWallet PaymentMethod = "tokenized-wallet"
	// Funds move outside this system; only the POS order is created.
	PaymentMethodExternal PaymentMethod = "externally-settled"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodPrimaryCard, PaymentMethodAlternateCard, PaymentMethodWallet, PaymentMethodExternal:
		return true
	}
	return false
}
