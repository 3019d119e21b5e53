package model

import "testing"

func TestCanApplyWebhook(t *testing.T) {
	tests := []struct {
		name    string
		current OrderStatus
		next    OrderStatus
		want    bool
	}{
		// Forward progression
		{"submitted to in_progress", StatusSubmitted, StatusInProgress, true},
		{"in_progress to ready", StatusInProgress, StatusReady, true},
		{"ready to completed", StatusReady, StatusCompleted, true},
		{"submitted to ready skips a step", StatusSubmitted, StatusReady, true},
		{"submitted to cancelled", StatusSubmitted, StatusCancelled, true},

		// Coarse updates never regress a more specific status
		{"in_progress back to submitted", StatusInProgress, StatusSubmitted, false},
		{"ready back to submitted", StatusReady, StatusSubmitted, false},
		{"ready back to in_progress", StatusReady, StatusInProgress, false},

		// Terminal states accept nothing further
		{"completed to ready", StatusCompleted, StatusReady, false},
		{"completed to cancelled", StatusCompleted, StatusCancelled, false},
		{"cancelled to submitted", StatusCancelled, StatusSubmitted, false},
		{"cancelled to completed", StatusCancelled, StatusCompleted, false},
		{"failed to submitted", StatusFailed, StatusSubmitted, false},

		// The cancellation window is webhook-proof
		{"authorized to submitted", StatusAuthorized, StatusSubmitted, false},
		{"authorized to in_progress", StatusAuthorized, StatusInProgress, false},
		{"authorized to cancelled", StatusAuthorized, StatusCancelled, false},
		{"authorized to completed", StatusAuthorized, StatusCompleted, false},

		// Same-value deliveries are no-ops, not writes
		{"ready to ready", StatusReady, StatusReady, false},
		{"completed to completed", StatusCompleted, StatusCompleted, false},
		{"authorized to authorized", StatusAuthorized, StatusAuthorized, false},

		// Nothing moves back into the window
		{"submitted to authorized", StatusSubmitted, StatusAuthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanApplyWebhook(tt.current, tt.next); got != tt.want {
				t.Errorf("CanApplyWebhook(%s, %s) = %v, want %v", tt.current, tt.next, got, tt.want)
			}
		})
	}
}

func TestMapOrderState(t *testing.T) {
	tests := []struct {
		state string
		want  OrderStatus
	}{
		{"OPEN", StatusSubmitted},
		{"COMPLETED", StatusCompleted},
		{"CANCELED", StatusCancelled},
		{"DRAFT", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MapOrderState(tt.state); got != tt.want {
			t.Errorf("MapOrderState(%q) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestMapFulfillmentState(t *testing.T) {
	tests := []struct {
		state string
		want  OrderStatus
	}{
		{"PROPOSED", StatusInProgress},
		{"RESERVED", StatusInProgress},
		{"PREPARED", StatusReady},
		{"COMPLETED", StatusCompleted},
		{"CANCELED", StatusCancelled},
		{"FAILED", ""},
	}

	for _, tt := range tests {
		if got := MapFulfillmentState(tt.state); got != tt.want {
			t.Errorf("MapFulfillmentState(%q) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentMethodPrimaryCard, PaymentMethodAlternateCard, PaymentMethodWallet, PaymentMethodExternal} {
		if !m.Valid() {
			t.Errorf("expected %q to be valid", m)
		}
	}
	if PaymentMethod("cash").Valid() {
		t.Error("expected unknown method to be invalid")
	}
}
