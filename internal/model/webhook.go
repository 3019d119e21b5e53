package model

// Provider webhook payloads: a typed envelope with a per-event-type data
// object, matching the primary POS delivery format.

type POSWebhookEvent struct {
	EventID   string         `json:"event_id"`
	Type      string         `json:"type"`
	CreatedAt string         `json:"created_at"`
	Data      POSWebhookData `json:"data"`
}

type POSWebhookData struct {
	Object POSWebhookObject `json:"object"`
}

type POSWebhookObject struct {
	OrderCreated      *POSOrderState        `json:"order_created,omitempty"`
	OrderUpdated      *POSOrderState        `json:"order_updated,omitempty"`
	FulfillmentUpdate *POSFulfillmentUpdate `json:"order_fulfillment_updated,omitempty"`
}

// POSOrderState carries the coarse order state: OPEN, COMPLETED, CANCELED.
type POSOrderState struct {
	OrderID    string `json:"order_id"`
	LocationID string `json:"location_id"`
	State      string `json:"state"`
	Version    int    `json:"version"`
}

// POSFulfillmentUpdate carries the fine-grained preparation states:
// PROPOSED, RESERVED, PREPARED, COMPLETED, CANCELED.
type POSFulfillmentUpdate struct {
	OrderID    string              `json:"order_id"`
	LocationID string              `json:"location_id"`
	Updates    []FulfillmentChange `json:"fulfillment_update"`
}

type FulfillmentChange struct {
	FulfillmentUID string `json:"fulfillment_uid"`
	OldState       string `json:"old_state"`
	NewState       string `json:"new_state"`
}

const (
	WebhookOrderCreated       = "order.created"
	WebhookOrderUpdated       = "order.updated"
	WebhookFulfillmentUpdated = "order.fulfillment.updated"
)

// MapOrderState maps the coarse POS order state to the canonical status.
// The zero value means no mapping.
func MapOrderState(state string) OrderStatus {
	switch state {
	case "OPEN":
		return StatusSubmitted
	case "COMPLETED":
		return StatusCompleted
	case "CANCELED":
		return StatusCancelled
	}
	return ""
}

// MapFulfillmentState maps the POS fulfillment state to the canonical status.
func MapFulfillmentState(state string) OrderStatus {
	switch state {
	case "PROPOSED", "RESERVED":
		return StatusInProgress
	case "PREPARED":
		return StatusReady
	case "COMPLETED":
		return StatusCompleted
	case "CANCELED":
		return StatusCancelled
	}
	return ""
}
