package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/client"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
	"github.com/tareksakakini/SipLocal-sub003/internal/repository"
)

// WebhookService ingests asynchronous POS notifications and reconciles them
// against the local order record.
type WebhookService interface {
	HandleWebhook(ctx context.Context, signature string, body []byte) error
}

type webhookServiceImpl struct {
	squareClient client.SquareClient
	orderRepo    repository.OrderRepository
	eventRepo    repository.WebhookEventRepository
	notifier     NotificationService
}

func NewWebhookService(
	squareClient client.SquareClient,
	orderRepo repository.OrderRepository,
	eventRepo repository.WebhookEventRepository,
	notifier NotificationService,
) WebhookService {
	return &webhookServiceImpl{
		squareClient: squareClient,
		orderRepo:    orderRepo,
		eventRepo:    eventRepo,
		notifier:     notifier,
	}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, signature string, body []byte) error {
	// Unsigned payloads are rejected before anything is read from them.
	if err := s.squareClient.VerifyWebhookSignature(signature, body); err != nil {
		return apperr.Wrap(apperr.CodeSignatureInvalid, "webhook signature verification failed", err)
	}

	var event model.POSWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.InvalidArgument("malformed webhook payload")
	}

	if event.EventID != "" {
		seen, err := s.eventRepo.Exists(ctx, event.EventID)
		if err != nil {
			return fmt.Errorf("check webhook event: %w", err)
		}
		if seen {
			log.Printf("webhook event %s already processed, skipping", event.EventID)
			return nil
		}
	}

	switch event.Type {
	case model.WebhookOrderCreated:
		// Informational; the local record was created at checkout time.
	case model.WebhookOrderUpdated:
		if event.Data.Object.OrderUpdated == nil {
			return apperr.InvalidArgument("order.updated event missing order data")
		}
		update := event.Data.Object.OrderUpdated
		if err := s.applyStatus(ctx, update.OrderID, model.MapOrderState(update.State)); err != nil {
			return err
		}
	case model.WebhookFulfillmentUpdated:
		if event.Data.Object.FulfillmentUpdate == nil {
			return apperr.InvalidArgument("fulfillment event missing update data")
		}
		update := event.Data.Object.FulfillmentUpdate
		for _, change := range update.Updates {
			if err := s.applyStatus(ctx, update.OrderID, model.MapFulfillmentState(change.NewState)); err != nil {
				return err
			}
		}
	default:
		log.Printf("ignoring webhook event type %q", event.Type)
	}

	if event.EventID != "" {
		if err := s.eventRepo.MarkProcessed(ctx, event.EventID, event.Type); err != nil {
			log.Printf("mark webhook event %s processed: %v", event.EventID, err)
		}
	}

	return nil
}

// applyStatus maps a POS-reported state onto the order keyed by posOrderID,
// under the monotonicity rules. Unknown orders are discarded: the POS order
// may belong to another system or predate this integration.
func (s *webhookServiceImpl) applyStatus(ctx context.Context, posOrderID string, next model.OrderStatus) error {
	if next == "" || posOrderID == "" {
		return nil
	}

	order, err := s.orderRepo.FindByPOSOrderID(ctx, posOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("webhook for unknown pos order %s, discarding", posOrderID)
			return nil
		}
		return fmt.Errorf("find order by pos order id: %w", err)
	}

	if !model.CanApplyWebhook(order.Status, next) {
		return nil
	}

	// Guarded against concurrent writers: the status observed above must
	// still hold at write time.
	applied, err := s.orderRepo.UpdateStatusIf(ctx, order.TransactionID, order.Status, next, nil)
	if err != nil {
		return fmt.Errorf("apply webhook status: %w", err)
	}
	if !applied {
		return nil
	}

	if next == model.StatusReady {
		// Fire and forget: a failed push never fails the webhook response.
		order.Status = next
		if err := s.notifier.NotifyReady(ctx, order); err != nil {
			log.Printf("notify ready for order %s: %v", order.TransactionID, err)
		}
	}

	return nil
}
