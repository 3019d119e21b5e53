package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tareksakakini/SipLocal-sub003/internal/client"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
	"github.com/tareksakakini/SipLocal-sub003/internal/repository"
)

// NotificationService pushes order updates to the customer's registered
// devices. Failures are the caller's to log; they never touch order state.
type NotificationService interface {
	NotifyReady(ctx context.Context, order *model.Order) error
}

type notificationServiceImpl struct {
	deviceRepo repository.DeviceRepository
	pushClient client.PushClient
}

func NewNotificationService(deviceRepo repository.DeviceRepository, pushClient client.PushClient) NotificationService {
	return &notificationServiceImpl{
		deviceRepo: deviceRepo,
		pushClient: pushClient,
	}
}

func (s *notificationServiceImpl) NotifyReady(ctx context.Context, order *model.Order) error {
	if order.UserID == "" {
		return nil
	}

	tokens, err := s.deviceRepo.TokensForUser(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	amount := decimal.NewFromInt(order.Amount).Div(decimal.NewFromInt(100))
	body := fmt.Sprintf("Your %s %s order is ready for pickup", amount.StringFixed(2), order.Currency)

	data := map[string]string{
		"transaction_id": order.TransactionID,
		"status":         string(order.Status),
	}
	if order.POSOrderID != "" {
		data["pos_order_id"] = order.POSOrderID
	}

	if err := s.pushClient.Send(ctx, tokens, "Order ready", body, data); err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	return nil
}
