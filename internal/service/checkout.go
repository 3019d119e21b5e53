package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/dto"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
	"github.com/tareksakakini/SipLocal-sub003/internal/provider"
	"github.com/tareksakakini/SipLocal-sub003/internal/repository"
)

// CheckoutService is the authorization orchestrator: it owns the checkout,
// cancellation and capture paths and the at-most-one-POS-order guarantee.
type CheckoutService interface {
	AuthorizeOrder(ctx context.Context, req *dto.AuthorizeOrderRequest) (*dto.AuthorizeOrderResponse, error)
	SubmitExternalOrder(ctx context.Context, req *dto.ExternalOrderRequest) (*dto.ExternalOrderResponse, error)

	// CancelOrder voids an uncaptured authorization. Legal only while the
	// order is AUTHORIZED.
	CancelOrder(ctx context.Context, transactionID string) error

	// CaptureOrder runs the delayed-capture leg: capture payment, create the
	// POS order, move to SUBMITTED. Safe to call repeatedly; only the first
	// caller to observe AUTHORIZED does any work. Used by the capture worker
	// and the operator endpoint.
	CaptureOrder(ctx context.Context, transactionID string) error

	GetOrder(ctx context.Context, transactionID string) (*model.Order, error)
}

type checkoutServiceImpl struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	taskRepo  repository.CompletionTaskRepository
	creds     CredentialService
	providers provider.Factory

	captureDelay time.Duration
}

func NewCheckoutService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	taskRepo repository.CompletionTaskRepository,
	creds CredentialService,
	providers provider.Factory,
	captureDelay time.Duration,
) CheckoutService {
	return &checkoutServiceImpl{
		db:           db,
		orderRepo:    orderRepo,
		taskRepo:     taskRepo,
		creds:        creds,
		providers:    providers,
		captureDelay: captureDelay,
	}
}

func (s *checkoutServiceImpl) AuthorizeOrder(ctx context.Context, req *dto.AuthorizeOrderRequest) (*dto.AuthorizeOrderResponse, error) {
	if err := validateAuthorizeRequest(req); err != nil {
		return nil, err
	}

	cred, err := s.creds.Resolve(ctx, req.MerchantID)
	if err != nil {
		return nil, err
	}

	pay, err := s.providers.Payment(req.PaymentMethod, cred)
	if err != nil {
		return nil, apperr.InvalidArgument("unsupported payment method")
	}

	// Best effort: a provider customer record improves receipts, but its
	// absence never blocks payment.
	customerID := ""
	if req.CustomerEmail != "" {
		customerID, err = pay.EnsureCustomer(ctx, req.CustomerEmail, req.CustomerName)
		if err != nil {
			log.Printf("resolve customer for %s failed, continuing as guest: %v", req.CustomerEmail, err)
			customerID = ""
		}
	}

	transactionID := uuid.NewString()

	auth, err := pay.Authorize(ctx, &provider.AuthorizeRequest{
		Token:          req.PaymentToken,
		Amount:         req.Amount,
		Currency:       currencyOrDefault(req.Currency),
		CustomerID:     customerID,
		ReferenceID:    transactionID,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		// Declined or failed authorization: nothing persisted, the client
		// retries with a fresh checkout.
		return nil, err
	}

	order := &model.Order{
		TransactionID:      transactionID,
		MerchantID:         req.MerchantID,
		Amount:             req.Amount,
		Currency:           currencyOrDefault(req.Currency),
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		PickupTime:         req.PickupTime,
		UserID:             req.UserID,
		PaymentMethod:      req.PaymentMethod,
		PaymentProviderRef: auth.ProviderRef,
		PaymentStatus:      auth.Status,
	}

	if auth.Settled {
		// Settled at authorization time, nothing left to capture: the POS
		// order is created right away and the order skips the window.
		return s.finishSettledOrder(ctx, req, cred, order)
	}

	order.Status = model.StatusAuthorized
	task := &model.CompletionTask{
		TransactionID: transactionID,
		ScheduledFor:  time.Now().Add(s.captureDelay),
		Status:        model.TaskScheduled,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, buildOrderItems(transactionID, req.Items)); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		if err := s.taskRepo.Create(ctx, tx, task); err != nil {
			return fmt.Errorf("store completion task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.AuthorizeOrderResponse{
		TransactionID: transactionID,
		Status:        model.StatusAuthorized,
		ProviderRef:   auth.ProviderRef,
	}, nil
}

// finishSettledOrder handles the immediate-settlement path: POS order now,
// no completion task. The POS order is intentionally not deferred here; with
// the funds already moved there is no cancellation window to protect.
func (s *checkoutServiceImpl) finishSettledOrder(ctx context.Context, req *dto.AuthorizeOrderRequest, cred *model.MerchantCredential, order *model.Order) (*dto.AuthorizeOrderResponse, error) {
	order.Status = model.StatusSubmitted

	posOrderID, err := s.createPOSOrder(ctx, cred, order, req.Items)
	if err != nil {
		// Payment already settled: persist the order anyway so the money is
		// never orphaned, and leave the POS linkage for reconciliation.
		log.Printf("pos order creation failed for %s, order requires manual reconciliation: %v", order.TransactionID, err)
	}
	order.POSOrderID = posOrderID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		return s.orderRepo.CreateOrderItems(ctx, tx, buildOrderItems(order.TransactionID, req.Items))
	})
	if err != nil {
		return nil, err
	}

	return &dto.AuthorizeOrderResponse{
		TransactionID: order.TransactionID,
		Status:        model.StatusSubmitted,
		ProviderRef:   order.PaymentProviderRef,
		POSOrderID:    posOrderID,
	}, nil
}

func (s *checkoutServiceImpl) SubmitExternalOrder(ctx context.Context, req *dto.ExternalOrderRequest) (*dto.ExternalOrderResponse, error) {
	if err := validateExternalRequest(req); err != nil {
		return nil, err
	}

	cred, err := s.creds.Resolve(ctx, req.MerchantID)
	if err != nil {
		return nil, err
	}

	transactionID := uuid.NewString()
	order := &model.Order{
		TransactionID: transactionID,
		MerchantID:    req.MerchantID,
		Amount:        req.Amount,
		Currency:      currencyOrDefault(req.Currency),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		PickupTime:    req.PickupTime,
		UserID:        req.UserID,
		PaymentMethod: model.PaymentMethodExternal,
		Status:        model.StatusSubmitted,
	}

	// No payment at risk yet, so a failed POS order creation is surfaced
	// without persisting anything.
	posOrderID, err := s.createPOSOrder(ctx, cred, order, req.Items)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePOSOrderFailed, "could not create order in point of sale", err)
	}
	order.POSOrderID = posOrderID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		return s.orderRepo.CreateOrderItems(ctx, tx, buildOrderItems(transactionID, req.Items))
	})
	if err != nil {
		return nil, err
	}

	return &dto.ExternalOrderResponse{
		TransactionID: transactionID,
		POSOrderID:    posOrderID,
		Status:        model.StatusSubmitted,
	}, nil
}

func (s *checkoutServiceImpl) CancelOrder(ctx context.Context, transactionID string) error {
	order, err := s.orderRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.CodeOrderNotFound, "order not found")
		}
		return fmt.Errorf("find order: %w", err)
	}

	// The conditional write is the race arbiter against the capture worker:
	// whoever moves the order out of AUTHORIZED first wins.
	ok, err := s.orderRepo.UpdateStatusIf(ctx, transactionID, model.StatusAuthorized, model.StatusCancelled, nil)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if !ok {
		return apperr.New(apperr.CodeNotCancellable, "order can no longer be cancelled")
	}

	if _, err := s.taskRepo.Resolve(ctx, transactionID, model.TaskCompleted, "order cancelled inside window"); err != nil {
		log.Printf("resolve completion task for cancelled order %s: %v", transactionID, err)
	}

	if err := s.voidAuthorization(ctx, order); err != nil {
		// The local record is already CANCELLED; the dangling authorization
		// expires provider-side and is flagged for reconciliation.
		log.Printf("void authorization for cancelled order %s failed, requires manual reconciliation: %v", transactionID, err)
	}

	return nil
}

func (s *checkoutServiceImpl) CaptureOrder(ctx context.Context, transactionID string) error {
	order, err := s.orderRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if _, rerr := s.taskRepo.Resolve(ctx, transactionID, model.TaskFailed, "order not found"); rerr != nil {
				log.Printf("resolve orphan completion task %s: %v", transactionID, rerr)
			}
			return apperr.New(apperr.CodeOrderNotFound, "order not found")
		}
		return fmt.Errorf("find order: %w", err)
	}

	if order.Status != model.StatusAuthorized {
		// Already captured, cancelled or failed by another arm.
		if _, err := s.taskRepo.Resolve(ctx, transactionID, model.TaskCompleted, fmt.Sprintf("no-op, order already %s", order.Status)); err != nil {
			log.Printf("resolve completion task %s: %v", transactionID, err)
		}
		return nil
	}

	// Claim the order before any provider call. If the claim fails the
	// cancellation path won; no capture is attempted.
	ok, err := s.orderRepo.UpdateStatusIf(ctx, transactionID, model.StatusAuthorized, model.StatusSubmitted, nil)
	if err != nil {
		return fmt.Errorf("claim order for capture: %w", err)
	}
	if !ok {
		return nil
	}

	cred, err := s.creds.Resolve(ctx, order.MerchantID)
	if err != nil {
		return s.failCapture(ctx, transactionID, fmt.Errorf("resolve credentials: %w", err))
	}

	pay, err := s.providers.Payment(order.PaymentMethod, cred)
	if err != nil {
		return s.failCapture(ctx, transactionID, err)
	}

	if err := pay.Capture(ctx, order.PaymentProviderRef); err != nil {
		return s.failCapture(ctx, transactionID, fmt.Errorf("capture payment: %w", err))
	}

	items, err := s.orderRepo.GetOrderItems(ctx, transactionID)
	if err != nil {
		log.Printf("load items for captured order %s: %v", transactionID, err)
	}

	posOrderID, err := s.createPOSOrder(ctx, cred, order, itemsToDTO(items))
	if err != nil {
		log.Printf("pos order creation failed for captured order %s, requires manual reconciliation: %v", transactionID, err)
	} else if err := s.orderRepo.SetPOSOrder(ctx, transactionID, posOrderID); err != nil {
		log.Printf("set pos order id for %s: %v", transactionID, err)
	}

	if _, err := s.taskRepo.Resolve(ctx, transactionID, model.TaskCompleted, ""); err != nil {
		log.Printf("resolve completion task %s: %v", transactionID, err)
	}

	return nil
}

func (s *checkoutServiceImpl) failCapture(ctx context.Context, transactionID string, cause error) error {
	if _, err := s.orderRepo.UpdateStatusIf(ctx, transactionID, model.StatusSubmitted, model.StatusFailed, map[string]interface{}{
		"failure_note": cause.Error(),
	}); err != nil {
		log.Printf("mark order %s failed: %v", transactionID, err)
	}
	if _, err := s.taskRepo.Resolve(ctx, transactionID, model.TaskFailed, cause.Error()); err != nil {
		log.Printf("resolve completion task %s: %v", transactionID, err)
	}
	return apperr.Wrap(apperr.CodeCaptureFailed, "payment capture failed", cause)
}

func (s *checkoutServiceImpl) GetOrder(ctx context.Context, transactionID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeOrderNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

// createPOSOrder builds the POS adapter for the merchant and creates the
// order, recording the external payment link afterwards. The payment link is
// reporting-only; its failure never unwinds the POS order.
func (s *checkoutServiceImpl) createPOSOrder(ctx context.Context, cred *model.MerchantCredential, order *model.Order, items []*dto.Item) (string, error) {
	pos, err := s.providers.POS(cred)
	if err != nil {
		return "", err
	}

	lineItems := make([]provider.LineItem, len(items))
	for i, item := range items {
		lineItems[i] = provider.LineItem{
			Name:          item.Name,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Customization: item.Customization,
		}
	}

	posOrderID, err := pos.CreateOrder(ctx, &provider.POSOrderRequest{
		LineItems:      lineItems,
		Currency:       order.Currency,
		PickupAt:       order.PickupTime,
		RecipientName:  order.CustomerName,
		ReferenceID:    order.TransactionID,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}

	if err := pos.RecordExternalPayment(ctx, posOrderID, order.Amount, order.Currency); err != nil {
		log.Printf("record external payment for pos order %s: %v", posOrderID, err)
	}

	return posOrderID, nil
}

func (s *checkoutServiceImpl) voidAuthorization(ctx context.Context, order *model.Order) error {
	cred, err := s.creds.Resolve(ctx, order.MerchantID)
	if err != nil {
		return err
	}
	pay, err := s.providers.Payment(order.PaymentMethod, cred)
	if err != nil {
		return err
	}
	return pay.Cancel(ctx, order.PaymentProviderRef)
}

func validateAuthorizeRequest(req *dto.AuthorizeOrderRequest) error {
	switch {
	case req.MerchantID == "":
		return apperr.InvalidArgument("merchant_id is required")
	case req.Amount <= 0:
		return apperr.InvalidArgument("amount must be positive")
	case req.PaymentToken == "":
		return apperr.InvalidArgument("payment_token is required")
	case len(req.Items) == 0:
		return apperr.InvalidArgument("items are required")
	case !req.PaymentMethod.Valid():
		return apperr.InvalidArgument("unknown payment_method")
	case req.PaymentMethod == model.PaymentMethodExternal:
		return apperr.InvalidArgument("externally settled orders use the external order operation")
	}
	return validateItems(req.Items)
}

func validateExternalRequest(req *dto.ExternalOrderRequest) error {
	switch {
	case req.MerchantID == "":
		return apperr.InvalidArgument("merchant_id is required")
	case req.Amount <= 0:
		return apperr.InvalidArgument("amount must be positive")
	case len(req.Items) == 0:
		return apperr.InvalidArgument("items are required")
	}
	return validateItems(req.Items)
}

func validateItems(items []*dto.Item) error {
	for _, item := range items {
		if item.Name == "" {
			return apperr.InvalidArgument("item name is required")
		}
		if item.Quantity <= 0 {
			return apperr.InvalidArgument("item quantity must be positive")
		}
	}
	return nil
}

func buildOrderItems(transactionID string, items []*dto.Item) []*model.OrderItem {
	orderItems := make([]*model.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = &model.OrderItem{
			TransactionID: transactionID,
			Name:          item.Name,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Customization: item.Customization,
			Size:          item.Size,
		}
	}
	return orderItems
}

func itemsToDTO(items []*model.OrderItem) []*dto.Item {
	out := make([]*dto.Item, len(items))
	for i, item := range items {
		out[i] = &dto.Item{
			Name:          item.Name,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Customization: item.Customization,
			Size:          item.Size,
		}
	}
	return out
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "USD"
	}
	return currency
}
