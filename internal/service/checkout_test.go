package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tareksakakini/SipLocal-sub003/internal/apperr"
	"github.com/tareksakakini/SipLocal-sub003/internal/dto"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
	"github.com/tareksakakini/SipLocal-sub003/internal/provider"
	"github.com/tareksakakini/SipLocal-sub003/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.MerchantCredential{},
		&model.CompletionTask{},
		&model.UserDevice{},
		&model.WebhookEvent{},
	))

	return db
}

// ---- fakes ----

type fakeCreds struct {
	cred *model.MerchantCredential
	err  error
}

func (f *fakeCreds) Resolve(ctx context.Context, merchantID string) (*model.MerchantCredential, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cred, nil
}

func (f *fakeCreds) Upsert(ctx context.Context, cred *model.MerchantCredential) error { return nil }

type fakePayment struct {
	mu sync.Mutex

	settled      bool
	authorizeErr error
	captureErr   error
	customerErr  error

	authorizeCalls int
	captureCalls   int
	cancelCalls    int
}

func (f *fakePayment) Authorize(ctx context.Context, req *provider.AuthorizeRequest) (*provider.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorizeCalls++
	if f.authorizeErr != nil {
		return nil, f.authorizeErr
	}
	return &provider.Authorization{
		ProviderRef: "pay-1",
		Settled:     f.settled,
		Status:      "APPROVED",
	}, nil
}

func (f *fakePayment) Capture(ctx context.Context, providerRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captureCalls++
	return f.captureErr
}

func (f *fakePayment) Cancel(ctx context.Context, providerRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return nil
}

func (f *fakePayment) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	if f.customerErr != nil {
		return "", f.customerErr
	}
	return "cust-1", nil
}

func (f *fakePayment) counts() (authorize, capture, cancel int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorizeCalls, f.captureCalls, f.cancelCalls
}

type fakePOS struct {
	mu sync.Mutex

	createErr error
	extPayErr error

	createCalls int
	extPayCalls int
}

func (f *fakePOS) CreateOrder(ctx context.Context, req *provider.POSOrderRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	return fmt.Sprintf("pos-%d", f.createCalls), nil
}

func (f *fakePOS) RecordExternalPayment(ctx context.Context, posOrderID string, amount int64, currency string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extPayCalls++
	return f.extPayErr
}

func (f *fakePOS) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

func (f *fakePOS) externalPayments() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extPayCalls
}

type fakeFactory struct {
	pay *fakePayment
	pos *fakePOS
}

func (f *fakeFactory) Payment(method model.PaymentMethod, cred *model.MerchantCredential) (provider.PaymentProvider, error) {
	return f.pay, nil
}

func (f *fakeFactory) POS(cred *model.MerchantCredential) (provider.POSProvider, error) {
	return f.pos, nil
}

type checkoutFixture struct {
	db        *gorm.DB
	svc       CheckoutService
	orderRepo repository.OrderRepository
	taskRepo  repository.CompletionTaskRepository
	pay       *fakePayment
	pos       *fakePOS
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	db := setupTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	taskRepo := repository.NewCompletionTaskRepository(db)

	pay := &fakePayment{}
	pos := &fakePOS{}
	creds := &fakeCreds{cred: &model.MerchantCredential{
		MerchantID:  "M1",
		POSType:     "square",
		AccessToken: "token-1",
		LocationID:  "loc-1",
	}}

	svc := NewCheckoutService(db, orderRepo, taskRepo, creds, &fakeFactory{pay: pay, pos: pos}, 30*time.Second)

	return &checkoutFixture{
		db:        db,
		svc:       svc,
		orderRepo: orderRepo,
		taskRepo:  taskRepo,
		pay:       pay,
		pos:       pos,
	}
}

func authorizeRequest() *dto.AuthorizeOrderRequest {
	return &dto.AuthorizeOrderRequest{
		MerchantID:    "M1",
		Amount:        450,
		Currency:      "USD",
		PaymentToken:  "tok-abc",
		PaymentMethod: model.PaymentMethodPrimaryCard,
		Items: []*dto.Item{
			{Name: "Latte", Quantity: 1, UnitPrice: 450, Size: "12oz"},
		},
		CustomerName:  "Alex",
		CustomerEmail: "alex@example.com",
		UserID:        "user-1",
	}
}

func TestAuthorizeOrder_DelayedCapture(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	before := time.Now()
	resp, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.NoError(t, err)

	assert.Equal(t, model.StatusAuthorized, resp.Status)
	assert.Equal(t, "pay-1", resp.ProviderRef)
	assert.Empty(t, resp.POSOrderID)

	order, err := f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAuthorized, order.Status)
	assert.EqualValues(t, 450, order.Amount)
	assert.Empty(t, order.POSOrderID)

	// Exactly one pending capture, scheduled for the end of the window.
	task, err := f.taskRepo.Get(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskScheduled, task.Status)
	assert.WithinDuration(t, before.Add(30*time.Second), task.ScheduledFor, 2*time.Second)

	// The POS order is deferred until the window closes.
	assert.Equal(t, 0, f.pos.created())

	items, err := f.orderRepo.GetOrderItems(ctx, resp.TransactionID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Latte", items[0].Name)
}

func TestCaptureOrder_SubmitsAndIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	resp, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.CaptureOrder(ctx, resp.TransactionID))

	order, err := f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, order.Status)
	assert.NotEmpty(t, order.POSOrderID)

	task, err := f.taskRepo.Get(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, task.Status)

	// Second firing is a no-op: no duplicate capture, no duplicate POS order.
	require.NoError(t, f.svc.CaptureOrder(ctx, resp.TransactionID))

	_, captures, _ := f.pay.counts()
	assert.Equal(t, 1, captures)
	assert.Equal(t, 1, f.pos.created())
}

func TestAuthorizeOrder_SettledImmediately(t *testing.T) {
	f := newCheckoutFixture(t)
	f.pay.settled = true
	ctx := context.Background()

	req := authorizeRequest()
	req.PaymentMethod = model.PaymentMethodWallet

	resp, err := f.svc.AuthorizeOrder(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, model.StatusSubmitted, resp.Status)
	assert.NotEmpty(t, resp.POSOrderID)

	// No capture left to schedule.
	_, err = f.taskRepo.Get(ctx, resp.TransactionID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, captures, _ := f.pay.counts()
	assert.Equal(t, 0, captures)
}

func TestAuthorizeOrder_DeclinedPersistsNothing(t *testing.T) {
	f := newCheckoutFixture(t)
	f.pay.authorizeErr = apperr.Declined(apperr.DeclineInsufficientFunds, errors.New("INSUFFICIENT_FUNDS"))
	ctx := context.Background()

	_, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeProviderDeclined, apperr.CodeOf(err))

	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthorizeOrder_Validation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*dto.AuthorizeOrderRequest)
	}{
		{"missing merchant", func(r *dto.AuthorizeOrderRequest) { r.MerchantID = "" }},
		{"zero amount", func(r *dto.AuthorizeOrderRequest) { r.Amount = 0 }},
		{"negative amount", func(r *dto.AuthorizeOrderRequest) { r.Amount = -100 }},
		{"missing token", func(r *dto.AuthorizeOrderRequest) { r.PaymentToken = "" }},
		{"no items", func(r *dto.AuthorizeOrderRequest) { r.Items = nil }},
		{"zero quantity item", func(r *dto.AuthorizeOrderRequest) { r.Items[0].Quantity = 0 }},
		{"unknown method", func(r *dto.AuthorizeOrderRequest) { r.PaymentMethod = "cash" }},
		{"external method on authorize", func(r *dto.AuthorizeOrderRequest) { r.PaymentMethod = model.PaymentMethodExternal }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authorizeRequest()
			tt.mutate(req)

			_, err := f.svc.AuthorizeOrder(ctx, req)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
		})
	}
}

func TestAuthorizeOrder_CustomerLookupFailureDowngradesToGuest(t *testing.T) {
	f := newCheckoutFixture(t)
	f.pay.customerErr = errors.New("customer service unavailable")
	ctx := context.Background()

	resp, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.NoError(t, err)
	assert.Equal(t, model.StatusAuthorized, resp.Status)
}

func TestCancelOrder_InsideWindow(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	resp, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelOrder(ctx, resp.TransactionID))

	order, err := f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, order.Status)

	_, _, cancels := f.pay.counts()
	assert.Equal(t, 1, cancels)

	// A later scheduler firing is a no-op.
	require.NoError(t, f.svc.CaptureOrder(ctx, resp.TransactionID))

	order, err = f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, order.Status)

	_, captures, _ := f.pay.counts()
	assert.Equal(t, 0, captures)
	assert.Equal(t, 0, f.pos.created())
}

func TestCancelOrder_OnlyWhileAuthorized(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	resp, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.CaptureOrder(ctx, resp.TransactionID))

	err = f.svc.CancelOrder(ctx, resp.TransactionID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotCancellable, apperr.CodeOf(err))
}

func TestCancelCaptureRace_ExactlyOneWinner(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	resp, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = f.svc.CancelOrder(ctx, resp.TransactionID)
	}()
	go func() {
		defer wg.Done()
		_ = f.svc.CaptureOrder(ctx, resp.TransactionID)
	}()
	wg.Wait()

	order, err := f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)

	_, captures, cancels := f.pay.counts()
	switch order.Status {
	case model.StatusCancelled:
		assert.Equal(t, 0, captures, "cancelled order must not be captured")
		assert.Equal(t, 1, cancels)
	case model.StatusSubmitted:
		assert.Equal(t, 1, captures)
	default:
		t.Fatalf("unexpected final status %s", order.Status)
	}
}

func TestCaptureOrder_FailureMovesOrderToFailed(t *testing.T) {
	f := newCheckoutFixture(t)
	f.pay.captureErr = errors.New("authorization expired")
	ctx := context.Background()

	resp, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.NoError(t, err)

	err = f.svc.CaptureOrder(ctx, resp.TransactionID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeCaptureFailed, apperr.CodeOf(err))

	order, err := f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, order.Status)
	assert.Contains(t, order.FailureNote, "authorization expired")

	task, err := f.taskRepo.Get(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskFailed, task.Status)

	assert.Equal(t, 0, f.pos.created())
}

func TestSubmitExternalOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	resp, err := f.svc.SubmitExternalOrder(ctx, &dto.ExternalOrderRequest{
		MerchantID: "M1",
		Amount:     725,
		Items: []*dto.Item{
			{Name: "Cold Brew", Quantity: 1, UnitPrice: 425},
			{Name: "Croissant", Quantity: 1, UnitPrice: 300},
		},
		CustomerName: "Sam",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSubmitted, resp.Status)
	assert.NotEmpty(t, resp.POSOrderID)

	order, err := f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentMethodExternal, order.PaymentMethod)
	assert.EqualValues(t, 725, order.Amount)
	assert.Empty(t, order.PaymentProviderRef)

	// No completion task, no payment provider involvement.
	_, err = f.taskRepo.Get(ctx, resp.TransactionID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	authorizes, captures, _ := f.pay.counts()
	assert.Zero(t, authorizes)
	assert.Zero(t, captures)
}

func TestAuthorizeOrder_SettledPaymentRecordFailureIsNonFatal(t *testing.T) {
	f := newCheckoutFixture(t)
	f.pay.settled = true
	f.pos.extPayErr = errors.New("payments endpoint unavailable")
	ctx := context.Background()

	resp, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.NoError(t, err)

	// The payment record on the POS order is reporting-only: its failure is
	// logged, never surfaced, and never unwinds the created order.
	assert.Equal(t, model.StatusSubmitted, resp.Status)
	assert.NotEmpty(t, resp.POSOrderID)

	order, err := f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, order.Status)
	assert.Equal(t, resp.POSOrderID, order.POSOrderID)
	assert.Equal(t, 1, f.pos.externalPayments())
}

func TestSubmitExternalOrder_PaymentRecordFailureIsNonFatal(t *testing.T) {
	f := newCheckoutFixture(t)
	f.pos.extPayErr = errors.New("payments endpoint unavailable")
	ctx := context.Background()

	resp, err := f.svc.SubmitExternalOrder(ctx, &dto.ExternalOrderRequest{
		MerchantID:   "M1",
		Amount:       725,
		Items:        []*dto.Item{{Name: "Cold Brew", Quantity: 1, UnitPrice: 725}},
		CustomerName: "Sam",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSubmitted, resp.Status)
	assert.NotEmpty(t, resp.POSOrderID)

	order, err := f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, order.Status)
	assert.Equal(t, resp.POSOrderID, order.POSOrderID)
}

func TestAuthorizeOrder_SettledPOSFailureStillPersistsOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	f.pay.settled = true
	f.pos.createErr = errors.New("pos unavailable")
	ctx := context.Background()

	resp, err := f.svc.AuthorizeOrder(ctx, authorizeRequest())
	require.NoError(t, err)

	// The settled payment is never orphaned: the order exists, flagged for
	// reconciliation by its missing POS linkage.
	order, err := f.orderRepo.FindByTransactionID(ctx, resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, order.Status)
	assert.Empty(t, order.POSOrderID)
}
