package worker

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

	"github.com/tareksakakini/SipLocal-sub003/internal/dto"
	"github.com/tareksakakini/SipLocal-sub003/internal/model"
	"github.com/tareksakakini/SipLocal-sub003/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.CompletionTask{}))
	return db
}

// fakeCheckout records capture invocations and resolves the task, the way
// the real capture path does.
type fakeCheckout struct {
	mu         sync.Mutex
	taskRepo   repository.CompletionTaskRepository
	captureErr error
	captured   []string
}

func (f *fakeCheckout) CaptureOrder(ctx context.Context, transactionID string) error {
	f.mu.Lock()
	f.captured = append(f.captured, transactionID)
	f.mu.Unlock()
	if f.captureErr != nil {
		return f.captureErr
	}
	_, err := f.taskRepo.Resolve(ctx, transactionID, model.TaskCompleted, "")
	return err
}

func (f *fakeCheckout) AuthorizeOrder(ctx context.Context, req *dto.AuthorizeOrderRequest) (*dto.AuthorizeOrderResponse, error) {
	return nil, nil
}

func (f *fakeCheckout) SubmitExternalOrder(ctx context.Context, req *dto.ExternalOrderRequest) (*dto.ExternalOrderResponse, error) {
	return nil, nil
}

func (f *fakeCheckout) CancelOrder(ctx context.Context, transactionID string) error { return nil }

func (f *fakeCheckout) GetOrder(ctx context.Context, transactionID string) (*model.Order, error) {
	return nil, nil
}

func (f *fakeCheckout) capturedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.captured...)
}

func TestRunDue_FiresOnlyDueTasks(t *testing.T) {
	db := setupTestDB(t)
	taskRepo := repository.NewCompletionTaskRepository(db)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, taskRepo.Create(ctx, db, &model.CompletionTask{
		TransactionID: "tx-due",
		ScheduledFor:  now.Add(-time.Second),
		Status:        model.TaskScheduled,
	}))
	require.NoError(t, taskRepo.Create(ctx, db, &model.CompletionTask{
		TransactionID: "tx-later",
		ScheduledFor:  now.Add(time.Hour),
		Status:        model.TaskScheduled,
	}))

	checkout := &fakeCheckout{taskRepo: taskRepo}
	w := NewCaptureWorker(taskRepo, checkout, time.Second, 45*time.Second)

	w.runDue(ctx)

	assert.Equal(t, []string{"tx-due"}, checkout.capturedIDs())

	// Resolved tasks are not picked up again.
	w.runDue(ctx)
	assert.Equal(t, []string{"tx-due"}, checkout.capturedIDs())
}

func TestRunDue_ErroredAttemptRearmsTask(t *testing.T) {
	db := setupTestDB(t)
	taskRepo := repository.NewCompletionTaskRepository(db)
	ctx := context.Background()

	require.NoError(t, taskRepo.Create(ctx, db, &model.CompletionTask{
		TransactionID: "tx-flaky",
		ScheduledFor:  time.Now().Add(-time.Second),
		Status:        model.TaskScheduled,
	}))

	checkout := &fakeCheckout{taskRepo: taskRepo, captureErr: errors.New("db briefly unavailable")}
	w := NewCaptureWorker(taskRepo, checkout, time.Second, 45*time.Second)

	w.runDue(ctx)
	assert.Equal(t, []string{"tx-flaky"}, checkout.capturedIDs())

	// Backed off, not hammered on the next tick.
	w.runDue(ctx)
	assert.Equal(t, []string{"tx-flaky"}, checkout.capturedIDs())

	task, err := taskRepo.Get(ctx, "tx-flaky")
	require.NoError(t, err)
	assert.Equal(t, model.TaskScheduled, task.Status)
	assert.WithinDuration(t, time.Now().Add(45*time.Second), task.ScheduledFor, 2*time.Second)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	db := setupTestDB(t)
	taskRepo := repository.NewCompletionTaskRepository(db)
	checkout := &fakeCheckout{taskRepo: taskRepo}
	w := NewCaptureWorker(taskRepo, checkout, 10*time.Millisecond, 45*time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
