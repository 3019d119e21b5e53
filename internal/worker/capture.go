package worker

import (
	"context"
	"log"
	"time"

	"github.com/tareksakakini/SipLocal-sub003/internal/repository"
	"github.com/tareksakakini/SipLocal-sub003/internal/service"
)

const dueBatchSize = 50

// CaptureWorker drives delayed captures off the durable completion-task
// table: any task still SCHEDULED past its due time gets picked up on the
// next poll, so pending captures survive process restarts. A task whose
// attempt errored while still SCHEDULED is re-armed fallbackDelay into the
// future instead of being retried every tick.
type CaptureWorker struct {
	taskRepo      repository.CompletionTaskRepository
	checkout      service.CheckoutService
	pollInterval  time.Duration
	fallbackDelay time.Duration
}

func NewCaptureWorker(taskRepo repository.CompletionTaskRepository, checkout service.CheckoutService, pollInterval, fallbackDelay time.Duration) *CaptureWorker {
	return &CaptureWorker{
		taskRepo:      taskRepo,
		checkout:      checkout,
		pollInterval:  pollInterval,
		fallbackDelay: fallbackDelay,
	}
}

// Run polls until ctx is cancelled.
func (w *CaptureWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	log.Printf("capture worker polling every %s", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("capture worker stopping")
			return
		case <-ticker.C:
			w.runDue(ctx)
		}
	}
}

func (w *CaptureWorker) runDue(ctx context.Context) {
	tasks, err := w.taskRepo.FindDue(ctx, time.Now(), dueBatchSize)
	if err != nil {
		log.Printf("find due completion tasks: %v", err)
		return
	}

	for _, task := range tasks {
		// CaptureOrder resolves the task itself; the status re-check inside
		// makes a duplicate firing a no-op.
		if err := w.checkout.CaptureOrder(ctx, task.TransactionID); err != nil {
			log.Printf("capture for %s: %v", task.TransactionID, err)
			// The conditional re-arm leaves tasks the capture path already
			// resolved (capture failures, orphans) untouched.
			if _, rerr := w.taskRepo.Rearm(ctx, task.TransactionID, time.Now().Add(w.fallbackDelay)); rerr != nil {
				log.Printf("rearm task %s: %v", task.TransactionID, rerr)
			}
		}
	}
}
