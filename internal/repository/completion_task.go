package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tareksakakini/SipLocal-sub003/internal/model"
)

type CompletionTaskRepository interface {
	Create(ctx context.Context, tx *gorm.DB, task *model.CompletionTask) error
	Get(ctx context.Context, transactionID string) (*model.CompletionTask, error)

	// FindDue returns SCHEDULED tasks whose due time has passed.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*model.CompletionTask, error)

	// Resolve moves a task out of SCHEDULED exactly once; false means it was
	// already resolved.
	Resolve(ctx context.Context, transactionID, status, errorDetail string) (bool, error)

	// Rearm pushes a still-SCHEDULED task's due time forward; false means
	// the task was already resolved.
	Rearm(ctx context.Context, transactionID string, until time.Time) (bool, error)
}

type completionTaskRepoImpl struct {
	db *gorm.DB
}

func NewCompletionTaskRepository(db *gorm.DB) CompletionTaskRepository {
	return &completionTaskRepoImpl{
		db: db,
	}
}

func (r *completionTaskRepoImpl) Create(ctx context.Context, tx *gorm.DB, task *model.CompletionTask) error {
	return tx.WithContext(ctx).Create(task).Error
}

func (r *completionTaskRepoImpl) Get(ctx context.Context, transactionID string) (*model.CompletionTask, error) {
	var task model.CompletionTask
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&task).Error
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *completionTaskRepoImpl) FindDue(ctx context.Context, now time.Time, limit int) ([]*model.CompletionTask, error) {
	var tasks []*model.CompletionTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", model.TaskScheduled, now).
		Order("scheduled_for asc").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *completionTaskRepoImpl) Resolve(ctx context.Context, transactionID, status, errorDetail string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.CompletionTask{}).
		Where("transaction_id = ? AND status = ?", transactionID, model.TaskScheduled).
		Updates(map[string]interface{}{
			"status":       status,
			"error_detail": errorDetail,
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *completionTaskRepoImpl) Rearm(ctx context.Context, transactionID string, until time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.CompletionTask{}).
		Where("transaction_id = ? AND status = ?", transactionID, model.TaskScheduled).
		Updates(map[string]interface{}{
			"scheduled_for": until,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
